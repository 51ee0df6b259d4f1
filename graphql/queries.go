package graphql

// Operation documents sent to the patient service. The selection sets are
// fixed; variables are validated by the service only.
const (
	GetPacientes = `
query {
	getPacientes {
		id
		name
		email
	}
}`

	GetPacienteByID = `
query($id: ID!) {
	getPacienteById(id: $id) {
		id
		name
		email
	}
}`

	CreatePaciente = `
mutation($input: PacienteInput!) {
	createPaciente(input: $input) {
		id
		name
		email
	}
}`

	UpdatePaciente = `
mutation($id: ID!, $input: PacienteInput!) {
	updatePaciente(id: $id, input: $input) {
		id
		name
		email
	}
}`

	DeletePaciente = `
mutation($id: ID!) {
	deletePaciente(id: $id)
}`
)

// Operation names as exposed by the remote schema. They double as the
// top-level keys of each response's data object.
const (
	OpGetPacientes    = "getPacientes"
	OpGetPacienteByID = "getPacienteById"
	OpCreatePaciente  = "createPaciente"
	OpUpdatePaciente  = "updatePaciente"
	OpDeletePaciente  = "deletePaciente"
)
