package model

// Patient is the record managed by the remote service. The ID is assigned
// by the service and never changes once the patient exists.
type Patient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PatientInput is the payload of the create and update mutations
// (PacienteInput in the remote schema).
type PatientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
