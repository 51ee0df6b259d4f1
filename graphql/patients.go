package graphql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ariebrainware/patient-console/model"
)

// PatientService runs the catalog operations through an Executor and decodes
// their payloads.
type PatientService struct {
	exec    Executor
	metrics *Metrics
}

// ServiceOption configures a PatientService.
type ServiceOption func(*PatientService)

// WithMetrics records every operation in m.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *PatientService) {
		s.metrics = m
	}
}

// NewPatientService wraps exec.
func NewPatientService(exec Executor, opts ...ServiceOption) *PatientService {
	s := &PatientService{exec: exec}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every patient. A null list decodes to nil.
func (s *PatientService) List(ctx context.Context) ([]model.Patient, error) {
	var out struct {
		Patients []model.Patient `json:"getPacientes"`
	}
	if err := s.run(ctx, OpGetPacientes, GetPacientes, nil, &out); err != nil {
		return nil, err
	}
	return out.Patients, nil
}

// Get returns the patient with id, or nil when the service has none.
func (s *PatientService) Get(ctx context.Context, id string) (*model.Patient, error) {
	var out struct {
		Patient *model.Patient `json:"getPacienteById"`
	}
	vars := map[string]interface{}{"id": id}
	if err := s.run(ctx, OpGetPacienteByID, GetPacienteByID, vars, &out); err != nil {
		return nil, err
	}
	return out.Patient, nil
}

// Create registers a new patient and returns it as stored by the service.
func (s *PatientService) Create(ctx context.Context, input model.PatientInput) (*model.Patient, error) {
	var out struct {
		Patient *model.Patient `json:"createPaciente"`
	}
	vars := map[string]interface{}{"input": input}
	if err := s.run(ctx, OpCreatePaciente, CreatePaciente, vars, &out); err != nil {
		return nil, err
	}
	return out.Patient, nil
}

// Update replaces the name and email of patient id.
func (s *PatientService) Update(ctx context.Context, id string, input model.PatientInput) (*model.Patient, error) {
	var out struct {
		Patient *model.Patient `json:"updatePaciente"`
	}
	vars := map[string]interface{}{"id": id, "input": input}
	if err := s.run(ctx, OpUpdatePaciente, UpdatePaciente, vars, &out); err != nil {
		return nil, err
	}
	return out.Patient, nil
}

// Delete removes patient id. false means the service completed the call but
// nothing was deleted.
func (s *PatientService) Delete(ctx context.Context, id string) (bool, error) {
	var out struct {
		Deleted bool `json:"deletePaciente"`
	}
	vars := map[string]interface{}{"id": id}
	if err := s.run(ctx, OpDeletePaciente, DeletePaciente, vars, &out); err != nil {
		return false, err
	}
	return out.Deleted, nil
}

func (s *PatientService) run(ctx context.Context, operation, document string, vars map[string]interface{}, out interface{}) (err error) {
	started := time.Now()
	defer func() { s.metrics.observe(operation, started, err) }()

	data, err := s.exec.Execute(ctx, document, vars)
	if err != nil {
		return err
	}
	if isNull(data) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return transportErrorf("decode %s payload: %w", operation, err)
	}
	return nil
}
