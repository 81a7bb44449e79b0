package clinic

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/svasthya/ayurcare"
)

// DietPlanStore is the persistence contract for diet plans
type DietPlanStore interface {
	Create(ctx context.Context, plan *DietPlan) (*DietPlan, error)
	GetByID(ctx context.Context, id string) (*DietPlan, error)
	ListByPatient(ctx context.Context, patientID string) ([]*DietPlan, error)
}

// Service implements the doctor facing clinic operations: roster
// management and diet plan authoring. Every method takes the acting
// account's id and trusts the caller verified the session already.
type Service struct {
	accounts ayurcare.AccountStore
	plans    DietPlanStore
	logger   ayurcare.Logger
}

func NewService(accounts ayurcare.AccountStore, plans DietPlanStore) *Service {
	return &Service{
		accounts: accounts,
		plans:    plans,
		logger:   nil,
	}
}

func (s *Service) WithLogger(logger ayurcare.Logger) *Service {
	s.logger = logger
	return s
}

func (s *Service) debugf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(format, args...)
	}
}

// AssignPatient puts a patient on the doctor's roster. A patient has at
// most one doctor; reassigning overwrites the previous reference.
func (s *Service) AssignPatient(ctx context.Context, doctorID, patientID string) error {
	if _, err := s.requireRole(ctx, doctorID, ayurcare.RoleDoctor, ErrNotADoctor); err != nil {
		return err
	}

	if _, err := s.requireRole(ctx, patientID, ayurcare.RolePatient, ErrNotAPatient); err != nil {
		return err
	}

	s.debugf("assigning patient %s to doctor %s", patientID, doctorID)

	return s.accounts.AssignDoctor(ctx, patientID, doctorID)
}

// AdmitPatientMessage registers a patient without credentials and puts
// them on the admitting doctor's roster in one step.
type AdmitPatientMessage struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Gender         ayurcare.Gender    `json:"gender,omitempty"`
	Contact        string             `json:"contact,omitempty"`
	Dosha          ayurcare.Dosha     `json:"ayurvedic_category,omitempty"`
	CareMode       ayurcare.CareMode  `json:"mode,omitempty"`
	MedicalHistory []string           `json:"medical_history,omitempty"`
	Diseases       []string           `json:"diseases,omitempty"`
	Allergies      []string           `json:"allergies,omitempty"`
	Addresses      []ayurcare.Address `json:"addresses,omitempty"`
}

// AdmitPatient creates a passwordless patient account owned by the
// doctor. The patient can claim the account later through a password
// reset flow; until then it cannot log in. The roster assignment rides
// the same insert, so a failed admit leaves no orphan account behind.
func (s *Service) AdmitPatient(ctx context.Context, doctorID string, msg AdmitPatientMessage) (*ayurcare.Account, error) {
	if _, err := s.requireRole(ctx, doctorID, ayurcare.RoleDoctor, ErrNotADoctor); err != nil {
		return nil, err
	}

	register := ayurcare.NewRegisterAccountHandler(s.accounts)
	return register.Execute(ctx, ayurcare.RegisterAccountMessage{
		Role:      ayurcare.RolePatient,
		Name:      msg.Name,
		Email:     msg.Email,
		Gender:    msg.Gender,
		Contact:   msg.Contact,
		Addresses: msg.Addresses,
		Patient: &ayurcare.PatientExtension{
			Dosha:            msg.Dosha,
			CareMode:         msg.CareMode,
			MedicalHistory:   msg.MedicalHistory,
			Diseases:         msg.Diseases,
			Allergies:        msg.Allergies,
			AssignedDoctorID: doctorID,
		},
	})
}

// Patients returns the doctor's current roster
func (s *Service) Patients(ctx context.Context, doctorID string) ([]*ayurcare.Account, error) {
	if _, err := s.requireRole(ctx, doctorID, ayurcare.RoleDoctor, ErrNotADoctor); err != nil {
		return nil, err
	}

	return s.accounts.ListPatientsOfDoctor(ctx, doctorID)
}

// CreateDietPlan stores a plan authored by the doctor for one of their
// assigned patients.
func (s *Service) CreateDietPlan(ctx context.Context, doctorID string, plan *DietPlan) (*DietPlan, error) {
	if _, err := s.requireRole(ctx, doctorID, ayurcare.RoleDoctor, ErrNotADoctor); err != nil {
		return nil, err
	}

	patient, err := s.requireRole(ctx, plan.PatientID, ayurcare.RolePatient, ErrNotAPatient)
	if err != nil {
		return nil, err
	}

	if patient.Patient == nil || patient.Patient.AssignedDoctorID != doctorID {
		return nil, ErrNotAssigned
	}

	plan.DoctorID = doctorID

	if err := plan.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid diet plan").
			WithCode(goerrors.CodeBadRequest)
	}

	return s.plans.Create(ctx, plan)
}

// DietPlan returns a single plan if the requester may see it: the plan's
// patient, or that patient's current doctor.
func (s *Service) DietPlan(ctx context.Context, requesterID string, requesterRole ayurcare.Role, planID string) (*DietPlan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	if err := s.authorizePlanAccess(ctx, requesterID, requesterRole, plan.PatientID); err != nil {
		return nil, err
	}

	return plan, nil
}

// PatientDietPlans lists a patient's plans under the same access rule as
// DietPlan.
func (s *Service) PatientDietPlans(ctx context.Context, requesterID string, requesterRole ayurcare.Role, patientID string) ([]*DietPlan, error) {
	if err := s.authorizePlanAccess(ctx, requesterID, requesterRole, patientID); err != nil {
		return nil, err
	}

	return s.plans.ListByPatient(ctx, patientID)
}

func (s *Service) authorizePlanAccess(ctx context.Context, requesterID string, requesterRole ayurcare.Role, patientID string) error {
	switch requesterRole {
	case ayurcare.RolePatient:
		if requesterID != patientID {
			return ErrPlanDenied
		}
		return nil
	case ayurcare.RoleDoctor:
		patient, err := s.accounts.GetSessionAccount(ctx, patientID)
		if err != nil {
			return err
		}
		if patient.Patient == nil || patient.Patient.AssignedDoctorID != requesterID {
			return ErrPlanDenied
		}
		return nil
	default:
		return ErrPlanDenied
	}
}

func (s *Service) requireRole(ctx context.Context, accountID string, role ayurcare.Role, roleErr error) (*ayurcare.Account, error) {
	account, err := s.accounts.GetSessionAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Role != role {
		return nil, roleErr
	}

	return account, nil
}
