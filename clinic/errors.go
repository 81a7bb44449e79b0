package clinic

import "github.com/goliatone/go-errors"

const (
	TextCodeNotAssigned  = "patient_not_assigned"
	TextCodePlanNotFound = "diet_plan_not_found"
	TextCodeNotAPatient  = "not_a_patient"
	TextCodeNotADoctor   = "not_a_doctor"
	TextCodePlanDenied   = "diet_plan_access_denied"
)

// ErrNotAssigned is returned when a doctor acts on a patient who is not
// on their roster.
var ErrNotAssigned = errors.New("patient is not assigned to this doctor", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAssigned).
	WithCode(errors.CodeForbidden)

// ErrPlanNotFound missing diet plan
var ErrPlanNotFound = errors.New("diet plan not found", errors.CategoryNotFound).
	WithTextCode(TextCodePlanNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotAPatient is returned when the referenced account exists but does
// not carry the patient role.
var ErrNotAPatient = errors.New("referenced account is not a patient", errors.CategoryValidation).
	WithTextCode(TextCodeNotAPatient).
	WithCode(errors.CodeBadRequest)

// ErrNotADoctor is returned when the referenced account exists but does
// not carry the doctor role.
var ErrNotADoctor = errors.New("referenced account is not a doctor", errors.CategoryValidation).
	WithTextCode(TextCodeNotADoctor).
	WithCode(errors.CodeBadRequest)

// ErrPlanDenied is returned when the requester is neither the plan's
// patient nor that patient's current doctor.
var ErrPlanDenied = errors.New("you are not allowed to view this diet plan", errors.CategoryAuthz).
	WithTextCode(TextCodePlanDenied).
	WithCode(errors.CodeForbidden)
