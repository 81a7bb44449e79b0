package clinic

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// MealType slots a meal into the daily schedule
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealItem is a single prescribed food with its portion
type MealItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Meal groups the items prescribed for one slot of the day
type Meal struct {
	Type  MealType   `json:"type"`
	Items []MealItem `json:"items"`
}

// DietPlan is a doctor-authored prescription for one patient. The doctor
// id records who wrote it; access checks derive from the patient's
// current assignment, not from this field.
type DietPlan struct {
	ID        uuid.UUID  `json:"id"`
	PatientID string     `json:"patient_id"`
	DoctorID  string     `json:"doctor_id"`
	Title     string     `json:"title"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Meals     []Meal     `json:"meals"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Validate checks the plan is complete enough to store
func (p DietPlan) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PatientID, validation.Required),
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Meals, validation.Required),
	)
}

// Covers reports whether the plan window includes the given day. Open
// ended plans cover everything after their start.
func (p DietPlan) Covers(day time.Time) bool {
	if p.StartDate != nil && day.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && day.After(*p.EndDate) {
		return false
	}
	return true
}
