package ayurcare

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender is the enumerated gender on the base account
type Gender = string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "prefer not to say"
)

// Dosha is the Ayurvedic constitution category of a patient
type Dosha = string

const (
	DoshaVata  Dosha = "vata"
	DoshaPitta Dosha = "pitta"
	DoshaKapha Dosha = "kapha"
)

// CareMode is how a patient receives care
type CareMode = string

const (
	CareModeOnline  CareMode = "online"
	CareModeOffline CareMode = "offline"
)

// Address is a postal address on the base account. The store does not
// enforce a single default; at most one entry is expected to carry the flag.
type Address struct {
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	Pincode   string `json:"pincode,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
}

// DoctorExtension carries the doctor-only fields of an account
type DoctorExtension struct {
	LicenseNo       string   `json:"license_no"`
	Hospital        string   `json:"hospital"`
	Specialty       string   `json:"specialty"`
	Specializations []string `json:"specializations,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	Experience      int      `json:"experience,omitempty"`
	Verified        bool     `json:"verification_status"`
}

// PatientExtension carries the patient-only fields of an account.
// AssignedDoctorID is a weak reference: lookup only, never an owning
// pointer, so removing a doctor does not cascade to patients.
type PatientExtension struct {
	Dosha            Dosha    `json:"ayurvedic_category"`
	CareMode         CareMode `json:"mode"`
	MedicalHistory   []string `json:"medical_history,omitempty"`
	Diseases         []string `json:"diseases,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	HeightCM         *float64 `json:"height,omitempty"`
	WeightKG         *float64 `json:"weight,omitempty"`
	AssignedDoctorID string   `json:"assigned_doctor,omitempty"`
}

// Account is the base identity record. Exactly one of Doctor or Patient is
// set, matching Role; the pair is persisted as one row with the role as
// discriminator.
type Account struct {
	ID           uuid.UUID  `json:"id,omitempty"`
	Role         Role       `json:"role,omitempty"`
	Name         string     `json:"name,omitempty"`
	Email        string     `json:"email,omitempty"`
	DOB          *time.Time `json:"dob,omitempty"`
	Gender       Gender     `json:"gender,omitempty"`
	Contact      string     `json:"contact,omitempty"`
	Addresses    []Address  `json:"address,omitempty"`
	PasswordHash string     `json:"-"`
	RefreshToken string     `json:"-"`

	Doctor  *DoctorExtension  `json:"doctor,omitempty"`
	Patient *PatientExtension `json:"patient,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

const (
	maxHeightCM = 300
	maxWeightKG = 1000
)

// NewDoctorAccount builds a doctor-tagged account, rejecting field sets
// inconsistent with the role.
func NewDoctorAccount(base Account, ext DoctorExtension) (*Account, error) {
	if err := validateBase(&base); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if strings.TrimSpace(ext.LicenseNo) == "" {
		fields["license_no"] = "required"
	}
	if strings.TrimSpace(ext.Hospital) == "" {
		fields["hospital"] = "required"
	}
	if strings.TrimSpace(ext.Specialty) == "" {
		fields["specialty"] = "required"
	}
	if ext.Experience < 0 {
		fields["experience"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, NewValidationError("missing or invalid doctor fields", fields)
	}

	if len(ext.Specializations) == 0 {
		ext.Specializations = []string{ext.Specialty}
	}
	if ext.Phone == "" {
		ext.Phone = base.Contact
	}

	base.Role = RoleDoctor
	base.Doctor = &ext
	base.Patient = nil
	return &base, nil
}

// NewPatientAccount builds a patient-tagged account, rejecting field sets
// inconsistent with the role.
func NewPatientAccount(base Account, ext PatientExtension) (*Account, error) {
	if err := validateBase(&base); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	switch ext.Dosha {
	case DoshaVata, DoshaPitta, DoshaKapha:
	case "":
		fields["ayurvedic_category"] = "required"
	default:
		fields["ayurvedic_category"] = "must be one of vata, pitta, kapha"
	}
	switch ext.CareMode {
	case CareModeOnline, CareModeOffline:
	case "":
		fields["mode"] = "required"
	default:
		fields["mode"] = "must be one of online, offline"
	}
	if ext.HeightCM != nil && (*ext.HeightCM <= 0 || *ext.HeightCM > maxHeightCM) {
		fields["height"] = "must be between 0 and 300 cm"
	}
	if ext.WeightKG != nil && (*ext.WeightKG <= 0 || *ext.WeightKG > maxWeightKG) {
		fields["weight"] = "must be between 0 and 1000 kg"
	}
	if len(fields) > 0 {
		return nil, NewValidationError("missing or invalid patient fields", fields)
	}

	base.Role = RolePatient
	base.Patient = &ext
	base.Doctor = nil
	return &base, nil
}

func validateBase(base *Account) error {
	fields := map[string]any{}
	if strings.TrimSpace(base.Name) == "" {
		fields["name"] = "required"
	}

	base.Email = NormalizeEmail(base.Email)
	if base.Email == "" {
		fields["email"] = "required"
	}

	switch base.Gender {
	case GenderMale, GenderFemale, GenderUnspecified, "":
	default:
		fields["gender"] = "must be one of male, female, prefer not to say"
	}

	if len(fields) > 0 {
		return NewValidationError("missing or invalid account fields", fields)
	}
	return nil
}

// NormalizeEmail lower-cases and trims the account-identifying handle.
// Uniqueness is enforced on this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsDoctor reports whether the account carries the doctor tag
func (a *Account) IsDoctor() bool {
	return a.Role == RoleDoctor && a.Doctor != nil
}

// IsPatient reports whether the account carries the patient tag
func (a *Account) IsPatient() bool {
	return a.Role == RolePatient && a.Patient != nil
}

// Sanitized returns a copy with the secret and refresh fields stripped,
// safe for response payloads.
func (a *Account) Sanitized() *Account {
	c := *a
	c.PasswordHash = ""
	c.RefreshToken = ""
	return &c
}

// DefaultAddress returns the first address flagged default, or the first
// address when none is flagged.
func (a *Account) DefaultAddress() (Address, bool) {
	for _, addr := range a.Addresses {
		if addr.IsDefault {
			return addr, true
		}
	}
	if len(a.Addresses) > 0 {
		return a.Addresses[0], true
	}
	return Address{}, false
}
