package repository

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repobun "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/svasthya/ayurcare"
	"github.com/uptrace/bun"
)

// AccountModel is the single-table projection of both roles: one row per
// account, the role column as discriminator, extension fields flattened
// into nullable columns.
type AccountModel struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID           uuid.UUID          `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role         string             `bun:"role,notnull" json:"role,omitempty"`
	Name         string             `bun:"name,notnull" json:"name,omitempty"`
	Email        string             `bun:"email,notnull,unique" json:"email,omitempty"`
	DOB          *time.Time         `bun:"dob,nullzero" json:"dob,omitempty"`
	Gender       string             `bun:"gender" json:"gender,omitempty"`
	Contact      string             `bun:"contact" json:"contact,omitempty"`
	Addresses    []ayurcare.Address `bun:"addresses" json:"addresses,omitempty"`
	PasswordHash string             `bun:"password_hash" json:"-"`
	RefreshToken string             `bun:"refresh_token" json:"-"`

	// doctor columns
	LicenseNo       string   `bun:"license_no,nullzero,unique" json:"license_no,omitempty"`
	Hospital        string   `bun:"hospital" json:"hospital,omitempty"`
	Specialty       string   `bun:"specialty" json:"specialty,omitempty"`
	Specializations []string `bun:"specializations" json:"specializations,omitempty"`
	Phone           string   `bun:"phone" json:"phone,omitempty"`
	Bio             string   `bun:"bio" json:"bio,omitempty"`
	Experience      int      `bun:"experience" json:"experience,omitempty"`
	Verified        bool     `bun:"verified" json:"verification_status,omitempty"`

	// patient columns
	Dosha            string   `bun:"dosha" json:"ayurvedic_category,omitempty"`
	CareMode         string   `bun:"care_mode" json:"mode,omitempty"`
	MedicalHistory   []string `bun:"medical_history" json:"medical_history,omitempty"`
	Diseases         []string `bun:"diseases" json:"diseases,omitempty"`
	Allergies        []string `bun:"allergies" json:"allergies,omitempty"`
	HeightCM         *float64 `bun:"height_cm,nullzero" json:"height,omitempty"`
	WeightKG         *float64 `bun:"weight_kg,nullzero" json:"weight,omitempty"`
	AssignedDoctorID string   `bun:"assigned_doctor_id,nullzero" json:"assigned_doctor,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Accounts is the account repository contract. It satisfies both the
// account store and the refresh token store of the identity core.
type Accounts interface {
	repobun.Repository[*AccountModel]

	Register(ctx context.Context, account *ayurcare.Account) (*ayurcare.Account, error)
	GetByEmail(ctx context.Context, email string) (*ayurcare.Account, error)
	GetAccountByID(ctx context.Context, id string) (*ayurcare.Account, error)
	GetSessionAccount(ctx context.Context, id string) (*ayurcare.Account, error)
	AssignDoctor(ctx context.Context, patientID, doctorID string) error
	ListPatientsOfDoctor(ctx context.Context, doctorID string) ([]*ayurcare.Account, error)

	SaveRefreshToken(ctx context.Context, accountID, token string) error
	GetRefreshToken(ctx context.Context, accountID string) (string, error)
	ClearRefreshToken(ctx context.Context, accountID string) error
}

type accounts struct {
	repobun.Repository[*AccountModel]
	db *bun.DB
}

var (
	_ Accounts                          = (*accounts)(nil)
	_ repobun.Repository[*AccountModel] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repobun.NewRepository[*AccountModel](db, repobun.ModelHandlers[*AccountModel]{
		NewRecord: func() *AccountModel { return &AccountModel{} },
		GetID: func(m *AccountModel) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *AccountModel, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Register(ctx context.Context, account *ayurcare.Account) (*ayurcare.Account, error) {
	model := toModel(account)

	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	model.Email = ayurcare.NormalizeEmail(model.Email)

	created, err := a.Repository.CreateTx(ctx, a.db, model)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ayurcare.ErrDuplicateIdentity
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create account")
	}

	return toAccount(created), nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*ayurcare.Account, error) {
	record := &AccountModel{}

	err := a.db.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ayurcare.ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	return toAccount(record), nil
}

func (a *accounts) GetAccountByID(ctx context.Context, id string) (*ayurcare.Account, error) {
	record, err := a.getByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return toAccount(record), nil
}

// GetSessionAccount excludes the credential columns from the projection
// so handler code never sees them.
func (a *accounts) GetSessionAccount(ctx context.Context, id string) (*ayurcare.Account, error) {
	record, err := a.getByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return toAccount(record), nil
}

func (a *accounts) getByID(ctx context.Context, id string, excludeSecrets bool) (*AccountModel, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ayurcare.ErrIdentityNotFound
	}

	record := &AccountModel{}
	q := a.db.NewSelect().Model(record)

	if excludeSecrets {
		q = q.ExcludeColumn("password_hash", "refresh_token")
	}

	err = q.
		Where("?TableAlias.id = ?", uid.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ayurcare.ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	return record, nil
}

// AssignDoctor stores the doctor reference on the patient row. The
// reference is weak: nothing keeps it consistent if the doctor row goes
// away, and reassignment is a plain overwrite.
func (a *accounts) AssignDoctor(ctx context.Context, patientID, doctorID string) error {
	res, err := a.db.NewUpdate().
		Model((*AccountModel)(nil)).
		Set("assigned_doctor_id = ?", doctorID).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", patientID).
		Where("?TableAlias.role = ?", ayurcare.RolePatient).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "doctor assignment failed")
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ayurcare.ErrIdentityNotFound
	}

	return nil
}

func (a *accounts) ListPatientsOfDoctor(ctx context.Context, doctorID string) ([]*ayurcare.Account, error) {
	records := []*AccountModel{}

	err := a.db.NewSelect().
		Model(&records).
		ExcludeColumn("password_hash", "refresh_token").
		Where("?TableAlias.role = ?", ayurcare.RolePatient).
		Where("?TableAlias.assigned_doctor_id = ?", doctorID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "patient roster lookup failed")
	}

	out := make([]*ayurcare.Account, 0, len(records))
	for _, r := range records {
		out = append(out, toAccount(r))
	}

	return out, nil
}

func (a *accounts) SaveRefreshToken(ctx context.Context, accountID, token string) error {
	return a.setRefreshToken(ctx, accountID, token)
}

func (a *accounts) ClearRefreshToken(ctx context.Context, accountID string) error {
	return a.setRefreshToken(ctx, accountID, "")
}

func (a *accounts) setRefreshToken(ctx context.Context, accountID, token string) error {
	res, err := a.db.NewUpdate().
		Model((*AccountModel)(nil)).
		Set("refresh_token = ?", token).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "refresh token update failed")
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ayurcare.ErrIdentityNotFound
	}

	return nil
}

func (a *accounts) GetRefreshToken(ctx context.Context, accountID string) (string, error) {
	var token string

	err := a.db.NewSelect().
		Model((*AccountModel)(nil)).
		Column("refresh_token").
		Where("?TableAlias.id = ?", accountID).
		Limit(1).
		Scan(ctx, &token)
	if err != nil {
		if isNoRows(err) {
			return "", ayurcare.ErrIdentityNotFound
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "refresh token lookup failed")
	}

	return token, nil
}

func toModel(a *ayurcare.Account) *AccountModel {
	m := &AccountModel{
		ID:           a.ID,
		Role:         a.Role,
		Name:         a.Name,
		Email:        a.Email,
		DOB:          a.DOB,
		Gender:       a.Gender,
		Contact:      a.Contact,
		Addresses:    a.Addresses,
		PasswordHash: a.PasswordHash,
		RefreshToken: a.RefreshToken,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	if a.Doctor != nil {
		m.LicenseNo = a.Doctor.LicenseNo
		m.Hospital = a.Doctor.Hospital
		m.Specialty = a.Doctor.Specialty
		m.Specializations = a.Doctor.Specializations
		m.Phone = a.Doctor.Phone
		m.Bio = a.Doctor.Bio
		m.Experience = a.Doctor.Experience
		m.Verified = a.Doctor.Verified
	}

	if a.Patient != nil {
		m.Dosha = a.Patient.Dosha
		m.CareMode = a.Patient.CareMode
		m.MedicalHistory = a.Patient.MedicalHistory
		m.Diseases = a.Patient.Diseases
		m.Allergies = a.Patient.Allergies
		m.HeightCM = a.Patient.HeightCM
		m.WeightKG = a.Patient.WeightKG
		m.AssignedDoctorID = a.Patient.AssignedDoctorID
	}

	return m
}

func toAccount(m *AccountModel) *ayurcare.Account {
	a := &ayurcare.Account{
		ID:           m.ID,
		Role:         m.Role,
		Name:         m.Name,
		Email:        m.Email,
		DOB:          m.DOB,
		Gender:       m.Gender,
		Contact:      m.Contact,
		Addresses:    m.Addresses,
		PasswordHash: m.PasswordHash,
		RefreshToken: m.RefreshToken,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}

	switch m.Role {
	case ayurcare.RoleDoctor:
		a.Doctor = &ayurcare.DoctorExtension{
			LicenseNo:       m.LicenseNo,
			Hospital:        m.Hospital,
			Specialty:       m.Specialty,
			Specializations: m.Specializations,
			Phone:           m.Phone,
			Bio:             m.Bio,
			Experience:      m.Experience,
			Verified:        m.Verified,
		}
	case ayurcare.RolePatient:
		a.Patient = &ayurcare.PatientExtension{
			Dosha:            m.Dosha,
			CareMode:         m.CareMode,
			MedicalHistory:   m.MedicalHistory,
			Diseases:         m.Diseases,
			Allergies:        m.Allergies,
			HeightCM:         m.HeightCM,
			WeightKG:         m.WeightKG,
			AssignedDoctorID: m.AssignedDoctorID,
		}
	}

	return a
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isNoRows(err error) bool {
	if err == nil {
		return false
	}
	if repobun.IsRecordNotFound(err) {
		return true
	}
	return strings.Contains(err.Error(), "no rows in result set")
}
