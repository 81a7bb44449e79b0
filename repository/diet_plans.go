package repository

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repobun "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/svasthya/ayurcare/clinic"
	"github.com/uptrace/bun"
)

// DietPlanModel persists one prescription row; the meal schedule is a
// JSON column.
type DietPlanModel struct {
	bun.BaseModel `bun:"table:diet_plans,alias:dp"`

	ID        uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PatientID string        `bun:"patient_id,notnull" json:"patient_id,omitempty"`
	DoctorID  string        `bun:"doctor_id,notnull" json:"doctor_id,omitempty"`
	Title     string        `bun:"title,notnull" json:"title,omitempty"`
	StartDate *time.Time    `bun:"start_date,nullzero" json:"start_date,omitempty"`
	EndDate   *time.Time    `bun:"end_date,nullzero" json:"end_date,omitempty"`
	Meals     []clinic.Meal `bun:"meals" json:"meals,omitempty"`
	Notes     string        `bun:"notes" json:"notes,omitempty"`
	CreatedAt *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

type dietPlans struct {
	repo repobun.Repository[*DietPlanModel]
	db   *bun.DB
}

var _ clinic.DietPlanStore = (*dietPlans)(nil)

func NewDietPlansRepository(db *bun.DB) clinic.DietPlanStore {
	repo := repobun.NewRepository[*DietPlanModel](db, repobun.ModelHandlers[*DietPlanModel]{
		NewRecord: func() *DietPlanModel { return &DietPlanModel{} },
		GetID: func(m *DietPlanModel) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *DietPlanModel, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
	})

	return &dietPlans{
		repo: repo,
		db:   db,
	}
}

func (d *dietPlans) Create(ctx context.Context, plan *clinic.DietPlan) (*clinic.DietPlan, error) {
	model := planToModel(plan)

	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}

	created, err := d.repo.CreateTx(ctx, d.db, model)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create diet plan")
	}

	return modelToPlan(created), nil
}

func (d *dietPlans) GetByID(ctx context.Context, id string) (*clinic.DietPlan, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, clinic.ErrPlanNotFound
	}

	record := &DietPlanModel{}
	err = d.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", uid.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clinic.ErrPlanNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "diet plan lookup failed")
	}

	return modelToPlan(record), nil
}

func (d *dietPlans) ListByPatient(ctx context.Context, patientID string) ([]*clinic.DietPlan, error) {
	records := []*DietPlanModel{}

	err := d.db.NewSelect().
		Model(&records).
		Where("?TableAlias.patient_id = ?", patientID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "diet plan listing failed")
	}

	out := make([]*clinic.DietPlan, 0, len(records))
	for _, r := range records {
		out = append(out, modelToPlan(r))
	}

	return out, nil
}

func planToModel(p *clinic.DietPlan) *DietPlanModel {
	return &DietPlanModel{
		ID:        p.ID,
		PatientID: p.PatientID,
		DoctorID:  p.DoctorID,
		Title:     p.Title,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Meals:     p.Meals,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func modelToPlan(m *DietPlanModel) *clinic.DietPlan {
	return &clinic.DietPlan{
		ID:        m.ID,
		PatientID: m.PatientID,
		DoctorID:  m.DoctorID,
		Title:     m.Title,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Meals:     m.Meals,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
