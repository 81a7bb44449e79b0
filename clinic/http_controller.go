package clinic

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
	"github.com/svasthya/ayurcare"
)

// Gate is the subset of the route authenticator the clinic routes need
type Gate interface {
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RequireRoles(allowed ...ayurcare.Role) router.MiddlewareFunc
	MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error
}

type ControllerRoutes struct {
	AdmitPatient  string
	Patients      string
	AssignPatient string
	CreatePlan    string
	GetPlan       string
	PatientPlans  string
}

type Controller struct {
	Logger       ayurcare.Logger
	Service      *Service
	Routes       *ControllerRoutes
	ContextKey   string
	Production   bool
	ErrorHandler router.ErrorHandler
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		ContextKey: "identity",
		Routes: &ControllerRoutes{
			AdmitPatient:  "/clinic/patients",
			Patients:      "/clinic/patients",
			AssignPatient: "/clinic/patients/:id/assign",
			CreatePlan:    "/clinic/diet-plans",
			GetPlan:       "/clinic/diet-plans/:id",
			PatientPlans:  "/clinic/patients/:id/diet-plans",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing clinic service in controller...")
	}

	if c.Logger == nil {
		c.Logger = ayurcare.NopLogger{}
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return ayurcare.JSONError(ctx, err, c.Production)
		}
	}

	return c
}

func WithService(svc *Service) ControllerOption {
	return func(c *Controller) *Controller {
		c.Service = svc
		return c
	}
}

func WithLogger(logger ayurcare.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = logger
		return c
	}
}

func WithProduction(production bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Production = production
		return c
	}
}

func WithContextKey(key string) ControllerOption {
	return func(c *Controller) *Controller {
		c.ContextKey = key
		return c
	}
}

// RegisterRoutes mounts the clinic surface. Everything is behind the
// session gate; write operations additionally require the doctor role.
func RegisterRoutes[T any](app router.Router[T], gate Gate, opts ...ControllerOption) {
	controller := NewController(opts...)

	protected := gate.ProtectedRoute(gate.MakeClientRouteAuthErrorHandler(false))
	doctorOnly := gate.RequireRoles(ayurcare.RoleDoctor)

	app.Post(controller.Routes.AdmitPatient, protected(doctorOnly(controller.AdmitPatient))).
		SetName("clinic.patients.post")
	app.Get(controller.Routes.Patients, protected(doctorOnly(controller.Patients))).
		SetName("clinic.patients.get")
	app.Post(controller.Routes.AssignPatient, protected(doctorOnly(controller.AssignPatient))).
		SetName("clinic.patients.assign.post")

	app.Post(controller.Routes.CreatePlan, protected(doctorOnly(controller.CreatePlan))).
		SetName("clinic.diet-plans.post")
	app.Get(controller.Routes.GetPlan, protected(controller.GetPlan)).
		SetName("clinic.diet-plans.get")
	app.Get(controller.Routes.PatientPlans, protected(controller.PatientPlans)).
		SetName("clinic.patients.diet-plans.get")
}

// AdmitPatientPayload mirrors AdmitPatientMessage with bind tags
type AdmitPatientPayload struct {
	Name           string             `form:"name" json:"name"`
	Email          string             `form:"email" json:"email"`
	Gender         string             `form:"gender" json:"gender"`
	Contact        string             `form:"contact" json:"contact"`
	Dosha          string             `form:"ayurvedic_category" json:"ayurvedic_category"`
	CareMode       string             `form:"mode" json:"mode"`
	MedicalHistory []string           `json:"medical_history"`
	Diseases       []string           `json:"diseases"`
	Allergies      []string           `json:"allergies"`
	Addresses      []ayurcare.Address `json:"addresses"`
}

// Validate will run validation rules
func (r AdmitPatientPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// CreatePlanPayload is the diet plan submission
type CreatePlanPayload struct {
	PatientID string `form:"patient_id" json:"patient_id"`
	Title     string `form:"title" json:"title"`
	StartDate string `form:"start_date" json:"start_date"`
	EndDate   string `form:"end_date" json:"end_date"`
	Meals     []Meal `json:"meals"`
	Notes     string `form:"notes" json:"notes"`
}

// Validate will run validation rules
func (r CreatePlanPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.StartDate, validation.Date("2006-01-02")),
		validation.Field(&r.EndDate, validation.Date("2006-01-02")),
		validation.Field(&r.Meals, validation.Required),
	)
}

func (a *Controller) AdmitPatient(ctx router.Context) error {
	claims, err := ayurcare.GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(AdmitPatientPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError(
			"invalid patient payload",
			ayurcare.FormatValidationErrorToMap(err),
		))
	}

	account, err := a.Service.AdmitPatient(ctx.Context(), claims.AccountID(), AdmitPatientMessage{
		Name:           payload.Name,
		Email:          payload.Email,
		Gender:         ayurcare.Gender(payload.Gender),
		Contact:        payload.Contact,
		Dosha:          ayurcare.Dosha(payload.Dosha),
		CareMode:       ayurcare.CareMode(payload.CareMode),
		MedicalHistory: payload.MedicalHistory,
		Diseases:       payload.Diseases,
		Allergies:      payload.Allergies,
		Addresses:      payload.Addresses,
	})
	if err != nil {
		a.Logger.Error("admit patient: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ayurcare.JSONSuccess(ctx, http.StatusCreated, account.Sanitized(), "patient admitted")
}

func (a *Controller) Patients(ctx router.Context) error {
	claims, err := ayurcare.GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	patients, err := a.Service.Patients(ctx.Context(), claims.AccountID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	out := make([]*ayurcare.Account, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.Sanitized())
	}

	return ayurcare.JSONSuccess(ctx, http.StatusOK, out, "")
}

func (a *Controller) AssignPatient(ctx router.Context) error {
	claims, err := ayurcare.GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	patientID := ctx.Param("id")
	if patientID == "" {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError("missing patient id", nil))
	}

	if err := a.Service.AssignPatient(ctx.Context(), claims.AccountID(), patientID); err != nil {
		a.Logger.Error("assign patient: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ayurcare.JSONSuccess(ctx, http.StatusOK, nil, "patient assigned")
}

func (a *Controller) CreatePlan(ctx router.Context) error {
	claims, err := ayurcare.GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(CreatePlanPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError(
			"invalid diet plan payload",
			ayurcare.FormatValidationErrorToMap(err),
		))
	}

	plan := &DietPlan{
		PatientID: payload.PatientID,
		Title:     payload.Title,
		StartDate: parseDay(payload.StartDate),
		EndDate:   parseDay(payload.EndDate),
		Meals:     payload.Meals,
		Notes:     payload.Notes,
	}

	created, err := a.Service.CreateDietPlan(ctx.Context(), claims.AccountID(), plan)
	if err != nil {
		a.Logger.Error("create diet plan: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ayurcare.JSONSuccess(ctx, http.StatusCreated, created, "diet plan created")
}

func (a *Controller) GetPlan(ctx router.Context) error {
	claims, err := ayurcare.GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	planID := ctx.Param("id")
	if planID == "" {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError("missing diet plan id", nil))
	}

	role, _ := ayurcare.ParseRole(claims.Role())
	plan, err := a.Service.DietPlan(ctx.Context(), claims.AccountID(), role, planID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ayurcare.JSONSuccess(ctx, http.StatusOK, plan, "")
}

func (a *Controller) PatientPlans(ctx router.Context) error {
	claims, err := ayurcare.GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	patientID := ctx.Param("id")
	if patientID == "" {
		return a.ErrorHandler(ctx, ayurcare.NewValidationError("missing patient id", nil))
	}

	role, _ := ayurcare.ParseRole(claims.Role())
	plans, err := a.Service.PatientDietPlans(ctx.Context(), claims.AccountID(), role, patientID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ayurcare.JSONSuccess(ctx, http.StatusOK, plans, "")
}

func parseDay(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
