package ayurcare

import (
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// HTTPAuthenticator is the controller's view of the route authenticator
type HTTPAuthenticator interface {
	Login(ctx router.Context, payload LoginPayload, requiredRole Role) (*TokenPair, Identity, error)
	Refresh(ctx router.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx router.Context, accountID string) error
	RefreshTokenFromRequest(c router.Context) string
	ClearTokenCookies(c router.Context)
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RequireRoles(allowed ...Role) router.MiddlewareFunc
	MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error
}

// GetRouterClaims pulls the verified access claims the session gate left
// in the router context.
func GetRouterClaims(c router.Context, key string) (AuthClaims, error) {
	val := c.Locals(key)
	if val == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := val.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return claims, nil
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)

	app.Post(controller.Routes.RegisterDoctor, controller.RegisterDoctor).
		SetName("auth.register-doctor.post")
	app.Post(controller.Routes.RegisterPatient, controller.RegisterPatient).
		SetName("auth.register-patient.post")

	app.Post(controller.Routes.LoginDoctor, controller.LoginDoctor).
		SetName("auth.login-doctor.post")
	app.Post(controller.Routes.LoginPatient, controller.LoginPatient).
		SetName("auth.login-patient.post")
	app.Post(controller.Routes.Login, controller.Login).
		SetName("auth.login.post")

	app.Post(controller.Routes.RefreshToken, controller.RefreshToken).
		SetName("auth.refresh.post")

	app.Post(controller.Routes.Logout, protected(controller.Logout)).
		SetName("auth.logout.post")
	app.Get(controller.Routes.Me, protected(controller.Me)).
		SetName("auth.me.get")
}

type AuthControllerRoutes struct {
	RegisterDoctor  string
	RegisterPatient string
	LoginDoctor     string
	LoginPatient    string
	Login           string
	RefreshToken    string
	Logout          string
	Me              string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Accounts     AccountStore
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ContextKey   string
	Production   bool
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "identity",
		Routes: &AuthControllerRoutes{
			RegisterDoctor:  "/auth/register-doctor",
			RegisterPatient: "/auth/register-patient",
			LoginDoctor:     "/auth/login-doctor",
			LoginPatient:    "/auth/login-patient",
			Login:           "/auth/login",
			RefreshToken:    "/auth/refresh-token",
			Logout:          "/auth/logout",
			Me:              "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing AccountStore in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return JSONError(ctx, err, c.Production)
		}
	}

	return c
}

func WithControllerAccounts(store AccountStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Accounts = store
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerProduction(production bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Production = production
		return c
	}
}

func WithControllerContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ContextKey = key
		return c
	}
}

// RegisterDoctorRequest payload
type RegisterDoctorRequest struct {
	Name            string    `form:"name" json:"name"`
	Email           string    `form:"email" json:"email"`
	Password        string    `form:"password" json:"password"`
	DOB             string    `form:"dob" json:"dob"`
	Gender          string    `form:"gender" json:"gender"`
	Contact         string    `form:"contact" json:"contact"`
	Addresses       []Address `json:"addresses"`
	LicenseNo       string    `form:"license_no" json:"license_no"`
	Hospital        string    `form:"hospital" json:"hospital"`
	Specialty       string    `form:"specialty" json:"specialty"`
	Specializations []string  `json:"specializations"`
	Bio             string    `form:"bio" json:"bio"`
	Experience      int       `form:"experience" json:"experience"`
}

// Validate will run validation rules
func (r RegisterDoctorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.DOB, validation.Date("2006-01-02")),
		validation.Field(&r.Contact, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.LicenseNo, validation.Required, validation.Length(4, 50)),
		validation.Field(&r.Hospital, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Specialty, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Experience, validation.Min(0), validation.Max(80)),
	)
}

// RegisterPatientRequest payload
type RegisterPatientRequest struct {
	Name           string    `form:"name" json:"name"`
	Email          string    `form:"email" json:"email"`
	Password       string    `form:"password" json:"password"`
	DOB            string    `form:"dob" json:"dob"`
	Gender         string    `form:"gender" json:"gender"`
	Contact        string    `form:"contact" json:"contact"`
	Addresses      []Address `json:"addresses"`
	Dosha          string    `form:"ayurvedic_category" json:"ayurvedic_category"`
	CareMode       string    `form:"mode" json:"mode"`
	MedicalHistory []string  `json:"medical_history"`
	Diseases       []string  `json:"diseases"`
	Allergies      []string  `json:"allergies"`
	Height         *float64  `form:"height" json:"height"`
	Weight         *float64  `form:"weight" json:"weight"`
}

// Validate will run validation rules
func (r RegisterPatientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.DOB, validation.Date("2006-01-02")),
		validation.Field(&r.Contact, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Dosha, validation.In(string(DoshaVata), string(DoshaPitta), string(DoshaKapha))),
		validation.Field(&r.CareMode, validation.In(string(CareModeOnline), string(CareModeOffline))),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RefreshRequest payload; the token may also arrive in the cookie
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

func (a *AuthController) RegisterDoctor(ctx router.Context) error {
	payload := new(RegisterDoctorRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register doctor parse payload: %s", err)
		return a.ErrorHandler(ctx, NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register doctor validate payload: %s", err)
		return a.ErrorHandler(ctx, NewValidationError(
			"invalid registration payload",
			FormatValidationErrorToMap(err),
		))
	}

	msg := RegisterAccountMessage{
		Role:      RoleDoctor,
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		DOB:       parseDOB(payload.DOB),
		Gender:    Gender(payload.Gender),
		Contact:   payload.Contact,
		Addresses: payload.Addresses,
		Doctor: &DoctorExtension{
			LicenseNo:       payload.LicenseNo,
			Hospital:        payload.Hospital,
			Specialty:       payload.Specialty,
			Specializations: payload.Specializations,
			Bio:             payload.Bio,
			Experience:      payload.Experience,
		},
	}

	return a.register(ctx, msg)
}

func (a *AuthController) RegisterPatient(ctx router.Context) error {
	payload := new(RegisterPatientRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register patient parse payload: %s", err)
		return a.ErrorHandler(ctx, NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register patient validate payload: %s", err)
		return a.ErrorHandler(ctx, NewValidationError(
			"invalid registration payload",
			FormatValidationErrorToMap(err),
		))
	}

	msg := RegisterAccountMessage{
		Role:      RolePatient,
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		DOB:       parseDOB(payload.DOB),
		Gender:    Gender(payload.Gender),
		Contact:   payload.Contact,
		Addresses: payload.Addresses,
		Patient: &PatientExtension{
			Dosha:          Dosha(payload.Dosha),
			CareMode:       CareMode(payload.CareMode),
			MedicalHistory: payload.MedicalHistory,
			Diseases:       payload.Diseases,
			Allergies:      payload.Allergies,
			HeightCM:       payload.Height,
			WeightKG:       payload.Weight,
		},
	}

	return a.register(ctx, msg)
}

func (a *AuthController) register(ctx router.Context, msg RegisterAccountMessage) error {
	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(msg))
		fmt.Println("============================")
	}

	handler := NewRegisterAccountHandler(a.Accounts)
	account, err := handler.Execute(ctx.Context(), msg)
	if err != nil {
		a.Logger.Error("register account: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return JSONSuccess(ctx, http.StatusCreated, account.Sanitized(),
		fmt.Sprintf("%s registered successfully", msg.Role))
}

// LoginDoctor authenticates doctor credentials only
func (a *AuthController) LoginDoctor(ctx router.Context) error {
	return a.login(ctx, RoleDoctor)
}

// LoginPatient authenticates patient credentials only
func (a *AuthController) LoginPatient(ctx router.Context) error {
	return a.login(ctx, RolePatient)
}

// Login authenticates any role
func (a *AuthController) Login(ctx router.Context) error {
	return a.login(ctx, "")
}

func (a *AuthController) login(ctx router.Context, requiredRole Role) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(
			"invalid login payload",
			FormatValidationErrorToMap(err),
		))
	}

	pair, identity, err := a.Auther.Login(ctx, payload, requiredRole)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	// The refresh token travels only in its cookie, never the body.
	return JSONSuccess(ctx, http.StatusOK, map[string]any{
		"access_token": pair.AccessToken,
		"account": map[string]any{
			"id":    identity.ID(),
			"name":  identity.Name(),
			"email": identity.Email(),
			"role":  identity.Role(),
		},
	}, "login successful")
}

func (a *AuthController) RefreshToken(ctx router.Context) error {
	payload := new(RefreshRequest)

	// body is optional, the cookie carries the token for browser clients
	if err := ctx.Bind(payload); err != nil {
		payload.RefreshToken = ""
	}

	token := payload.RefreshToken
	if token == "" {
		token = a.Auther.RefreshTokenFromRequest(ctx)
	}

	if token == "" {
		return a.ErrorHandler(ctx, ErrRefreshRejected)
	}

	pair, err := a.Auther.Refresh(ctx, token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return JSONSuccess(ctx, http.StatusOK, map[string]any{
		"access_token": pair.AccessToken,
	}, "session refreshed")
}

func (a *AuthController) Logout(ctx router.Context) error {
	claims, err := GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Logout(ctx, claims.AccountID()); err != nil {
		a.Logger.Error("logout: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return JSONSuccess(ctx, http.StatusOK, nil, "logged out")
}

func (a *AuthController) Me(ctx router.Context) error {
	claims, err := GetRouterClaims(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	account, err := a.Accounts.GetSessionAccount(ctx.Context(), claims.AccountID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return JSONSuccess(ctx, http.StatusOK, account.Sanitized(), "")
}

// ValidatePhoneNumber accepts E.164 or regional numbers; empty passes,
// Required handles presence separately.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "IN")
	if err != nil {
		return fmt.Errorf("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for the error envelope.
func FormatValidationErrorToMap(err error) map[string]any {
	out := map[string]any{}
	if err == nil {
		return out
	}

	if verr, ok := err.(validation.Errors); ok {
		for field, ferr := range verr {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func parseDOB(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
