package ayurcare

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterAccountMessage carries everything needed to create an account.
// The role decides which extension is required; the other must be nil.
type RegisterAccountMessage struct {
	Role      Role              `json:"role"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Password  string            `json:"password"`
	DOB       *time.Time        `json:"dob,omitempty"`
	Gender    Gender            `json:"gender,omitempty"`
	Contact   string            `json:"contact,omitempty"`
	Addresses []Address         `json:"addresses,omitempty"`
	Doctor    *DoctorExtension  `json:"doctor,omitempty"`
	Patient   *PatientExtension `json:"patient,omitempty"`
	// UseHashid derives the account id from the email so repeated imports
	// of the same roster stay idempotent.
	UseHashid bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountHandler struct {
	store AccountStore
}

func NewRegisterAccountHandler(store AccountStore) *RegisterAccountHandler {
	return &RegisterAccountHandler{store: store}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	base := Account{
		Name:      event.Name,
		Email:     event.Email,
		DOB:       event.DOB,
		Gender:    event.Gender,
		Contact:   event.Contact,
		Addresses: event.Addresses,
	}

	var account *Account
	var err error

	switch event.Role {
	case RoleDoctor:
		if event.Doctor == nil {
			return nil, NewValidationError("doctor registration requires doctor details", nil)
		}
		account, err = NewDoctorAccount(base, *event.Doctor)
	case RolePatient:
		patient := PatientExtension{}
		if event.Patient != nil {
			patient = *event.Patient
		}
		account, err = NewPatientAccount(base, patient)
	default:
		return nil, NewValidationError("unknown account role", map[string]any{
			"role": event.Role,
		})
	}

	if err != nil {
		return nil, err
	}

	// Passwordless accounts are allowed; a doctor can admit a patient who
	// claims the account later.
	if event.Password != "" {
		hash, herr := HashPassword(event.Password)
		if herr != nil {
			var richErr *goerrors.Error
			if goerrors.As(herr, &richErr) {
				return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return nil, goerrors.Wrap(herr, goerrors.CategoryInternal, "failed to hash password")
		}
		account.PasswordHash = hash
	}

	if event.UseHashid {
		if id, herr := hashid.NewUUID(account.Email); herr == nil {
			account.ID = id
		}
	}

	created, err := h.store.Register(ctx, account)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration failed")
	}

	return created, nil
}
