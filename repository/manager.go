package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repobun "github.com/goliatone/go-repository-bun"
	"github.com/svasthya/ayurcare/clinic"
	"github.com/uptrace/bun"
)

// Manager exposes all repositories
type Manager interface {
	repobun.Validator
	repobun.TransactionManager
	Accounts() Accounts
	DietPlans() clinic.DietPlanStore
}

type mngr struct {
	db        *bun.DB
	accounts  Accounts
	dietPlans clinic.DietPlanStore
}

func NewManager(db *bun.DB) Manager {
	return &mngr{
		db:        db,
		accounts:  NewAccountsRepository(db),
		dietPlans: NewDietPlansRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.dietPlans == nil {
		return errors.New("repository dietPlans should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) DietPlans() clinic.DietPlanStore {
	return m.dietPlans
}
