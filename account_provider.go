package ayurcare

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccountProvider resolves identities against the account store
type AccountProvider struct {
	store  AccountStore
	logger Logger
}

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store AccountStore) *AccountProvider {
	return &AccountProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity will find the account by email, compare the password, and
// return the identity. Unknown accounts and wrong secrets collapse into the
// same failure; a missing hash is its own failure; nothing is retried.
func (p AccountProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	account, err := p.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) || errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if account == nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if account.PasswordHash == "" {
		return nil, ErrNoUsableCredential
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, err
	}

	return identityFromAccount(account), nil
}

// FindIdentityByID resolves a live account for a verified token id. The
// projection excludes the password hash and refresh token.
func (p AccountProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	account, err := p.store.GetSessionAccount(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}

	return identityFromAccount(account), nil
}

type accountIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func (a accountIdentity) ID() string {
	return a.id
}

func (a accountIdentity) Name() string {
	return a.name
}

func (a accountIdentity) Email() string {
	return a.email
}

func (a accountIdentity) Role() string {
	return a.role
}

var _ Identity = accountIdentity{}

func identityFromAccount(account *Account) accountIdentity {
	return accountIdentity{
		id:    account.ID.String(),
		name:  account.Name,
		email: account.Email,
		role:  string(account.Role),
	}
}
