package auth

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
)

// UserFinder is the part of the identity store the provider reads from
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// UserProvider handles users
type UserProvider struct {
	store  UserFinder
	hasher PasswordAuthenticator
	logger Logger

	decoyOnce sync.Once
	decoyHash string
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	return &UserProvider{
		store:  store,
		hasher: BcryptHasher{},
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

func (u *UserProvider) WithHasher(h PasswordAuthenticator) *UserProvider {
	if h != nil {
		u.hasher = h
	}
	return u
}

// VerifyIdentity will find the user, compare to the password, and return identity.
// An unknown username and a wrong password both return ErrInvalidCredentials.
func (u *UserProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	user, err := u.store.GetByUsername(ctx, username)
	if err != nil {
		if IsRecordNotFound(err) || errors.IsNotFound(err) {
			// burn a compare so unknown users take as long as wrong passwords
			_ = u.hasher.ComparePasswordAndHash(password, u.decoy())
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByID re-reads the identity and its current roles.
func (u *UserProvider) FindIdentityByID(ctx context.Context, id int64) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) || errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
	}

	return NewIdentityFromUser(user), nil
}

func (u *UserProvider) decoy() string {
	u.decoyOnce.Do(func() {
		hash, err := u.hasher.HashPassword("decoy-password-never-matches")
		if err != nil {
			u.logger.Warn("failed to build decoy hash: %v", err)
			return
		}
		u.decoyHash = hash
	})
	return u.decoyHash
}
