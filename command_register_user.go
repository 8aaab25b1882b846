package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a self registration request
type RegisterUserMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate applies the account field rules.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, usernameRules()...),
		validation.Field(&e.Email, emailRules()...),
		validation.Field(&e.Password, passwordRules()...),
	)
}

// RegisterUserHandler creates an account holding only the default role.
type RegisterUserHandler struct {
	repo        RepositoryManager
	hasher      PasswordAuthenticator
	defaultRole string
	timeout     time.Duration
	logger      Logger
}

// RegisterUserOption customizes the handler
type RegisterUserOption func(*RegisterUserHandler)

func WithRegisterDefaultRole(role string) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if role = strings.TrimSpace(role); role != "" {
			h.defaultRole = role
		}
	}
}

func WithRegisterHasher(hasher PasswordAuthenticator) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if hasher != nil {
			h.hasher = hasher
		}
	}
}

func WithRegisterLogger(logger Logger) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewRegisterUserHandler(repo RepositoryManager, opts ...RegisterUserOption) *RegisterUserHandler {
	h := &RegisterUserHandler{
		repo:        repo,
		hasher:      BcryptHasher{},
		defaultRole: DefaultRoleName,
		timeout:     10 * time.Second,
		logger:      defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// RegisterUser implements AccountRegistrar
func (h *RegisterUserHandler) RegisterUser(ctx context.Context, username, email, password string) (*User, error) {
	return h.Execute(ctx, RegisterUserMessage{
		Username: username,
		Email:    email,
		Password: password,
	})
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	event.Username = strings.TrimSpace(event.Username)
	event.Email = strings.TrimSpace(event.Email)

	if err := event.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	user := &User{
		Username:     event.Username,
		Email:        event.Email,
		PasswordHash: hash,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().ExistsByUsernameOrEmailTx(ctx, tx, user.Username, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrIdentityConflict
		}

		role, err := h.repo.Roles().GetByNameTx(ctx, tx, h.defaultRole)
		if err != nil {
			if IsRecordNotFound(err) {
				h.logger.Error("default role %q missing from role catalog", h.defaultRole)
				return ErrMissingDefaultRole
			}
			return err
		}

		if _, err := h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		if err := h.repo.Users().AssignRoleTx(ctx, tx, user.ID, role.ID); err != nil {
			return err
		}

		user.Roles = []*Role{role}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}
