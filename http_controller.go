package auth

import (
	"context"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-router"
)

// HTTPAuthenticator is what the controller needs from Auther
type HTTPAuthenticator interface {
	Login(ctx context.Context, username, password string) (*TokenBundle, error)
	Register(ctx context.Context, username, email, password string) (*User, error)
	SelectRole(ctx context.Context, claims AuthClaims, selectedRole string) (*TokenBundle, error)
	CurrentUserID(claims AuthClaims) (int64, error)
	Roles(ctx context.Context, claims AuthClaims) ([]string, error)
}

var _ HTTPAuthenticator = (*Auther)(nil)

type AuthControllerRoutes struct {
	Register      string
	Login         string
	SelectRole    string
	CurrentUserID string
	Roles         string
}

type AuthController struct {
	Logger       Logger
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ContextKey   string
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerAuther(a HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerErrorHandler replaces the handler that renders failed requests.
func WithControllerErrorHandler(h router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if h != nil {
			c.ErrorHandler = h
		}
		return c
	}
}

// WithControllerContextKey sets the Locals key the route guard stores claims under.
func WithControllerContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Register:      "/auth/register",
			Login:         "/auth/login",
			SelectRole:    "/auth/select-role",
			CurrentUserID: "/auth/current-user-id",
			Roles:         "/auth/roles",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = NewErrorHandler(c.Logger)
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints. guard must be the bearer
// token middleware; it protects select-role and the read endpoints.
func RegisterAuthRoutes[T any](app router.Router[T], guard router.MiddlewareFunc, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.SelectRole, controller.SelectRolePost, guard).
		SetName("auth.select-role")
	app.Get(controller.Routes.CurrentUserID, controller.CurrentUserIDGet, guard).
		SetName("auth.current-user-id")
	app.Get(controller.Routes.Roles, controller.RolesGet, guard).
		SetName("auth.roles")

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Password, passwordRules()...),
	)
}

// SelectRoleRequest payload
type SelectRoleRequest struct {
	SelectedRole string `json:"selectedRole"`
}

func (r SelectRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SelectedRole, validation.Required),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.TrimSpace(payload.Email)

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(err))
	}

	user, err := a.Auther.Register(ctx.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, Response{
		Message: "User registered successfully",
		Success: true,
		Data:    map[string]any{"userId": user.ID},
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload.Username = strings.TrimSpace(payload.Username)

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(err))
	}

	bundle, err := a.Auther.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, Response{
		Message: "Login successful",
		Success: true,
		Data:    bundle,
	})
}

func (a *AuthController) SelectRolePost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnresolvableSubject)
	}

	payload := new(SelectRoleRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(err))
	}

	bundle, err := a.Auther.SelectRole(ctx.Context(), claims, payload.SelectedRole)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, Response{
		Message: "Role '" + payload.SelectedRole + "' selected",
		Success: true,
		Data:    bundle,
	})
}

// CurrentUserIDGet answers with the bare integer id.
func (a *AuthController) CurrentUserIDGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnresolvableSubject)
	}

	id, err := a.Auther.CurrentUserID(claims)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, id)
}

// RolesGet answers with the bare array of role names.
func (a *AuthController) RolesGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnresolvableSubject)
	}

	roles, err := a.Auther.Roles(ctx.Context(), claims)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, roles)
}

func (a *AuthController) bind(ctx router.Context, payload any) error {
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("failed to parse request body: %v", err)
		return ErrValidation.Clone().WithMetadata(map[string]any{
			"fields": map[string]string{"body": "could not parse request body"},
		})
	}

	return nil
}
