package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-leave-auth/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Response is the JSON envelope used by every auth endpoint that returns a message.
type Response struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

// NewErrorHandler returns an error handler that renders any error as a
// Response with the status carried by the rich error code. Unknown errors
// become 500 with a generic message.
func NewErrorHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c router.Context, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.JSON(fiberErr.Code, Response{
				Message: fiberErr.Message,
				Success: false,
			})
		}

		richErr := AsRichError(err)
		status := richErr.Code
		if status < 400 || status > 599 {
			status = router.StatusInternalServerError
		}

		resp := Response{
			Message: richErr.Message,
			Success: false,
		}

		if status >= router.StatusInternalServerError {
			logger.Error("request %s %s failed: %v", c.Method(), c.Path(), err)
			resp.Message = "An unexpected server error occurred"
		} else {
			logger.Debug("request %s %s rejected: %s %s", c.Method(), c.Path(), richErr.TextCode, print.MaybePrettyJSON(richErr.Metadata))
			if fields, ok := richErr.Metadata["fields"]; ok {
				resp.Data = map[string]any{"errors": fields}
			}
		}

		return c.JSON(status, resp)
	}
}

// AsRichError returns err as a rich error, wrapping anything else as internal.
func AsRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.Code == 0 {
			richErr = richErr.Clone()
			richErr.Code = codeForCategory(richErr)
		}
		return richErr
	}
	return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
		WithCode(errors.CodeInternal)
}

func codeForCategory(richErr *errors.Error) int {
	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return errors.CodeBadRequest
	case errors.CategoryAuth:
		return errors.CodeUnauthorized
	case errors.CategoryAuthz:
		return errors.CodeForbidden
	case errors.CategoryNotFound:
		return errors.CodeNotFound
	case errors.CategoryConflict:
		return errors.CodeConflict
	default:
		return errors.CodeInternal
	}
}

// RouteGuardOption customizes the jwtware config built by NewRouteGuard
type RouteGuardOption func(*jwtware.Config)

// WithRequiredRole only lets tokens carrying role through.
func WithRequiredRole(role string) RouteGuardOption {
	return func(cfg *jwtware.Config) {
		cfg.RequiredRole = role
	}
}

// WithValidationListeners appends listeners run after token validation.
func WithValidationListeners(listeners ...ValidationListener) RouteGuardOption {
	return func(cfg *jwtware.Config) {
		RegisterValidationListeners(cfg, listeners...)
	}
}

// NewRouteGuard builds the bearer token middleware for protected routes.
// Failures are rendered through errHandler so they share the Response envelope.
func NewRouteGuard(cfg Config, validator TokenValidator, errHandler router.ErrorHandler, opts ...RouteGuardOption) router.MiddlewareFunc {
	if errHandler == nil {
		errHandler = NewErrorHandler(nil)
	}

	jcfg := jwtware.Config{
		TokenValidator: jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
			claims, err := validator.Validate(raw)
			if err != nil {
				return nil, err
			}
			return claims, nil
		}),
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		AuthScheme:      cfg.GetAuthScheme(),
		ContextEnricher: ContextEnricherAdapter,
		ErrorHandler:    errHandler,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&jcfg)
		}
	}

	return jwtware.New(jcfg)
}
