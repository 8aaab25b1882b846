package auth

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-leave-auth"

// Auther is the entry point for register, login and role selection.
// It keeps no per request state and is safe for concurrent use.
type Auther struct {
	provider     IdentityProvider
	registrar    AccountRegistrar
	logger       Logger
	tokenService TokenService
	negotiator   *RoleScopeNegotiator
	activitySink ActivitySink
	tracer       trace.Tracer
	now          func() time.Time
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenServiceFromConfig(opts, defLogger{})

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
		negotiator:   NewRoleScopeNegotiator(tokenService),
		activitySink: noopActivitySink{},
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.negotiator = NewRoleScopeNegotiator(s.tokenService, WithRoleScopeLogger(logger))
	return s
}

// WithRegistrar sets the component that persists new accounts.
func (s *Auther) WithRegistrar(registrar AccountRegistrar) *Auther {
	s.registrar = registrar
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService replaces the token service used for login and role selection.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts == nil {
		return s
	}
	s.tokenService = ts
	s.negotiator = NewRoleScopeNegotiator(ts, WithRoleScopeLogger(s.logger))
	return s
}

// WithTracer overrides the global otel tracer.
func (s *Auther) WithTracer(tracer trace.Tracer) *Auther {
	if tracer != nil {
		s.tracer = tracer
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and issues a token carrying every role assigned
// to the identity. Empty credentials fail without touching the store.
func (s *Auther) Login(ctx context.Context, username, password string) (bundle *TokenBundle, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(username) == "" || password == "" {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", username, "", map[string]any{
			"error": ErrInvalidCredentials.Error(),
		})
		return nil, ErrInvalidCredentials
	}

	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		s.logger.Info("login rejected for %q: %v", username, err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", username, "", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", username, "", map[string]any{
			"error": ErrInvalidCredentials.Error(),
		})
		return nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("auth.user_id", identity.ID()))

	issued, err := s.tokenService.Issue(BuildFullClaims(identity))
	if err != nil {
		s.logger.Error("login token issue failed: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, identity.ID(), username, "", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	bundle, err = newTokenBundle(identity, issued, identity.Roles())
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, identity.ID(), username, "", nil)

	return bundle, nil
}

// Register creates an account holding only the default role and returns it.
func (s *Auther) Register(ctx context.Context, username, email, password string) (user *User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer func() { endSpan(span, err) }()

	if s.registrar == nil {
		s.logger.Error("register called without a registrar")
		return nil, ErrInvalidConfig
	}

	user, err = s.registrar.RegisterUser(ctx, username, email, password)
	if err != nil {
		s.logger.Info("registration rejected for %q: %v", username, err)
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", username, "", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	userID := strconv.FormatInt(user.ID, 10)
	span.SetAttributes(attribute.String("auth.user_id", userID))
	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, userID, user.Username, "", nil)

	return user, nil
}

// SelectRole re-reads the caller's roles and issues a token scoped to
// selectedRole. The bundle still reports every assigned role.
func (s *Auther) SelectRole(ctx context.Context, claims AuthClaims, selectedRole string) (bundle *TokenBundle, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.select_role")
	defer func() { endSpan(span, err) }()

	span.SetAttributes(attribute.String("auth.selected_role", selectedRole))

	id, err := s.CurrentUserID(claims)
	if err != nil {
		return nil, err
	}

	identity, err := s.provider.FindIdentityByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			s.logger.Warn("select role for vanished user %d", id)
			return nil, ErrUnresolvableSubject
		}
		return nil, err
	}

	decision, err := s.negotiator.Negotiate(identity, selectedRole)
	if err != nil {
		if decision.State == ScopeRejected {
			s.emitAuthEvent(ctx, ActivityEventRoleScopeRejected, identity.ID(), identity.Username(), selectedRole, nil)
		}
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRoleScoped, identity.ID(), identity.Username(), selectedRole, nil)

	return newTokenBundle(identity, decision.Token, decision.Roles)
}

// CurrentUserID returns the integer id carried in the token subject.
func (s *Auther) CurrentUserID(claims AuthClaims) (int64, error) {
	if claims == nil || reflect.ValueOf(claims).IsZero() {
		return 0, ErrUnresolvableSubject
	}
	return parseSubject(claims.Subject())
}

// Roles returns the roles currently assigned to the token subject, read
// from the store rather than from the token.
func (s *Auther) Roles(ctx context.Context, claims AuthClaims) ([]string, error) {
	id, err := s.CurrentUserID(claims)
	if err != nil {
		return nil, err
	}

	identity, err := s.provider.FindIdentityByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return identity.Roles(), nil
}

// SessionFromToken validates raw and returns its claims
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed: %v", err)
		return nil, err
	}
	return claims, nil
}

func newTokenBundle(identity Identity, issued IssuedToken, roles []string) (*TokenBundle, error) {
	id, err := parseSubject(identity.ID())
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	return &TokenBundle{
		Token:      issued.Token,
		Expiration: issued.ExpiresAt,
		Username:   identity.Username(),
		UserID:     id,
		Email:      identity.Email(),
		Roles:      roles,
	}, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID, username, role string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Username:   username,
		Role:       role,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
