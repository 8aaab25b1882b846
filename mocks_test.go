package auth_test

import (
	"context"
	"sync"
	"time"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/stretchr/testify/mock"
)

const (
	testSigningKey = "test-signing-key-0123456789abcdef"
	testIssuer     = "test-issuer"
	testAudience   = "test-audience"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticIdentity implements auth.Identity for testing
type staticIdentity struct {
	id       string
	username string
	email    string
	roles    []string
}

func (s staticIdentity) ID() string       { return s.id }
func (s staticIdentity) Username() string { return s.username }
func (s staticIdentity) Email() string    { return s.email }
func (s staticIdentity) Roles() []string  { return append([]string(nil), s.roles...) }

func alice() staticIdentity {
	return staticIdentity{
		id:       "7",
		username: "alice",
		email:    "alice@example.com",
		roles:    []string{"User", "Manager"},
	}
}

// testConfig implements auth.Config for testing
type testConfig struct {
	signingKey  string
	issuer      string
	audience    []string
	ttl         time.Duration
	defaultRole string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey:  testSigningKey,
		issuer:      testIssuer,
		audience:    []string{testAudience},
		ttl:         auth.DefaultTokenTTL,
		defaultRole: auth.DefaultRoleName,
	}
}

func (c testConfig) GetSigningKey() string      { return c.signingKey }
func (c testConfig) GetSigningMethod() string   { return "HS256" }
func (c testConfig) GetContextKey() string      { return "user" }
func (c testConfig) GetTokenTTL() time.Duration { return c.ttl }
func (c testConfig) GetTokenLookup() string     { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string      { return "Bearer" }
func (c testConfig) GetIssuer() string          { return c.issuer }
func (c testConfig) GetAudience() []string      { return c.audience }
func (c testConfig) GetDefaultRole() string     { return c.defaultRole }

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (auth.Identity, error) {
	args := m.Called(ctx, username, password)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id int64) (auth.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// MockRegistrar implements auth.AccountRegistrar
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) RegisterUser(ctx context.Context, username, email, password string) (*auth.User, error) {
	args := m.Called(ctx, username, email, password)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// recordingSink captures activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
