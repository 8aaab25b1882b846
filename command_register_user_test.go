package auth_test

import (
	"context"
	"strings"
	"testing"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandler_Execute(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	user, err := stack.register.Execute(ctx, auth.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, []string{"User"}, user.RoleNames())
	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"))

	stored, err := stack.repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, []string{"User"}, stored.RoleNames())
	assert.NoError(t, fastHasher.ComparePasswordAndHash("pw123456", stored.PasswordHash))
}

func TestRegisterUserHandler_Conflicts(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	_, err := stack.register.RegisterUser(ctx, "alice", "alice@example.com", "pw123456")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{name: "same username", username: "alice", email: "new@example.com"},
		{name: "same email", username: "alice2", email: "alice@example.com"},
		{name: "both", username: "alice", email: "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stack.register.RegisterUser(ctx, tt.username, tt.email, "pw123456")
			assert.Equal(t, auth.ErrIdentityConflict, err)
		})
	}

	var count int
	require.NoError(t, stack.db.NewSelect().Model((*auth.User)(nil)).ColumnExpr("COUNT(*)").Scan(ctx, &count))
	assert.Equal(t, 1, count)
}

func TestRegisterUserHandler_Validation(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	tests := []struct {
		name  string
		msg   auth.RegisterUserMessage
		field string
	}{
		{name: "short username", msg: auth.RegisterUserMessage{Username: "al", Email: "al@example.com", Password: "pw123456"}, field: "username"},
		{name: "bad email", msg: auth.RegisterUserMessage{Username: "alice", Email: "not-an-email", Password: "pw123456"}, field: "email"},
		{name: "short password", msg: auth.RegisterUserMessage{Username: "alice", Email: "alice@example.com", Password: "pw1"}, field: "password"},
		{name: "missing password", msg: auth.RegisterUserMessage{Username: "alice", Email: "alice@example.com"}, field: "password"},
		{name: "long username", msg: auth.RegisterUserMessage{Username: strings.Repeat("a", 101), Email: "alice@example.com", Password: "pw123456"}, field: "username"},
		{name: "password over bcrypt limit", msg: auth.RegisterUserMessage{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("a", 80)}, field: "password"},
		{name: "multi byte password over bcrypt limit", msg: auth.RegisterUserMessage{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("é", 50)}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stack.register.Execute(ctx, tt.msg)
			require.True(t, auth.HasTextCode(err, auth.TextCodeValidation), "got %v", err)

			richErr := auth.AsRichError(err)
			fields, ok := richErr.Metadata["fields"].(map[string]string)
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestRegisterUserHandler_PasswordAtBcryptLimit(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	password := strings.Repeat("é", 36)
	require.Len(t, password, auth.PasswordMaxBytes)

	user, err := stack.register.RegisterUser(ctx, "alice", "alice@example.com", password)
	require.NoError(t, err)

	_, err = stack.provider.VerifyIdentity(ctx, user.Username, password)
	assert.NoError(t, err)
}

func TestRegisterUserHandler_MissingDefaultRole(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	handler := auth.NewRegisterUserHandler(stack.repo,
		auth.WithRegisterHasher(fastHasher),
		auth.WithRegisterLogger(nopLogger{}),
		auth.WithRegisterDefaultRole("Employee"),
	)

	_, err := handler.RegisterUser(ctx, "alice", "alice@example.com", "pw123456")
	assert.Equal(t, auth.ErrMissingDefaultRole, err)

	taken, err := stack.repo.Users().ExistsByUsernameOrEmail(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.False(t, taken, "failed registration must not leave a user behind")
}

func TestRegisterUserHandler_CancelledContext(t *testing.T) {
	stack := newTestStack(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stack.register.RegisterUser(ctx, "alice", "alice@example.com", "pw123456")
	assert.ErrorIs(t, err, context.Canceled)
}
