package auth_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserFinder) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func TestUserProvider_VerifyIdentity(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	user, err := stack.register.RegisterUser(ctx, "alice", "alice@example.com", "pw123456")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		identity, err := stack.provider.VerifyIdentity(ctx, "alice", "pw123456")
		require.NoError(t, err)

		assert.Equal(t, auth.NewIdentityFromUser(user).ID(), identity.ID())
		assert.Equal(t, "alice", identity.Username())
		assert.Equal(t, "alice@example.com", identity.Email())
		assert.Equal(t, []string{"User"}, identity.Roles())
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		_, errWrong := stack.provider.VerifyIdentity(ctx, "alice", "nope-nope")
		_, errUnknown := stack.provider.VerifyIdentity(ctx, "bob", "pw123456")

		assert.Equal(t, auth.ErrInvalidCredentials, errWrong)
		assert.Equal(t, auth.ErrInvalidCredentials, errUnknown)
	})
}

func TestUserProvider_FindIdentityByID(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	user, err := stack.register.RegisterUser(ctx, "alice", "alice@example.com", "pw123456")
	require.NoError(t, err)
	stack.grantRole(t, user.ID, "Manager")

	identity, err := stack.provider.FindIdentityByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Manager"}, identity.Roles())

	_, err = stack.provider.FindIdentityByID(ctx, user.ID+100)
	assert.Equal(t, auth.ErrIdentityNotFound, err)
}

func TestUserProvider_StoreErrors(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")

	finder := &MockUserFinder{}
	finder.On("GetByUsername", mock.Anything, "alice").Return(nil, storeErr)
	finder.On("GetByID", mock.Anything, int64(1)).Return(nil, storeErr)

	provider := auth.NewUserProvider(finder).WithHasher(fastHasher).WithLogger(nopLogger{})

	_, err := provider.VerifyIdentity(ctx, "alice", "pw123456")
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, auth.HasTextCode(err, auth.TextCodeInvalidCreds))

	_, err = provider.FindIdentityByID(ctx, 1)
	assert.ErrorIs(t, err, storeErr)
}
