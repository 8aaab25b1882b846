package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesRepository(t *testing.T) {
	ctx := context.Background()
	repo := auth.NewRepositoryManager(newTestDB(t))
	require.NoError(t, repo.Validate())

	roles, err := repo.Roles().List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "User", roles[0].Name)
	assert.Equal(t, "Manager", roles[1].Name)
	assert.Equal(t, "Admin", roles[2].Name)

	role, err := repo.Roles().GetByName(ctx, "Manager")
	require.NoError(t, err)
	assert.Equal(t, roles[1].ID, role.ID)

	_, err = repo.Roles().GetByName(ctx, "Ghost")
	assert.True(t, auth.IsRecordNotFound(err))
	assert.True(t, auth.IsNotFound(err))
}

func TestUsersRepository(t *testing.T) {
	ctx := context.Background()
	repo := auth.NewRepositoryManager(newTestDB(t))

	user, err := repo.Users().Create(ctx, &auth.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	t.Run("lookup without roles", func(t *testing.T) {
		found, err := repo.Users().GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, []string{}, found.RoleNames())
	})

	t.Run("roles load ordered by id", func(t *testing.T) {
		admin, err := repo.Roles().GetByName(ctx, "Admin")
		require.NoError(t, err)
		member, err := repo.Roles().GetByName(ctx, "User")
		require.NoError(t, err)

		require.NoError(t, repo.Users().AssignRole(ctx, user.ID, admin.ID))
		require.NoError(t, repo.Users().AssignRole(ctx, user.ID, member.ID))

		found, err := repo.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"User", "Admin"}, found.RoleNames())
	})

	t.Run("username match is exact", func(t *testing.T) {
		_, err := repo.Users().GetByUsername(ctx, "ALICE")
		assert.True(t, auth.IsRecordNotFound(err))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.Users().GetByID(ctx, 4242)
		assert.True(t, auth.IsRecordNotFound(err))
	})

	t.Run("exists checks username or email", func(t *testing.T) {
		taken, err := repo.Users().ExistsByUsernameOrEmail(ctx, "alice", "other@example.com")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.Users().ExistsByUsernameOrEmail(ctx, "other", "alice@example.com")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.Users().ExistsByUsernameOrEmail(ctx, "other", "other@example.com")
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		_, err := repo.Users().Create(ctx, &auth.User{
			Username:     "alice",
			Email:        "second@example.com",
			PasswordHash: "hash",
		})
		assert.True(t, auth.HasTextCode(err, auth.TextCodeIdentityConflict))
	})
}

func TestRepositoryManager_RunInTxCancelled(t *testing.T) {
	repo := auth.NewRepositoryManager(newTestDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.RunInTx(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
