package auth_test

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/goliatone/go-leave-auth/migrations"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

var fastHasher = auth.BcryptHasher{Cost: bcrypt.MinCost}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, migrations.Up(context.Background(), sqldb, migrations.DialectSQLite))

	return db
}

type testStack struct {
	db       *bun.DB
	repo     auth.RepositoryManager
	register *auth.RegisterUserHandler
	provider *auth.UserProvider
	auther   *auth.Auther
	sink     *recordingSink
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db := newTestDB(t)
	repo := auth.NewRepositoryManager(db)
	register := auth.NewRegisterUserHandler(repo,
		auth.WithRegisterHasher(fastHasher),
		auth.WithRegisterLogger(nopLogger{}),
	)
	provider := auth.NewUserProvider(repo.Users()).
		WithHasher(fastHasher).
		WithLogger(nopLogger{})

	sink := &recordingSink{}
	auther := auth.NewAuthenticator(provider, newTestConfig()).
		WithLogger(nopLogger{}).
		WithRegistrar(register).
		WithActivitySink(sink)

	return &testStack{
		db:       db,
		repo:     repo,
		register: register,
		provider: provider,
		auther:   auther,
		sink:     sink,
	}
}

// grantRole assigns an extra catalog role, the way an administrator would.
func (s *testStack) grantRole(t *testing.T, userID int64, roleName string) {
	t.Helper()
	ctx := context.Background()

	role, err := s.repo.Roles().GetByName(ctx, roleName)
	require.NoError(t, err)
	require.NoError(t, s.repo.Users().AssignRole(ctx, userID, role.ID))
}

func (s *testStack) revokeRole(t *testing.T, userID int64, roleName string) {
	t.Helper()
	ctx := context.Background()

	role, err := s.repo.Roles().GetByName(ctx, roleName)
	require.NoError(t, err)
	_, err = s.db.NewDelete().
		Model((*auth.UserRole)(nil)).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Exec(ctx)
	require.NoError(t, err)
}
