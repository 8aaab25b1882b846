package auth

import (
	"context"

	"github.com/uptrace/bun"
)

// Users is the identity store. Every method has a Tx variant that runs on
// the given bun.IDB so it can join a RunInTx block.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)

	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ExistsByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (bool, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	AssignRole(ctx context.Context, userID, roleID int64) error
	AssignRoleTx(ctx context.Context, tx bun.IDB, userID, roleID int64) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

// GetByIDTx loads the user with its roles.
func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Roles", orderRolesByID).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapQueryError(err, map[string]any{"id": id})
	}
	return record, nil
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

// GetByUsernameTx matches username exactly and loads the user's roles.
func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Roles", orderRolesByID).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapQueryError(err, map[string]any{"username": username})
	}
	return record, nil
}

func (a *users) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return a.ExistsByUsernameOrEmailTx(ctx, a.db, username, email)
}

func (a *users) ExistsByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		WhereOr("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx inserts record and fills in its generated id. A unique
// violation on username or email is reported as ErrIdentityConflict.
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	_, err := tx.NewInsert().
		Model(record).
		Column("username", "email", "password_hash").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrIdentityConflict.Clone().WithMetadata(map[string]any{
				"username": record.Username,
			})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) AssignRole(ctx context.Context, userID, roleID int64) error {
	return a.AssignRoleTx(ctx, a.db, userID, roleID)
}

func (a *users) AssignRoleTx(ctx context.Context, tx bun.IDB, userID, roleID int64) error {
	_, err := tx.NewInsert().
		Model(&UserRole{UserID: userID, RoleID: roleID}).
		Exec(ctx)
	return err
}

func orderRolesByID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("role.id ASC")
}
