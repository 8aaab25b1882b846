package auth

import (
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Username      string    `bun:"username,notnull,unique" json:"username"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	Roles         []*Role   `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
}

// RoleNames returns the names of the loaded roles ordered by role id.
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return []string{}
	}

	roles := make([]*Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			roles = append(roles, r)
		}
	}
	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].ID < roles[j].ID
	})

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

// Role is a named permission group. The auth core only references roles.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:role"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Name          string `bun:"name,notnull,unique" json:"name"`
}

// UserRole is the join model between users and roles
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`
	UserID        int64 `bun:"user_id,pk"`
	User          *User `bun:"rel:belongs-to,join:user_id=id"`
	RoleID        int64 `bun:"role_id,pk"`
	Role          *Role `bun:"rel:belongs-to,join:role_id=id"`
}
