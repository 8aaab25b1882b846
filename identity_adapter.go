package auth

import "strconv"

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
// The user's Roles relation must be loaded.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the decimal form of the user id
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return strconv.FormatInt(u.user.ID, 10)
}

func (u UserIdentity) Username() string {
	if u.user == nil {
		return ""
	}
	return u.user.Username
}

func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Roles returns the assigned role names ordered by role id.
func (u UserIdentity) Roles() []string {
	return u.user.RoleNames()
}

// User exposes the wrapped record.
func (u UserIdentity) User() *User {
	return u.user
}
