package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimType names a single fact carried by a token.
type ClaimType string

const (
	ClaimSubject  ClaimType = "sub"
	ClaimUsername ClaimType = "username"
	ClaimEmail    ClaimType = "email"
	ClaimRole     ClaimType = "role"
)

// Claim is one typed fact embedded in a token.
type Claim struct {
	Type  ClaimType
	Value string
}

// ClaimSet is the ordered, duplicate free collection of claims for one token.
// It is built by BuildFullClaims or BuildScopedClaims and never mutated.
type ClaimSet struct {
	claims []Claim
}

// BuildFullClaims returns subject, username, email and one role claim per
// role assigned to identity.
func BuildFullClaims(identity Identity) ClaimSet {
	return newClaimSet(identity, identity.Roles())
}

// BuildScopedClaims returns the same identity claims as BuildFullClaims with
// role as the only role claim. Callers must check role belongs to identity;
// RoleScopeNegotiator does.
func BuildScopedClaims(identity Identity, role string) ClaimSet {
	return newClaimSet(identity, []string{role})
}

func newClaimSet(identity Identity, roles []string) ClaimSet {
	claims := make([]Claim, 0, 3+len(roles))
	claims = append(claims,
		Claim{Type: ClaimSubject, Value: identity.ID()},
		Claim{Type: ClaimUsername, Value: identity.Username()},
		Claim{Type: ClaimEmail, Value: identity.Email()},
	)

	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		claims = append(claims, Claim{Type: ClaimRole, Value: role})
	}

	return ClaimSet{claims: claims}
}

// Claims returns a copy of the claims in order.
func (c ClaimSet) Claims() []Claim {
	out := make([]Claim, len(c.claims))
	copy(out, c.claims)
	return out
}

func (c ClaimSet) Subject() string  { return c.first(ClaimSubject) }
func (c ClaimSet) Username() string { return c.first(ClaimUsername) }
func (c ClaimSet) Email() string    { return c.first(ClaimEmail) }

// Roles returns every role claim value in order.
func (c ClaimSet) Roles() []string {
	roles := []string{}
	for _, claim := range c.claims {
		if claim.Type == ClaimRole {
			roles = append(roles, claim.Value)
		}
	}
	return roles
}

func (c ClaimSet) first(t ClaimType) string {
	for _, claim := range c.claims {
		if claim.Type == t {
			return claim.Value
		}
	}
	return ""
}

// AuthClaims represents decoded token claims as seen by request handlers
type AuthClaims interface {
	Subject() string
	UserID() string
	Username() string
	Email() string
	RoleNames() []string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the token payload
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string           `json:"uid,omitempty"`
	UserName  string           `json:"username,omitempty"`
	UserEmail string           `json:"email,omitempty"`
	Roles     jwt.ClaimStrings `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

func newJWTClaims(set ClaimSet) *JWTClaims {
	roles := set.Roles()
	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: set.Subject(),
		},
		UID:       set.Subject(),
		UserName:  set.Username(),
		UserEmail: set.Email(),
		Roles:     jwt.ClaimStrings(roles),
	}
}

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// NumericUserID parses the subject into the integer identity id.
func (c *JWTClaims) NumericUserID() (int64, error) {
	return parseSubject(c.Subject())
}

func (c *JWTClaims) Username() string {
	return c.UserName
}

func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// RoleNames returns the role claims carried by the token
func (c *JWTClaims) RoleNames() []string {
	out := make([]string, len(c.Roles))
	copy(out, c.Roles)
	return out
}

// HasRole checks if the token carries the given role claim
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func parseSubject(subject string) (int64, error) {
	if subject == "" {
		return 0, ErrUnresolvableSubject
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUnresolvableSubject
	}
	return id, nil
}
