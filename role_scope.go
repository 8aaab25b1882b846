package auth

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ScopeState is a step of a single role selection.
type ScopeState string

const (
	ScopeAuthenticated ScopeState = "authenticated"
	ScopeEvaluating    ScopeState = "evaluating"
	ScopeScoped        ScopeState = "scoped"
	ScopeRejected      ScopeState = "rejected"
)

// ScopeDecision is the outcome of a role selection. Token is zero unless
// State is ScopeScoped. Roles always holds the full assigned set.
type ScopeDecision struct {
	State        ScopeState
	SelectedRole string
	Roles        []string
	Token        IssuedToken
}

// RoleScopeNegotiator narrows a multi role identity to a token carrying
// exactly one of its roles. It holds no per request state.
type RoleScopeNegotiator struct {
	tokens      TokenService
	logger      Logger
	transitions map[ScopeState]map[ScopeState]struct{}
}

// RoleScopeOption customizes a RoleScopeNegotiator
type RoleScopeOption func(*RoleScopeNegotiator)

// WithRoleScopeLogger overrides the negotiator logger
func WithRoleScopeLogger(logger Logger) RoleScopeOption {
	return func(n *RoleScopeNegotiator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewRoleScopeNegotiator(tokens TokenService, opts ...RoleScopeOption) *RoleScopeNegotiator {
	n := &RoleScopeNegotiator{
		tokens: tokens,
		logger: defLogger{},
		transitions: map[ScopeState]map[ScopeState]struct{}{
			ScopeAuthenticated: {
				ScopeEvaluating: {},
			},
			ScopeEvaluating: {
				ScopeScoped:   {},
				ScopeRejected: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	return n
}

// Negotiate checks selectedRole against the roles currently assigned to
// identity. Owned roles get a freshly issued token scoped to that role with
// the same TTL as login; anything else is rejected with ErrRoleNotOwned and
// no token is issued.
func (n *RoleScopeNegotiator) Negotiate(identity Identity, selectedRole string) (ScopeDecision, error) {
	decision := ScopeDecision{
		State:        ScopeAuthenticated,
		SelectedRole: selectedRole,
		Roles:        identity.Roles(),
	}

	if err := n.advance(&decision, ScopeEvaluating); err != nil {
		return decision, err
	}

	if !containsRole(decision.Roles, selectedRole) {
		if err := n.advance(&decision, ScopeRejected); err != nil {
			return decision, err
		}
		n.logger.Debug("role %q rejected for user %s", selectedRole, identity.ID())
		return decision, ErrRoleNotOwned.Clone().WithMetadata(map[string]any{
			"selected_role": selectedRole,
		})
	}

	token, err := n.tokens.Issue(BuildScopedClaims(identity, selectedRole))
	if err != nil {
		return decision, err
	}

	if err := n.advance(&decision, ScopeScoped); err != nil {
		return decision, err
	}
	decision.Token = token

	return decision, nil
}

func (n *RoleScopeNegotiator) advance(d *ScopeDecision, to ScopeState) error {
	if _, ok := n.transitions[d.State][to]; !ok {
		return goerrors.New(
			fmt.Sprintf("invalid role scope transition %s -> %s", d.State, to),
			goerrors.CategoryInternal,
		).WithCode(goerrors.CodeInternal)
	}
	d.State = to
	return nil
}

func containsRole(roles []string, role string) bool {
	if role == "" {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
