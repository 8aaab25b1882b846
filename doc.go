// Package auth provides the authentication core of the leave app: account
// registration, password login, and role scoped token re-issuance.
//
// Tokens:
//   - Every token is an HS256 JWT that lives one hour. It carries the user id
//     as sub, username, email and one role entry per assigned role. Nothing is
//     stored server side, so a token stays valid until it expires.
//   - SelectRole issues a new token whose role claim holds only the selected
//     role. The caller must own that role; the check reads the store, not the
//     presented token.
//
// Credentials:
//   - Passwords are hashed with bcrypt. An unknown username and a wrong
//     password fail with the same ErrInvalidCredentials.
//
// Activity sinks:
//   - ActivitySink receives login, registration and role scoping events.
//     Sinks run best-effort (errors are logged) so audit forwarding never
//     changes the outcome of a request.
//
// HTTP:
//   - RegisterAuthRoutes mounts /auth/register, /auth/login, /auth/select-role,
//     /auth/current-user-id and /auth/roles on a go-router router. NewRouteGuard
//     builds the bearer middleware from middleware/jwtware.
package auth
