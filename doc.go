// Package auth provides the credential flows of the CFPNC platform: login by
// national ID card number (numcin), forgot password, registration and
// password update, served over fiber and persisted with bun.
//
// Claims:
//   - A login token carries the principal's numcin, its role names and the
//     deduplicated union of every permission reachable through those roles.
//     DeriveClaims builds that bundle from a user loaded with its roles and
//     their permissions.
//
// Errors:
//   - Every flow failure is a go-errors *Error with the HTTP status in Code.
//     Handlers return errors and NewErrorHandler renders them, hiding the
//     message of 5xx responses.
//
// Password update scope:
//   - With PasswordUpdateAll the new hash is written to every principal that
//     has a numcin, which is how the legacy API behaved. PasswordUpdateSelf
//     requires a login token and only updates its principal.
//
// Activity sinks:
//   - ActivitySink receives login, forgot password, registration and password
//     update events. Sinks run best-effort, errors are logged.
package auth
