// Package session owns the client's identity lifecycle against Haven.
//
// # State machine
//
// A Controller moves through Bootstrapping into one of three steady states:
//
//   - OpenAccess: login not required; Role is always empty.
//   - Authenticated: login required and a server-confirmed session exists;
//     Role is admin or visitor.
//   - Unauthenticated: login required, no valid session; the UI shows the
//     login screen.
//
// # Startup probe
//
// Bootstrap first asks /api/auth/config whether login is required. The
// locally cached role is only ever a hint for this phase; the probed answer
// wins, and open-access deployments aggressively clear any stale cached
// role. When probes fail with anything other than an auth-class error the
// controller refuses to raise a login wall it cannot verify: it surfaces
// the error and leaves the app browsable.
//
// During bootstrap an auth-class probe failure (401 or 403) forces the
// login wall directly, while steady-state 403s on reads go through the
// transport's invalidation observer instead. The two policies are separate
// on purpose.
//
// # Logins
//
// Login operations branch on the classified verification outcome: a
// RATE_LIMIT failure keeps its wait-time countdown, any other failure is
// treated as bad credentials. Logout always clears local identity, even
// when the remote call fails.
package session
