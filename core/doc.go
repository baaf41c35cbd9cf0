// Package core contains the canonical broker domain contracts and the
// orchestration logic that decides which stored logins may be disclosed for a
// web origin. Lower-level adapters (stores, transports, CQRS surfaces) depend
// on this package; core must not depend on them.
package core
