// Package memstore provides an in-memory vault tree. It backs tests and
// hosts that keep the credential store resident rather than in SQL.
package memstore
