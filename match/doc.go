// Package match implements the URL compatibility and ranking rules used to
// decide which stored logins may be offered for a requested page. All
// functions are pure; callers own normalization of persistence concerns.
package match
