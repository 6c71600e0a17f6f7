// Package names extracts player names from market titles and resolves them
// against a player directory.
//
// Parse tries these title shapes in order and returns the first that yields
// two valid names:
//
//	Will X win the A vs B match?
//	Will X win?            (A vs B taken from the subtitle, then the title)
//	United Cup A vs B: Group F
//	A vs B / A v B
//	A to win against B
//
// Resolver maps free text to a canonical directory name through exact,
// last-name and fuzzy passes, and rejects any result whose last name does
// not agree with the input.
package names
