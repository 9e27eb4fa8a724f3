package domain

// TokenKind differentiates the two credentials a caller may hold.
type TokenKind string

const (
	// TokenKindSession is the primary bearer credential obtained at login.
	TokenKindSession TokenKind = "session"
	// TokenKindElevated is the short-lived credential proving fresh
	// password re-entry, required for sensitive admin mutations.
	TokenKindElevated TokenKind = "elevated"
)
