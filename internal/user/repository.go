package user

// --- Redis Keys ---

const (
	// KnownTokensKey is a Redis Set holding every valid cookie token.
	// It is warmed from the database at startup and maintained on every
	// create/rewrite, so membership checks can replace a database lookup
	// on the hot path.
	KnownTokensKey = "user:known_tokens"
)
