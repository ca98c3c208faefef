package auth

import "crypto/subtle"

// Authorizer resolves static bearer tokens to user IDs. Authentication
// proper (accounts, sessions) lives outside this service; tokens are the
// contract it consumes.
type Authorizer struct {
	tokens map[string]string
}

func NewAuthorizer(tokens map[string]string) *Authorizer {
	m := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		m[token] = userID
	}
	return &Authorizer{tokens: m}
}

// ResolveToken returns the user ID for a bearer token, or false when the
// token is unknown. Comparison is constant-time per candidate.
func (a *Authorizer) ResolveToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	for candidate, userID := range a.tokens {
		if len(candidate) == len(token) &&
			subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			return userID, true
		}
	}
	return "", false
}
