package auth

import "errors"

var (
	ErrNotConfigured = errors.New("no token verifier configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Identity is the caller a token resolved to.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Authenticator tries the JWKS verifier, then the HMAC secret. Either may
// be absent; with neither every token is rejected.
type Authenticator struct {
	verifier TokenVerifier
	secret   string
}

func NewAuthenticator(verifier TokenVerifier, secret string) *Authenticator {
	return &Authenticator{verifier: verifier, secret: secret}
}

// Configured reports whether any token can be accepted.
func (a *Authenticator) Configured() bool {
	return a.verifier != nil || a.secret != ""
}

// Identify resolves token to an identity.
func (a *Authenticator) Identify(token string) (*Identity, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}
	if a.verifier != nil {
		if c, err := a.verifier.Validate(token); err == nil {
			return &Identity{UserID: c.UserID, Email: c.Email, Name: c.Name}, nil
		}
	}
	if a.secret != "" {
		if c, err := ValidateLegacyToken(token, a.secret); err == nil {
			return &Identity{UserID: c.UserID, Email: c.Email}, nil
		}
	}
	return nil, ErrInvalidToken
}
