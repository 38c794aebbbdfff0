package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel errors surfaced to the verification middleware

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token purposes.  Every signed credential carries exactly one of these in
// its "purpose" claim and each verification middleware accepts only its own
// purpose, so a signup-verification token can never pass the reset or
// session gates even though a single signing secret is shared.
const (
	PurposeSignup  = "signup"
	PurposeReset   = "reset"
	PurposeSession = "session"
)

// ErrInvalidToken is returned by VerifyCredential for any token that is
// malformed, signed with the wrong method or secret, or tagged with a
// different purpose than the caller expects.  Callers cannot distinguish
// these cases and should not need to.
var ErrInvalidToken = errors.New("invalid credential token")

// CredentialClaims is the decoded payload of a one-time credential token.
// OTP is the single-use nonce that must match the user's stored sso_id;
// Subject is the identity anchor the nonce was bound to (the email for
// reset/session tokens, the login handle for signup tokens).
type CredentialClaims struct {
	OTP     string // "otp" claim, compared against users.sso_id
	Subject string // "sub" claim, the lookup key for the bound user
	Purpose string // "purpose" claim, one of the Purpose* constants
}

// SignCredential builds and signs an HS256 token binding a one-time nonce
// to an identity for a given purpose.  The token deliberately carries no
// exp claim: expiry is enforced against the sso_token_expiry column so
// that overwriting the stored nonce also revokes every outstanding token.
func SignCredential(secret, otp, subject, purpose string) (string, error) {
	claims := jwt.MapClaims{
		"otp":     otp,
		"sub":     subject,
		"purpose": purpose,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// VerifyCredential parses and validates a signed credential token and
// checks that it was issued for the expected purpose.  It returns
// ErrInvalidToken on any failure; signature problems never panic.
func VerifyCredential(secret, token, purpose string) (CredentialClaims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC; otherwise a
		// crafted "none" or RSA token could slip through.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return CredentialClaims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return CredentialClaims{}, ErrInvalidToken
	}
	cc := CredentialClaims{}
	if v, ok := mc["otp"].(string); ok {
		cc.OTP = v
	}
	if v, ok := mc["sub"].(string); ok {
		cc.Subject = v
	}
	if v, ok := mc["purpose"].(string); ok {
		cc.Purpose = v
	}
	if cc.OTP == "" || cc.Subject == "" || cc.Purpose != purpose {
		return CredentialClaims{}, ErrInvalidToken
	}
	return cc, nil
}
