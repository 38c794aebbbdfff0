package middleware

// identity.go defines helper functions shared across middleware files: a
// bounded context for store calls and identity extraction from whatever the
// verification middleware attached earlier in the chain.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sso-service/internal/model"
	"github.com/iliyamo/sso-service/internal/utils"
)

// contextWithTimeout bounds a store call to the request context with the
// standard per-call timeout.
func contextWithTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentIdentity returns the identity anchor of the authenticated caller:
// the email from the attached profile when the full-auth middleware ran,
// otherwise the subject of the attached claims.  The empty string means no
// verification middleware ran before this point.
func currentIdentity(c echo.Context) string {
	if v := c.Get(CtxProfile); v != nil {
		if p, ok := v.(model.Profile); ok && p.Email != "" {
			return p.Email
		}
	}
	if v := c.Get(CtxClaims); v != nil {
		if cl, ok := v.(utils.CredentialClaims); ok {
			return cl.Subject
		}
	}
	return ""
}

// peekBody decodes the request body into v and then restores it so the
// handler's own Bind still works.  Middleware that needs body fields (the
// product gate reads product_code and sometimes user) must not consume the
// body for good.
func peekBody(c echo.Context, v interface{}) error {
	req := c.Request()
	if req.Body == nil {
		return io.EOF
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return io.EOF
	}
	return json.Unmarshal(raw, v)
}
