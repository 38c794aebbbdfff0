package middleware // middleware provides shared request processing for handlers

import (
	"database/sql" // sql.ErrNoRows distinguishes "no match" from store failures
	"net/http"     // HTTP status codes for responses
	"strings"      // string utilities for prefix checking and trimming
	"time"         // expiry comparison and DB call timeouts

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/sso-service/internal/config"
	"github.com/iliyamo/sso-service/internal/repository"
	"github.com/iliyamo/sso-service/internal/utils"
)

// Context keys under which the verification middleware attaches the resolved
// identity for downstream handlers.
const (
	CtxClaims      = "claims"       // utils.CredentialClaims of the presented token
	CtxAccessToken = "access_token" // the raw bearer token string
	CtxProfile     = "profile"      // model.Profile, set by Authenticate only
)

const dbTimeout = 5 * time.Second

// Auth bundles the dependencies of the token verification middleware: the
// signing secret lives in the config and every variant resolves the bound
// user through the user repository.  All variants share one algorithm --
// decode the bearer token, match the embedded nonce against the stored
// sso_id -- and differ only in which stored-state checks apply afterwards.
type Auth struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuth(cfg config.Config, users *repository.UserRepo) *Auth {
	return &Auth{Cfg: cfg, Users: users}
}

// bearerToken extracts the raw token from the Authorization header.  The
// second return value is false when the header is missing or not a Bearer
// scheme.
func bearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

// VerifyEmail gates the signup verification endpoint.  It accepts only
// signup-purpose tokens, resolves the user by the combined subject+nonce
// lookup, and on success flips the account to active+verified before the
// handler runs.  The nonce match is the only replay protection: once a
// later issuance rotates sso_id, the old link dies.
func (a *Auth) VerifyEmail() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Authorization is required!"})
			}
			claims, err := utils.VerifyCredential(a.Cfg.SSOSecret, raw, utils.PurposeSignup)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Token is invalid!"})
			}

			ctx, cancel := contextWithTimeout(c)
			defer cancel()

			if _, err := a.Users.GetBySubjectAndOTP(ctx, claims.Subject, claims.OTP); err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Token is invalid!"})
				}
				c.Logger().Errorf("verify email: user lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}
			// Activate the account as a side effect of successful verification.
			if err := a.Users.MarkVerified(ctx, claims.Subject, claims.OTP); err != nil {
				c.Logger().Errorf("verify email: activate failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}

			c.Set(CtxClaims, claims)
			c.Set(CtxAccessToken, raw)
			return next(c)
		}
	}
}

// VerifyResetToken gates the password-reset endpoints.  On top of the shared
// nonce lookup it enforces the stored sso_token_expiry: a link presented at
// or past the stored timestamp is rejected.  The token itself carries no
// expiry claim, so this check is the only time bound.
func (a *Auth) VerifyResetToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Authorization is required!"})
			}
			claims, err := utils.VerifyCredential(a.Cfg.SSOSecret, raw, utils.PurposeReset)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Token is invalid!"})
			}

			ctx, cancel := contextWithTimeout(c)
			defer cancel()

			u, err := a.Users.GetBySubjectAndOTP(ctx, claims.Subject, claims.OTP)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Token is invalid!"})
				}
				c.Logger().Errorf("verify reset: user lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}
			// A missing expiry counts as expired; reset issuance always sets one.
			if !u.SSOTokenExpiry.Valid || !time.Now().UTC().Before(u.SSOTokenExpiry.Time.UTC()) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Password reset link has expired!"})
			}

			c.Set(CtxClaims, claims)
			c.Set(CtxAccessToken, raw)
			return next(c)
		}
	}
}

// Authenticate is the full-auth variant used by generic protected routes.
// It accepts only session-purpose tokens and, instead of the raw claims,
// attaches the complete sanitized user projection joined with product and
// role so handlers never reach back into the users table themselves.
func (a *Auth) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Authorization is required!"})
			}
			claims, err := utils.VerifyCredential(a.Cfg.SSOSecret, raw, utils.PurposeSession)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Auth token is invalid!"})
			}

			ctx, cancel := contextWithTimeout(c)
			defer cancel()

			profile, err := a.Users.ProfileBySubjectAndOTP(ctx, claims.Subject, claims.OTP)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Auth token is invalid!"})
				}
				c.Logger().Errorf("authenticate: profile lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}

			c.Set(CtxClaims, claims)
			c.Set(CtxAccessToken, raw)
			c.Set(CtxProfile, profile)
			return next(c)
		}
	}
}
