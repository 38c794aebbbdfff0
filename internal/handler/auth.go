package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls and expiry computation

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/sso-service/internal/config"
	"github.com/iliyamo/sso-service/internal/middleware"
	"github.com/iliyamo/sso-service/internal/model"
	"github.com/iliyamo/sso-service/internal/queue"
	"github.com/iliyamo/sso-service/internal/repository"
	"github.com/iliyamo/sso-service/internal/utils"
)

// NotifyFunc delivers an outbound mail event.  Production wiring points it
// at the RabbitMQ publisher; tests substitute a fake.
type NotifyFunc func(ctx context.Context, ev queue.EmailNotificationEvent) error

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Notify NotifyFunc
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, notify NotifyFunc) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Notify: notify}
}

// ----- DTOs -----

type sendReq struct {
	User        string `json:"user"`
	ProductCode string `json:"product_code"`
}
type resetPasswordReq struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	ProductCode          string `json:"product_code"`
}

// credentialSubject picks the identity claim a token is bound to.  Reset and
// session tokens bind the email; accounts registered with only a handle fall
// back to it so the combined subject+nonce lookup still resolves them.
func credentialSubject(u model.User) string {
	if u.Email.Valid && u.Email.String != "" {
		return u.Email.String
	}
	return u.Name
}

// Send initiates a password reset: it issues a fresh one-time credential for
// the user named in the body and hands the signed link to the delivery
// queue.  Issuance and delivery are reported independently -- a publish
// failure does not roll back the stored nonce.
func (h *AuthHandler) Send(c echo.Context) error {
	var req sendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	req.User = strings.TrimSpace(req.User)
	if req.User == "" || strings.TrimSpace(req.ProductCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmailOrPhone(ctx, req.User)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "User account does not exist!"})
		}
		c.Logger().Errorf("reset send: user lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	otp, err := utils.NewOTP(utils.ResetOTPLength)
	if err != nil {
		c.Logger().Errorf("reset send: otp generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	token, err := utils.SignCredential(h.Cfg.SSOSecret, otp, credentialSubject(u), utils.PurposeReset)
	if err != nil {
		c.Logger().Errorf("reset send: token signing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	// Overwrite the stored nonce before anything leaves the process; a
	// token must never circulate without its nonce being persisted.
	expiry := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err := h.Users.IssueResetCredential(ctx, req.User, otp, expiry); err != nil {
		c.Logger().Errorf("reset send: credential update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	ev := queue.EmailNotificationEvent{
		Kind:        queue.EmailKindPasswordReset,
		To:          u.Email.String,
		Subject:     "Password Reset - " + h.Cfg.AppName,
		FirstName:   u.FirstName.String,
		Link:        h.Cfg.WebURL + "/verify/" + token,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Notify(ctx, ev); err != nil {
		// The credential is live; only delivery failed.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Network problem"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": 0,
		"msg":   "Request sent! A reset link was sent to your mailbox.",
	})
}

// RenderUser finishes the verification middleware chains: it returns
// whatever identity the preceding middleware attached.  Full-auth routes get
// the sanitized profile; the token-verify routes get the subject plus the
// raw token they presented.
func (h *AuthHandler) RenderUser(c echo.Context) error {
	if v := c.Get(middleware.CtxProfile); v != nil {
		if p, ok := v.(model.Profile); ok {
			return c.JSON(http.StatusOK, echo.Map{"error": 0, "data": p})
		}
	}
	claims, _ := c.Get(middleware.CtxClaims).(utils.CredentialClaims)
	token, _ := c.Get(middleware.CtxAccessToken).(string)
	return c.JSON(http.StatusOK, echo.Map{
		"error": 0,
		"data": echo.Map{
			"access_token": token,
			"user":         claims.Subject,
		},
	})
}

// ResetPassword consumes a verified reset token: it stores the new password
// hash and clears the nonce so the same link cannot be replayed.  The
// subject comes from the claims the verify middleware attached, never from
// the body.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	if !validPassword(req.Password) || req.Password != req.PasswordConfirmation {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	claims, ok := c.Get(middleware.CtxClaims).(utils.CredentialClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Authorization is required!"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("reset password: hash failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, claims.Subject, hash); err != nil {
		c.Logger().Errorf("reset password: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Password updated successfully!"})
}

// Activate flips a user's active flag on (admin operation, full-auth gated).
func (h *AuthHandler) Activate(c echo.Context) error {
	return h.setActive(c, true, "Account activated!")
}

// Deactivate clears a user's active flag (stores NULL, not 0).
func (h *AuthHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false, "Account deactivated!")
}

func (h *AuthHandler) setActive(c echo.Context, active bool, okMsg string) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Account not found!"})
		}
		c.Logger().Errorf("set active: user lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if err := h.Users.SetActive(ctx, userID, active); err != nil {
		c.Logger().Errorf("set active: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": okMsg})
}
