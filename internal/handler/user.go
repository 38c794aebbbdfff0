package handler

import (
	"context"
	"database/sql"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sso-service/internal/config"
	"github.com/iliyamo/sso-service/internal/middleware"
	"github.com/iliyamo/sso-service/internal/model"
	"github.com/iliyamo/sso-service/internal/queue"
	"github.com/iliyamo/sso-service/internal/repository"
	"github.com/iliyamo/sso-service/internal/utils"
)

// passwordPattern mirrors the accepted password shape: 3-30 alphanumerics.
var passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,30}$`)

func validPassword(p string) bool { return passwordPattern.MatchString(p) }

// UserHandler bundles dependencies for signup, sign-in and user management.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Products *repository.ProductRepo
	Roles    *repository.RoleRepo
	Notify   NotifyFunc
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, products *repository.ProductRepo, roles *repository.RoleRepo, notify NotifyFunc) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Products: products, Roles: roles, Notify: notify}
}

// ----- DTOs -----

type createUserReq struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	ProductCode string `json:"product_code"`
}
type signinReq struct {
	User        string `json:"user"`
	Password    string `json:"password"`
	ProductCode string `json:"product_code"`
}
type productCodeReq struct {
	ProductCode string `json:"product_code"`
}
type updateUserReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	RoleID    *string `json:"role_id"`
	ProductID *string `json:"product_id"`
}
type removeUserReq struct {
	ProductCode string `json:"product_code"`
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// Create handles signup: it validates the referenced product and role,
// rejects duplicate handles, stores the hashed password, then issues the
// signup verification credential and queues the verification mail.  Note
// that the account comes out active and email-verified immediately; the
// verification link re-asserts both flags.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Role == "" || req.ProductCode == "" || !validPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByName(ctx, req.Name); err != sql.ErrNoRows {
		if err == nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "User account exists!"})
		}
		c.Logger().Errorf("signup: duplicate check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	product, err := h.Products.ByCode(ctx, req.ProductCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
		}
		c.Logger().Errorf("signup: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	role, err := h.Roles.ByName(ctx, req.Role)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Role does not exist!"})
		}
		c.Logger().Errorf("signup: role lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("signup: hash failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	u := &model.User{
		FirstName:    nullable(req.FirstName),
		LastName:     nullable(req.LastName),
		Name:         req.Name,
		Email:        nullable(req.Email),
		Phone:        nullable(req.Phone),
		PasswordHash: hash,
		RoleID:       role.ID,
		ProductID:    product.ID,
	}
	if _, err := h.Users.Create(ctx, u); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "User account exists!"})
		}
		c.Logger().Errorf("signup: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	// Issue the signup verification credential.  The token binds the handle
	// because signup does not require an email address.
	otp, err := utils.NewOTP(utils.ResetOTPLength)
	if err != nil {
		c.Logger().Errorf("signup: otp generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	token, err := utils.SignCredential(h.Cfg.SSOSecret, otp, req.Name, utils.PurposeSignup)
	if err != nil {
		c.Logger().Errorf("signup: token signing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	expiry := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err := h.Users.IssueSignupCredential(ctx, req.Name, otp, expiry); err != nil {
		c.Logger().Errorf("signup: credential update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	// Delivery is best effort on signup; the account is already usable.
	if req.Email != "" {
		ev := queue.EmailNotificationEvent{
			Kind:        queue.EmailKindSignupVerification,
			To:          req.Email,
			Subject:     "Verify your account - " + h.Cfg.AppName,
			FirstName:   req.FirstName,
			Link:        h.Cfg.WebURL + "/verify/" + token,
			RequestedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.Notify(ctx, ev); err != nil {
			c.Logger().Warnf("signup: verification mail not queued: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"error": 0, "msg": "User created successfully!"})
}

// SignIn verifies credentials and product membership, then issues a fresh
// session credential.  The same message covers an unknown identifier and a
// wrong password so callers cannot probe which half failed; an inactive
// account is reported as such only after the identifier resolved.
func (h *UserHandler) SignIn(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	req.User = strings.TrimSpace(req.User)
	if req.User == "" || req.Password == "" || strings.TrimSpace(req.ProductCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByIdentifier(ctx, req.User)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Incorrect Login details!"})
		}
		c.Logger().Errorf("signin: user lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if !u.IsActive() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Account is not active"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Incorrect Login details!"})
	}

	product, err := h.Products.ByCode(ctx, req.ProductCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product not found!"})
		}
		c.Logger().Errorf("signin: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	member, err := h.Users.IsProductMember(ctx, req.User, product.ID)
	if err != nil {
		c.Logger().Errorf("signin: membership lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if !member {
		return c.JSON(http.StatusForbidden, echo.Map{"error": 1, "msg": "You are not an authorized user of this product!"})
	}

	// Session nonces are long because no stored expiry bounds them.
	otp, err := utils.NewOTP(utils.SessionOTPLength)
	if err != nil {
		c.Logger().Errorf("signin: otp generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	token, err := utils.SignCredential(h.Cfg.SSOSecret, otp, credentialSubject(u), utils.PurposeSession)
	if err != nil {
		c.Logger().Errorf("signin: token signing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if err := h.Users.IssueSessionCredential(ctx, req.User, otp); err != nil {
		c.Logger().Errorf("signin: credential update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	profile, err := h.Users.ProfileByID(ctx, u.ID)
	if err != nil {
		c.Logger().Errorf("signin: profile fetch failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": 0,
		"msg":   "User signed in successfully!",
		"token": token,
		"data":  profile,
	})
}

// All lists sanitized profiles of every user in the product named by the
// request body.
func (h *UserHandler) All(c echo.Context) error {
	var req productCodeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ProductCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	product, err := h.Products.ByCode(ctx, req.ProductCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product not found!"})
		}
		c.Logger().Errorf("list users: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	profiles, err := h.Users.ListByProduct(ctx, product.ID)
	if err != nil {
		c.Logger().Errorf("list users: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "results": profiles})
}

// ByID returns the sanitized profile of one user; a missing row yields an
// empty result object rather than a 404, matching the read endpoints of the
// other entities.
func (h *UserHandler) ByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Users.ProfileByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": echo.Map{}})
		}
		c.Logger().Errorf("get user: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": profile})
}

// Update lets the authenticated user change their own details.  Password
// and product_code are not part of the DTO, so they cannot be smuggled into
// the update.  Referenced product or role ids must exist.
func (h *UserHandler) Update(c echo.Context) error {
	profile, ok := c.Get(middleware.CtxProfile).(model.Profile)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": 1, "msg": "Authorization is required!"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.ProductID != nil {
		if _, err := h.Products.ByID(ctx, *req.ProductID); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
			}
			c.Logger().Errorf("update user: product lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
		}
	}
	if req.RoleID != nil {
		if _, err := h.Roles.ByID(ctx, *req.RoleID); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Role does not exist!"})
			}
			c.Logger().Errorf("update user: role lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
		}
	}

	upd := repository.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		RoleID:    req.RoleID,
		ProductID: req.ProductID,
	}
	if err := h.Users.UpdateDetails(ctx, profile.ID, upd); err != nil {
		c.Logger().Errorf("update user: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": 0,
		"msg":   "User updated successfully!",
		"data":  echo.Map{"id": profile.ID, "email": profile.Email, "phone": profile.Phone},
	})
}

// Remove deletes a user after confirming the caller-supplied product_code
// matches the product the target user belongs to.
func (h *UserHandler) Remove(c echo.Context) error {
	var req removeUserReq
	_ = c.Bind(&req)
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "User does not exist!"})
		}
		c.Logger().Errorf("remove user: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	product, err := h.Products.ByID(ctx, u.ProductID)
	if err != nil {
		c.Logger().Errorf("remove user: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if product.ProductCode != req.ProductCode {
		return c.JSON(http.StatusForbidden, echo.Map{"error": 1, "msg": "Permission Error!"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		c.Logger().Errorf("remove user: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": 0,
		"msg":   "User deleted successfully!",
		"data":  echo.Map{"phone": u.Phone.String, "email": u.Email.String},
	})
}
