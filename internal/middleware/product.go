package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sso-service/internal/repository"
)

// AccessControl implements the per-product authorization gates that run
// after token verification on every product-scoped protected route.
type AccessControl struct {
	Products *repository.ProductRepo
	Users    *repository.UserRepo
	Roles    *repository.RoleRepo
}

func NewAccessControl(products *repository.ProductRepo, users *repository.UserRepo, roles *repository.RoleRepo) *AccessControl {
	return &AccessControl{Products: products, Users: users, Roles: roles}
}

// productGateBody is the slice of the request body the gates read.  The body
// is restored afterwards so the handler can bind its own DTO.
type productGateBody struct {
	User        string `json:"user"`
	ProductCode string `json:"product_code"`
	ProductID   string `json:"product_id"`
	RoleID      string `json:"role_id"`
}

// RequireProductMember verifies that the caller belongs to the product named
// by product_code in the request body.  The identity comes from whatever the
// verification middleware attached; on unauthenticated routes (password
// reset send) it falls back to the `user` field of the body.  Product absent
// is a 404, membership failure a 403.
func (g *AccessControl) RequireProductMember() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var body productGateBody
			_ = peekBody(c, &body)

			identity := currentIdentity(c)
			if identity == "" {
				identity = strings.TrimSpace(body.User)
			}
			code := strings.TrimSpace(body.ProductCode)
			if identity == "" || code == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
			}

			ctx, cancel := contextWithTimeout(c)
			defer cancel()

			product, err := g.Products.ByCode(ctx, code)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product not found!"})
				}
				c.Logger().Errorf("product gate: product lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}
			member, err := g.Users.IsProductMember(ctx, identity, product.ID)
			if err != nil {
				c.Logger().Errorf("product gate: membership lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}
			if !member {
				return c.JSON(http.StatusForbidden, echo.Map{"error": 1, "msg": "Permission Error!"})
			}
			return next(c)
		}
	}
}

// VerifyRoleOwnership guards privileged role operations: the role named in
// the request must belong to the product named in the request.  A crossed
// assignment is a 403, not a 404 -- both entities exist, the pairing is
// what's wrong.
func (g *AccessControl) VerifyRoleOwnership() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var body productGateBody
			_ = peekBody(c, &body)

			roleID := strings.TrimSpace(body.RoleID)
			if roleID == "" {
				roleID = c.Param("id")
			}
			productID := strings.TrimSpace(body.ProductID)
			if roleID == "" || productID == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
			}

			ctx, cancel := contextWithTimeout(c)
			defer cancel()

			if _, err := g.Products.ByID(ctx, productID); err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
				}
				c.Logger().Errorf("role ownership: product lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}
			role, err := g.Roles.ByID(ctx, roleID)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Role does not exist!"})
				}
				c.Logger().Errorf("role ownership: role lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
			}
			if role.ProductID != productID {
				return c.JSON(http.StatusForbidden, echo.Map{"error": 1, "msg": "Role does not belong to this product!"})
			}
			return next(c)
		}
	}
}
