package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sso-service/internal/handler"
	"github.com/iliyamo/sso-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probes use this endpoint to verify that
	// the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all credential-related routes.  The limiter guards
// the two endpoints where an attacker can burn through guesses (signin and
// password-reset dispatch); the verification endpoints are self-limiting
// because every successful check consumes the one-time credential.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, auth *middleware.Auth, gate *middleware.AccessControl, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")

	// Signin validates the password, then mints a fresh session credential.
	// Issuing overwrites the stored nonce, so any prior token for the same
	// account stops verifying the moment this succeeds.
	g.POST("/signin", u.SignIn, limiter)

	// Send dispatches a password-reset link.  The caller must belong to the
	// product it names; otherwise a tenant could trigger resets for accounts
	// it has no relationship with.
	g.POST("/send", a.Send, limiter, gate.RequireProductMember())

	// The verify endpoints run the token pipeline as middleware and fall
	// through to a handler that renders whatever identity the pipeline
	// attached to the request context.
	g.GET("/verify/email", a.RenderUser, auth.VerifyEmail())
	g.GET("/verify/reset", a.RenderUser, auth.VerifyResetToken())
	g.POST("/verify", a.RenderUser, auth.Authenticate(), gate.RequireProductMember())

	// Password reset requires a live reset credential; the credential is
	// cleared inside the same UPDATE that writes the new hash.
	g.POST("/password/reset", a.ResetPassword, auth.VerifyResetToken(), gate.RequireProductMember())

	// Account state toggles require a session plus product membership.
	g.PUT("/activate/:user_id", a.Activate, auth.Authenticate(), gate.RequireProductMember())
	g.PUT("/deactivate/:user_id", a.Deactivate, auth.Authenticate(), gate.RequireProductMember())
}

// RegisterUsers registers the user CRUD routes.  Creation is open (it is the
// signup endpoint); everything else requires an authenticated session.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, auth *middleware.Auth, gate *middleware.AccessControl) {
	g := e.Group("/user")
	g.POST("/create", u.Create)
	g.POST("/all", u.All, auth.Authenticate())
	g.GET("/:id", u.ByID, auth.Authenticate())
	g.PUT("/update", u.Update, auth.Authenticate())
	g.DELETE("/remove/:id", u.Remove, auth.Authenticate(), gate.RequireProductMember())
}

// RegisterCatalog registers the product, client, role and scope CRUD routes.
// These are tenant-administration endpoints; they share a uniform layout so
// that clients can treat the four resources interchangeably.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, cl *handler.ClientHandler, r *handler.RoleHandler, s *handler.ScopeHandler, gate *middleware.AccessControl) {
	pg := e.Group("/product")
	pg.POST("/create", p.Create)
	pg.GET("/all", p.All)
	pg.GET("/:id", p.ByID)
	pg.PUT("/:id", p.Update)
	pg.DELETE("/:id", p.Delete)

	cg := e.Group("/client")
	cg.POST("/create", cl.Create)
	cg.GET("/all", cl.All)
	cg.GET("/:id", cl.ByID)
	cg.PUT("/:id", cl.Update)
	cg.DELETE("/:id", cl.Delete)

	rg := e.Group("/role")
	rg.POST("/create", r.Create)
	rg.GET("/all", r.All)
	rg.GET("/:id", r.ByID)
	// Updating a role is gated on the role actually belonging to the product
	// named in the request body.  Without this a caller could move another
	// tenant's role by guessing its id.
	rg.PUT("/:id", r.Update, gate.VerifyRoleOwnership())
	rg.DELETE("/:id", r.Delete)

	sg := e.Group("/scope")
	sg.POST("/create", s.Create)
	sg.GET("/all", s.All)
	sg.GET("/:id", s.ByID)
	sg.PUT("/:id", s.Update)
	sg.DELETE("/:id", s.Delete)
}
