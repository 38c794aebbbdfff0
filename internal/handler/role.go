package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sso-service/internal/model"
	"github.com/iliyamo/sso-service/internal/repository"
)

// RoleHandler implements CRUD for roles.
type RoleHandler struct {
	Roles    *repository.RoleRepo
	Products *repository.ProductRepo
}

func NewRoleHandler(roles *repository.RoleRepo, products *repository.ProductRepo) *RoleHandler {
	return &RoleHandler{Roles: roles, Products: products}
}

type createRoleReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductID   string `json:"product_id"`
}
type updateRoleReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create registers a role under an existing product.
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.ProductID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Roles.ByName(ctx, req.Name); err != sql.ErrNoRows {
		if err == nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Role exists!"})
		}
		c.Logger().Errorf("create role: duplicate check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if _, err := h.Products.ByID(ctx, req.ProductID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
		}
		c.Logger().Errorf("create role: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if _, err := h.Roles.Create(ctx, &model.Role{
		Name:        req.Name,
		Description: req.Description,
		ProductID:   req.ProductID,
	}); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Role exists!"})
		}
		c.Logger().Errorf("create role: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"error": 0, "msg": "Role created successfully!"})
}

// All returns every role.
func (h *RoleHandler) All(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.Roles.All(ctx)
	if err != nil {
		c.Logger().Errorf("list roles: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if roles == nil {
		roles = []model.Role{}
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": roles})
}

// ByID returns one role; a missing row yields an empty result object.
func (h *RoleHandler) ByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.ByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": echo.Map{}})
		}
		c.Logger().Errorf("get role: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": role})
}

// Update changes a role's descriptive fields after an existence check.
func (h *RoleHandler) Update(c echo.Context) error {
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Roles.ByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Role does not exist!"})
		}
		c.Logger().Errorf("update role: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.Description == "" {
		req.Description = existing.Description
	}
	if err := h.Roles.Update(ctx, id, req.Name, req.Description); err != nil {
		c.Logger().Errorf("update role: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Role updated successfully!"})
}

// Delete removes a role.
func (h *RoleHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.Delete(ctx, c.Param("id")); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Role does not exist!"})
		}
		c.Logger().Errorf("delete role: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Role deleted successfully!"})
}
