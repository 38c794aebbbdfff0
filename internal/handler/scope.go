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

// ScopeHandler implements CRUD for scopes.
type ScopeHandler struct {
	Scopes   *repository.ScopeRepo
	Products *repository.ProductRepo
}

func NewScopeHandler(scopes *repository.ScopeRepo, products *repository.ProductRepo) *ScopeHandler {
	return &ScopeHandler{Scopes: scopes, Products: products}
}

type createScopeReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductID   string `json:"product_id"`
}
type updateScopeReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create registers a scope under an existing product.
func (h *ScopeHandler) Create(c echo.Context) error {
	var req createScopeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.ProductID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Scopes.ByName(ctx, req.Name); err != sql.ErrNoRows {
		if err == nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Scope exists!"})
		}
		c.Logger().Errorf("create scope: duplicate check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if _, err := h.Products.ByID(ctx, req.ProductID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
		}
		c.Logger().Errorf("create scope: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if _, err := h.Scopes.Create(ctx, &model.Scope{
		Name:        req.Name,
		Description: req.Description,
		ProductID:   req.ProductID,
	}); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Scope exists!"})
		}
		c.Logger().Errorf("create scope: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"error": 0, "msg": "Scope created successfully!"})
}

// All returns every scope.
func (h *ScopeHandler) All(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	scopes, err := h.Scopes.All(ctx)
	if err != nil {
		c.Logger().Errorf("list scopes: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if scopes == nil {
		scopes = []model.Scope{}
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "results": scopes})
}

// ByID returns one scope; a missing row yields an empty result object.
func (h *ScopeHandler) ByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Scopes.ByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": echo.Map{}})
		}
		c.Logger().Errorf("get scope: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": s})
}

// Update changes a scope's descriptive fields after an existence check.
func (h *ScopeHandler) Update(c echo.Context) error {
	var req updateScopeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Scopes.ByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Scope does not exist!"})
		}
		c.Logger().Errorf("update scope: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.Description == "" {
		req.Description = existing.Description
	}
	if err := h.Scopes.Update(ctx, id, req.Name, req.Description); err != nil {
		c.Logger().Errorf("update scope: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Scope updated successfully!"})
}

// Delete removes a scope.
func (h *ScopeHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Scopes.Delete(ctx, c.Param("id")); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Scope does not exist!"})
		}
		c.Logger().Errorf("delete scope: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Scope deleted successfully!"})
}
