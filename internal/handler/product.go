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

// ProductHandler implements CRUD for tenant products.
type ProductHandler struct {
	Products *repository.ProductRepo
}

func NewProductHandler(products *repository.ProductRepo) *ProductHandler {
	return &ProductHandler{Products: products}
}

type createProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductCode string `json:"product_code"`
}
type updateProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create registers a new product.  Name, description and product_code are
// all required; a duplicate name or code is a conflict.
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.ProductCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.Create(ctx, &model.Product{
		Name:        req.Name,
		Description: req.Description,
		ProductCode: req.ProductCode,
	}); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Product exists!"})
		}
		c.Logger().Errorf("create product: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"error": 0, "msg": "Product created successfully!"})
}

// All returns every product.
func (h *ProductHandler) All(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.All(ctx)
	if err != nil {
		c.Logger().Errorf("list products: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "results": products})
}

// ByID returns one product; a missing row yields an empty result object.
func (h *ProductHandler) ByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.ByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": echo.Map{}})
		}
		c.Logger().Errorf("get product: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": p})
}

// Update changes a product's descriptive fields after an existence check.
func (h *ProductHandler) Update(c echo.Context) error {
	var req updateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Products.ByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
		}
		c.Logger().Errorf("update product: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.Description == "" {
		req.Description = existing.Description
	}
	if err := h.Products.Update(ctx, id, req.Name, req.Description); err != nil {
		c.Logger().Errorf("update product: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Product updated successfully!"})
}

// Delete removes a product.
func (h *ProductHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, c.Param("id")); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
		}
		c.Logger().Errorf("delete product: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Product deleted successfully!"})
}
