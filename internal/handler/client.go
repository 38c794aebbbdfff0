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

// ClientHandler implements CRUD for API clients.
type ClientHandler struct {
	Clients  *repository.ClientRepo
	Products *repository.ProductRepo
}

func NewClientHandler(clients *repository.ClientRepo, products *repository.ProductRepo) *ClientHandler {
	return &ClientHandler{Clients: clients, Products: products}
}

type createClientReq struct {
	Name      string `json:"name"`
	Secret    string `json:"secret"`
	URL       string `json:"url"`
	ProductID string `json:"product_id"`
}
type updateClientReq struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Create registers a client for an existing product.  A client with the
// same name and secret is a duplicate.
func (h *ClientHandler) Create(c echo.Context) error {
	var req createClientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Secret) == "" || strings.TrimSpace(req.ProductID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Clients.ByNameAndSecret(ctx, req.Name, req.Secret); err != sql.ErrNoRows {
		if err == nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Client exists!"})
		}
		c.Logger().Errorf("create client: duplicate check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if _, err := h.Products.ByID(ctx, req.ProductID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Product does not exist!"})
		}
		c.Logger().Errorf("create client: product lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if _, err := h.Clients.Create(ctx, &model.Client{
		Name:      req.Name,
		Secret:    req.Secret,
		URL:       req.URL,
		ProductID: req.ProductID,
	}); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": 1, "msg": "Client exists!"})
		}
		c.Logger().Errorf("create client: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"error": 0, "msg": "Client created successfully!"})
}

// All returns every client.
func (h *ClientHandler) All(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	clients, err := h.Clients.All(ctx)
	if err != nil {
		c.Logger().Errorf("list clients: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "results": clients})
}

// ByID returns one client; a missing row yields an empty result object.
func (h *ClientHandler) ByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	client, err := h.Clients.ByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": echo.Map{}})
		}
		c.Logger().Errorf("get client: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "result": client})
}

// Update changes a client's mutable fields after an existence check.  The
// secret is not updatable; rotating credentials means creating a new client.
func (h *ClientHandler) Update(c echo.Context) error {
	var req updateClientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": 1, "msg": "Validation error(s)"})
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Clients.ByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Client does not exist!"})
		}
		c.Logger().Errorf("update client: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.URL == "" {
		req.URL = existing.URL
	}
	if err := h.Clients.Update(ctx, id, req.Name, req.URL); err != nil {
		c.Logger().Errorf("update client: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Client updated successfully!"})
}

// Delete removes a client.
func (h *ClientHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Clients.Delete(ctx, c.Param("id")); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": 1, "msg": "Client does not exist!"})
		}
		c.Logger().Errorf("delete client: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": 1, "msg": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"error": 0, "msg": "Client deleted successfully!"})
}
