package product

import (
	"errors"
	"net/http"

	"kestiv/internal/api"
	"kestiv/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Product not found"})
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrDuplicateSKU):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid product data"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body product.CreateProductRequest true "Product"
// @Success      201 {object} product.Product
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /products [post]
func (h *Handler) Create(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateProductRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), businessID, req)
	if err != nil {
		writeError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, p)
}

// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        active query bool false "Only products on sale"
// @Param        limit  query int  false "Page size"
// @Param        offset query int  false "Page offset"
// @Success      200 {array} product.Product
// @Router       /products [get]
func (h *Handler) List(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var page api.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	products, err := h.service.List(c.Request.Context(), businessID, c.Query("active") == "true", page)
	if err != nil {
		writeError(c, err, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Success      200 {object} product.Product
// @Failure      404 {object} api.ErrorResponse
// @Router       /products/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}
	id, ok := api.ParamUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), businessID, id)
	if err != nil {
		writeError(c, err, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Param        request body product.UpdateProductRequest true "Fields to change"
// @Success      200 {object} product.Product
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /products/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}
	id, ok := api.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), businessID, id, req)
	if err != nil {
		writeError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Adjust stock
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Param        request body product.AdjustStockRequest true "Signed delta"
// @Success      200 {object} product.Product
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /products/{id}/stock [post]
func (h *Handler) AdjustStock(c *gin.Context) {
	businessID, ok := auth.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}
	id, ok := api.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.AdjustStock(c.Request.Context(), businessID, id, req.Delta)
	if err != nil {
		writeError(c, err, "Failed to adjust stock")
		return
	}

	c.JSON(http.StatusOK, p)
}
