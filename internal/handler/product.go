package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uncoverstore/api/internal/domain/product"
)

// productResponse is the catalog wire shape. Price is in the smallest
// currency unit.
type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Stock       int64  `json:"stock"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Stock:       p.Stock,
	}
}

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.products.List(c.Request.Context())
	if err != nil {
		writeInternalError(c, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeNotFoundOrInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

type createProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	Image       string `json:"image"`
	Stock       int64  `json:"stock"`
}

func (s *Server) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid product payload")
		return
	}

	// Negative submitted stock floors to zero rather than failing.
	stock := req.Stock
	if stock < 0 {
		stock = 0
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       stock,
	}
	if err := s.products.Create(c.Request.Context(), p); err != nil {
		writeInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(*p))
}
