package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uncoverstore/api/internal/domain/address"
)

type addressResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toAddressResponse(a address.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		FullName:   a.FullName,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		CreatedAt:  a.CreatedAt,
	}
}

func (s *Server) listAddresses(c *gin.Context) {
	sess := mustSession(c)

	addresses, err := s.addresses.ListByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		writeInternalError(c, err)
		return
	}

	out := make([]addressResponse, len(addresses))
	for i, a := range addresses {
		out[i] = toAddressResponse(a)
	}
	c.JSON(http.StatusOK, out)
}

type createAddressRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
}

func (s *Server) createAddress(c *gin.Context) {
	sess := mustSession(c)

	var req createAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "missing required fields")
		return
	}

	a := &address.Address{
		ID:         uuid.New().String(),
		UserID:     sess.UserID,
		FullName:   req.FullName,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	}
	if err := s.addresses.Create(c.Request.Context(), a); err != nil {
		writeInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "address": toAddressResponse(*a)})
}
