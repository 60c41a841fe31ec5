package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/uncoverstore/api/internal/domain/checkout"
	"github.com/uncoverstore/api/internal/domain/order"
	"github.com/uncoverstore/api/internal/domain/product"
)

// errorBody is the stable machine-readable error envelope. Internal error
// detail never leaks to the client; persistence faults are logged and
// collapsed to a generic message.
type errorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorBody{Code: status, Error: msg})
}

// writeCheckoutError maps checkout domain errors onto HTTP statuses:
// validation and business-rule failures are 400, unknown products 404,
// consumed confirmations 409, everything else a logged 500.
func writeCheckoutError(c *gin.Context, err error) {
	var (
		iqErr  *checkout.InvalidQuantityError
		pnfErr *checkout.ProductNotFoundError
		isErr  *checkout.InsufficientStockError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrIncompleteAddress),
		errors.Is(err, checkout.ErrMissingFields),
		errors.Is(err, checkout.ErrInvalidSignature):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &iqErr):
		writeError(c, http.StatusBadRequest, iqErr.Error())
	case errors.As(err, &isErr):
		writeError(c, http.StatusBadRequest, isErr.Error())
	case errors.As(err, &pnfErr):
		writeError(c, http.StatusNotFound, pnfErr.Error())
	case errors.Is(err, checkout.ErrAlreadyConfirmed):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeInternalError(c, err)
	}
}

func writeNotFoundOrInternal(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound), errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeInternalError(c, err)
	}
}

func writeInternalError(c *gin.Context, err error) {
	zctx.From(c.Request.Context()).Error("request failed", zap.Error(err))
	writeError(c, http.StatusInternalServerError, "internal server error")
}
