package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/depot/internal/services"
)

// AccountStore defines the account-scoped storage operations.
type AccountStore interface {
	services.AccountReader
	services.AccountDeleter
}

type AccountsController struct {
	store AccountStore
}

func NewAccountsController(store AccountStore) *AccountsController {
	return &AccountsController{store: store}
}

// Records handles GET /accounts/:id/records
// Returns every account plus the bookings, booking types and stocks of :id.
func (ac *AccountsController) Records(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	records, err := ac.store.GetAccountRecords(c.Request.Context(), id)
	if err != nil {
		respondStorageError(c, err, "get account records")
		return
	}
	c.JSON(http.StatusOK, records)
}

// Delete handles DELETE /accounts/:id
// Removes the account and everything that references it.
func (ac *AccountsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// A half-deleted account is never visible, so finish even if the
	// client goes away.
	res, err := ac.store.DeleteAccountRecords(context.WithoutCancel(c.Request.Context()), id)
	if err != nil {
		respondStorageError(c, err, "delete account")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "account deleted", Data: res})
}
