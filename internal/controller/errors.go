package controller

import (
	"errors"
	"net/http"

	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// writeDomainError maps the ledger sentinels onto HTTP responses so every
// controller renders the same failure the same way.
func writeDomainError(ctx *gin.Context, err error) {
	var ineligible *service.IneligibleError
	if errors.As(err, &ineligible) {
		ctx.JSON(http.StatusForbidden, util.Response{
			Code:    http.StatusForbidden,
			Message: ineligible.Result.Reason,
			Data:    ineligible.Result,
		})
		return
	}

	switch {
	case errors.Is(err, util.ErrScheduleNotFound),
		errors.Is(err, util.ErrSlotNotFound),
		errors.Is(err, util.ErrSubscriptionNotFound),
		errors.Is(err, util.ErrVerificationNotFound),
		errors.Is(err, util.ErrRequestNotFound),
		errors.Is(err, util.ErrBookingNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrSlotUnavailable),
		errors.Is(err, util.ErrCapacityExceeded),
		errors.Is(err, util.ErrSlotBooked),
		errors.Is(err, util.ErrInvalidTransition),
		errors.Is(err, util.ErrConcurrencyConflict):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrNoActiveSubscription),
		errors.Is(err, util.ErrNotActive),
		errors.Is(err, util.ErrExhausted),
		errors.Is(err, util.ErrExpired):
		util.Error(ctx, http.StatusPaymentRequired, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
