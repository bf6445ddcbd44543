package controller

import (
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	SubscriptionService *service.SubscriptionService
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{SubscriptionService: subscriptionService}
}

// Grant godoc
// @Summary Grant a session bundle
// @Description Creates a prepaid subscription for a student
// @Tags subscription
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GrantSubscriptionRequest true "Bundle parameters"
// @Success 201 {object} util.Response{data=model.StudentSubscription} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/admin/subscriptions [post]
func (c *SubscriptionController) Grant(ctx *gin.Context) {
	var req service.GrantSubscriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SubscriptionService.Grant(req)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Created(ctx, sub)
}

// ListMine godoc
// @Summary My subscriptions
// @Tags subscription
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.StudentSubscription} "Success"
// @Router /api/student/subscriptions [get]
func (c *SubscriptionController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subs, err := c.SubscriptionService.ListByStudent(user.UserID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, subs)
}

// GetActive godoc
// @Summary My active subscription
// @Description Returns the subscription a booking would draw from
// @Tags subscription
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.StudentSubscription} "Success"
// @Failure 402 {object} util.Response "No usable subscription"
// @Router /api/student/subscriptions/active [get]
func (c *SubscriptionController) GetActive(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.SubscriptionService.FindActive(user.UserID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, sub)
}
