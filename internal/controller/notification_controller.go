package controller

import (
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

// ListMine godoc
// @Summary My notification feed
// @Description Persisted events for the current user, newest first
// @Tags notification
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "Max events to return"
// @Success 200 {object} util.Response{data=[]model.NotificationEvent} "Success"
// @Router /api/notifications [get]
func (c *NotificationController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	recipientType := model.RecipientStudent
	if user.Role == model.Mentor {
		recipientType = model.RecipientMentor
	}

	limit := util.ParseInt(ctx.Query("limit"), 0)
	list, err := c.NotificationService.ListByRecipient(recipientType, user.UserID, limit)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, list)
}
