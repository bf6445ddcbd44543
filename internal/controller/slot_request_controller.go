package controller

import (
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SlotRequestController struct {
	SlotRequestService *service.SlotRequestService
}

func NewSlotRequestController(slotRequestService *service.SlotRequestService) *SlotRequestController {
	return &SlotRequestController{SlotRequestService: slotRequestService}
}

// Submit godoc
// @Summary Request an unpublished time
// @Description Files a pending slot request with a mentor
// @Tags slot-request
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitSlotRequest true "Requested time"
// @Success 201 {object} util.Response{data=model.SlotRequest} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/student/slot-requests [post]
func (c *SlotRequestController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	r, err := c.SlotRequestService.Submit(user.UserID, req)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Created(ctx, r)
}

// swagger:model DecideSlotRequestRequest
type DecideSlotRequestRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Response string `json:"response"`
}

// Decide godoc
// @Summary Decide a slot request
// @Description Mentor approves or rejects; approval publishes the requested slot
// @Tags slot-request
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Request ID"
// @Param   body body DecideSlotRequestRequest true "Decision"
// @Success 200 {object} util.Response{data=model.SlotRequest} "Success"
// @Failure 409 {object} util.Response "Already decided"
// @Router /api/mentor/slot-requests/{id}/decision [put]
func (c *SlotRequestController) Decide(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	requestID := util.MustParseUint(ctx.Param("id"))
	if requestID == 0 {
		util.BadRequest(ctx, "invalid request id")
		return
	}

	var req DecideSlotRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	r, err := c.SlotRequestService.Decide(requestID, model.SlotRequestStatus(req.Decision), user.UserID, req.Response)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, r)
}

// Cancel godoc
// @Summary Withdraw a slot request
// @Description Student cancels their own still-pending request
// @Tags slot-request
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Request ID"
// @Success 200 {object} util.Response{data=model.SlotRequest} "Success"
// @Failure 409 {object} util.Response "Already decided"
// @Router /api/student/slot-requests/{id} [delete]
func (c *SlotRequestController) Cancel(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	requestID := util.MustParseUint(ctx.Param("id"))
	if requestID == 0 {
		util.BadRequest(ctx, "invalid request id")
		return
	}

	r, err := c.SlotRequestService.Cancel(requestID, user.UserID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, r)
}

// Inbox godoc
// @Summary Mentor request inbox
// @Tags slot-request
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "Filter by status"
// @Success 200 {object} util.Response{data=[]model.SlotRequest} "Success"
// @Router /api/mentor/slot-requests [get]
func (c *SlotRequestController) Inbox(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	status := model.SlotRequestStatus(ctx.Query("status"))
	list, err := c.SlotRequestService.ListByMentor(user.UserID, status)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, list)
}

// ListMine godoc
// @Summary My slot requests
// @Tags slot-request
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.SlotRequest} "Success"
// @Router /api/student/slot-requests [get]
func (c *SlotRequestController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.SlotRequestService.ListByStudent(user.UserID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, list)
}
