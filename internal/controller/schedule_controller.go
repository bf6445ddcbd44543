package controller

import (
	"time"

	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ScheduleController struct {
	SlotService *service.SlotService
}

func NewScheduleController(slotService *service.SlotService) *ScheduleController {
	return &ScheduleController{SlotService: slotService}
}

// swagger:model PublishScheduleRequest
type PublishScheduleRequest struct {
	Date  string              `json:"date" binding:"required"` // "2006-01-02"
	Slots []service.SlotInput `json:"slots" binding:"required,min=1,dive"`
}

// Publish godoc
// @Summary Publish availability
// @Description Creates or extends the mentor's schedule for one date
// @Tags schedule
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body PublishScheduleRequest true "Date and slots"
// @Success 201 {object} util.Response{data=model.MentorSchedule} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/mentor/schedules [post]
func (c *ScheduleController) Publish(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req PublishScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	date, err := time.Parse(util.DateFormat, req.Date)
	if err != nil {
		util.BadRequest(ctx, "date must be in YYYY-MM-DD format")
		return
	}

	schedule, err := c.SlotService.Publish(user.UserID, date, req.Slots)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Created(ctx, schedule)
}

// List godoc
// @Summary Browse schedules
// @Description Lists a mentor's published schedules in a date range
// @Tags schedule
// @Produce  json
// @Security ApiKeyAuth
// @Param   mentorId query int true "Mentor ID"
// @Param   from query string false "Range start (YYYY-MM-DD)"
// @Param   to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} util.Response{data=[]model.MentorSchedule} "Success"
// @Router /api/schedules [get]
func (c *ScheduleController) List(ctx *gin.Context) {
	mentorID := util.MustParseUint(ctx.Query("mentorId"))
	if mentorID == 0 {
		util.BadRequest(ctx, "mentorId is required")
		return
	}

	var err error
	from := time.Now().Truncate(24 * time.Hour)
	if v := ctx.Query("from"); v != "" {
		if from, err = time.Parse(util.DateFormat, v); err != nil {
			util.BadRequest(ctx, "from must be in YYYY-MM-DD format")
			return
		}
	}
	to := from.AddDate(0, 0, 14)
	if v := ctx.Query("to"); v != "" {
		if to, err = time.Parse(util.DateFormat, v); err != nil {
			util.BadRequest(ctx, "to must be in YYYY-MM-DD format")
			return
		}
	}

	schedules, err := c.SlotService.ListSchedules(mentorID, from, to)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, schedules)
}

// Get godoc
// @Summary Get one schedule
// @Tags schedule
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Schedule ID"
// @Success 200 {object} util.Response{data=model.MentorSchedule} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/schedules/{id} [get]
func (c *ScheduleController) Get(ctx *gin.Context) {
	scheduleID := util.MustParseUint(ctx.Param("id"))
	if scheduleID == 0 {
		util.BadRequest(ctx, "invalid schedule id")
		return
	}

	schedule, err := c.SlotService.GetSchedule(scheduleID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, schedule)
}

// ToggleSlot godoc
// @Summary Toggle slot availability
// @Description Flips a slot's availability; disabling a booked slot needs force=true
// @Tags schedule
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Schedule ID"
// @Param   slotIndex path int true "Slot index"
// @Param   force query bool false "Force toggle on a booked slot"
// @Success 200 {object} util.Response "Success"
// @Failure 409 {object} util.Response "Slot has active bookings"
// @Router /api/mentor/schedules/{id}/slots/{slotIndex}/toggle [put]
func (c *ScheduleController) ToggleSlot(ctx *gin.Context) {
	scheduleID := util.MustParseUint(ctx.Param("id"))
	if scheduleID == 0 {
		util.BadRequest(ctx, "invalid schedule id")
		return
	}
	slotIndex := util.ParseInt(ctx.Param("slotIndex"), -1)
	if slotIndex < 0 {
		util.BadRequest(ctx, "invalid slot index")
		return
	}
	force := ctx.Query("force") == "true"

	if err := c.SlotService.ToggleAvailability(scheduleID, slotIndex, force); err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// RemoveSlot godoc
// @Summary Remove a slot
// @Description Deletes an unbooked slot from a schedule
// @Tags schedule
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Schedule ID"
// @Param   slotIndex path int true "Slot index"
// @Success 200 {object} util.Response "Success"
// @Failure 409 {object} util.Response "Slot has reserved seats"
// @Router /api/mentor/schedules/{id}/slots/{slotIndex} [delete]
func (c *ScheduleController) RemoveSlot(ctx *gin.Context) {
	scheduleID := util.MustParseUint(ctx.Param("id"))
	if scheduleID == 0 {
		util.BadRequest(ctx, "invalid schedule id")
		return
	}
	slotIndex := util.ParseInt(ctx.Param("slotIndex"), -1)
	if slotIndex < 0 {
		util.BadRequest(ctx, "invalid slot index")
		return
	}

	if err := c.SlotService.RemoveSlot(scheduleID, slotIndex); err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
