package controller

import (
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BookingController struct {
	BookingService *service.BookingService
}

func NewBookingController(bookingService *service.BookingService) *BookingController {
	return &BookingController{BookingService: bookingService}
}

// swagger:model BookSlotRequest
type BookSlotRequest struct {
	ScheduleID uint `json:"scheduleId" binding:"required"`
	SlotIndex  *int `json:"slotIndex" binding:"required"`
	PartySize  int  `json:"partySize"`
}

// Book godoc
// @Summary Book a slot
// @Description Runs the gate, reserves the seats, consumes a credit and records the booking
// @Tags booking
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body BookSlotRequest true "Slot to book"
// @Success 201 {object} util.Response{data=model.Booking} "Booked"
// @Failure 402 {object} util.Response "No usable subscription"
// @Failure 403 {object} util.Response "Level requirement not met"
// @Failure 409 {object} util.Response "Slot unavailable or full"
// @Router /api/student/bookings [post]
func (c *BookingController) Book(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req BookSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	booking, err := c.BookingService.Book(user.UserID, req.ScheduleID, *req.SlotIndex, req.PartySize)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Created(ctx, booking)
}

// Cancel godoc
// @Summary Cancel a booking
// @Description Releases the seats and refunds the credit; repeat calls are no-ops
// @Tags booking
// @Produce  json
// @Security ApiKeyAuth
// @Param   ref path string true "Booking ref"
// @Success 200 {object} util.Response "Cancelled"
// @Failure 404 {object} util.Response "Unknown booking"
// @Router /api/student/bookings/{ref} [delete]
func (c *BookingController) Cancel(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	ref := ctx.Param("ref")
	booking, err := c.BookingService.GetByRef(ref)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	if booking.StudentID != user.UserID {
		util.Forbidden(ctx)
		return
	}

	if err := c.BookingService.Cancel(ref); err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// List godoc
// @Summary My bookings
// @Tags booking
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Booking} "Success"
// @Router /api/student/bookings [get]
func (c *BookingController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	bookings, err := c.BookingService.ListByStudent(user.UserID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, bookings)
}

// Get godoc
// @Summary One booking by ref
// @Tags booking
// @Produce  json
// @Security ApiKeyAuth
// @Param   ref path string true "Booking ref"
// @Success 200 {object} util.Response{data=model.Booking} "Success"
// @Failure 404 {object} util.Response "Unknown booking"
// @Router /api/student/bookings/{ref} [get]
func (c *BookingController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	booking, err := c.BookingService.GetByRef(ctx.Param("ref"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	if booking.StudentID != user.UserID && user.Role != model.Admin {
		util.Forbidden(ctx)
		return
	}

	util.Success(ctx, booking)
}
