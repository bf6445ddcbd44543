package controller

import (
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EligibilityController struct {
	EligibilityService *service.EligibilityService
	StorageService     *service.StorageService
}

func NewEligibilityController(eligibilityService *service.EligibilityService, storageService *service.StorageService) *EligibilityController {
	return &EligibilityController{
		EligibilityService: eligibilityService,
		StorageService:     storageService,
	}
}

// CheckLevel godoc
// @Summary Check booking eligibility
// @Description Runs the level gate for the current student against a required level
// @Tags eligibility
// @Produce  json
// @Security ApiKeyAuth
// @Param   requiredLevel query int true "Required level"
// @Success 200 {object} util.Response{data=service.LevelCheckResult} "Success"
// @Router /api/student/eligibility [get]
func (c *EligibilityController) CheckLevel(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	required := util.ParseInt(ctx.Query("requiredLevel"), 0)
	if required <= 0 {
		util.BadRequest(ctx, "requiredLevel is required")
		return
	}

	result, err := c.EligibilityService.CheckLevel(user.UserID, &required, c.EligibilityService.Policy())
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// swagger:model RequestVerificationRequest
type RequestVerificationRequest struct {
	TargetLevel int    `json:"targetLevel" binding:"required,min=1"`
	JourneyID   string `json:"journeyId"`
}

// RequestVerification godoc
// @Summary Request a level verification
// @Description Opens a level-jump verification; an open one is returned instead of duplicated
// @Tags eligibility
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body RequestVerificationRequest true "Target level"
// @Success 201 {object} util.Response{data=model.LevelVerification} "Created or existing"
// @Router /api/student/verifications [post]
func (c *EligibilityController) RequestVerification(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RequestVerificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	v, err := c.EligibilityService.RequestVerification(user.UserID, req.TargetLevel, req.JourneyID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Created(ctx, v)
}

// SubmitRequirement godoc
// @Summary Submit verification evidence
// @Description Records evidence for one checklist item; an attachment may be uploaded first
// @Tags eligibility
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Verification ID"
// @Param   body body service.SubmitRequirementRequest true "Evidence"
// @Success 200 {object} util.Response{data=model.LevelVerification} "Success"
// @Failure 409 {object} util.Response "Verification already settled"
// @Router /api/student/verifications/{id}/submissions [post]
func (c *EligibilityController) SubmitRequirement(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	verificationID := util.MustParseUint(ctx.Param("id"))
	if verificationID == 0 {
		util.BadRequest(ctx, "invalid verification id")
		return
	}

	var req service.SubmitRequirementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	v, err := c.EligibilityService.SubmitRequirement(verificationID, user.UserID, req)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, v)
}

// UploadEvidence godoc
// @Summary Upload an evidence attachment
// @Description Stores a file and returns the URL to reference in a submission
// @Tags eligibility
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "Evidence file"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/student/verifications/evidence [post]
func (c *EligibilityController) UploadEvidence(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	url, err := c.StorageService.Upload(ctx.Request.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}

// swagger:model DecideVerificationRequest
type DecideVerificationRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Feedback string `json:"feedback"`
}

// Decide godoc
// @Summary Settle a verification
// @Description Reviewer approves or rejects a level verification
// @Tags eligibility
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Verification ID"
// @Param   body body DecideVerificationRequest true "Decision"
// @Success 200 {object} util.Response{data=model.LevelVerification} "Success"
// @Failure 409 {object} util.Response "Already settled"
// @Router /api/admin/verifications/{id}/decision [put]
func (c *EligibilityController) Decide(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	verificationID := util.MustParseUint(ctx.Param("id"))
	if verificationID == 0 {
		util.BadRequest(ctx, "invalid verification id")
		return
	}

	var req DecideVerificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	v, err := c.EligibilityService.Decide(verificationID, model.VerificationStatus(req.Decision), user.UserID, req.Feedback)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, v)
}

// ListMine godoc
// @Summary My verifications
// @Tags eligibility
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.LevelVerification} "Success"
// @Router /api/student/verifications [get]
func (c *EligibilityController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.EligibilityService.ListVerifications(user.UserID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, list)
}

// ListPending godoc
// @Summary Reviewer queue
// @Tags eligibility
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.LevelVerification} "Success"
// @Router /api/admin/verifications [get]
func (c *EligibilityController) ListPending(ctx *gin.Context) {
	list, err := c.EligibilityService.ListPendingVerifications()
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, list)
}

// swagger:model GroupCompatibilityRequest
type GroupCompatibilityRequest struct {
	StudentIDs    []uint `json:"studentIds" binding:"required,min=1"`
	RequiredLevel *int   `json:"requiredLevel"`
	MaxLevelGap   *int   `json:"maxLevelGap"`
}

// CheckGroup godoc
// @Summary Check group compatibility
// @Description Reports whether a set of students is close enough in level for a group slot
// @Tags eligibility
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body GroupCompatibilityRequest true "Students to compare"
// @Success 200 {object} util.Response{data=service.GroupCompatibilityResult} "Success"
// @Router /api/mentor/eligibility/group [post]
func (c *EligibilityController) CheckGroup(ctx *gin.Context) {
	var req GroupCompatibilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	maxGap := c.EligibilityService.Policy().MaxLevelGap
	if req.MaxLevelGap != nil {
		maxGap = *req.MaxLevelGap
	}

	result, err := c.EligibilityService.CheckGroupCompatibility(req.StudentIDs, req.RequiredLevel, maxGap)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
