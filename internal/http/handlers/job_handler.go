package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// JobHandler предоставляет HTTP слой для заказов и ставок.
type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// CreateJob POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description" binding:"required"`
		Budget      int64     `json:"budget" binding:"required,gt=0"`
		Deadline    time.Time `json:"deadline" binding:"required"`
		Currency    string    `json:"currency"`
		Category    string    `json:"category"`
		Skills      []string  `json:"skills"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), userID, service.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Currency:    req.Currency,
		Category:    req.Category,
		Skills:      req.Skills,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListJobs GET /jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	status := c.Query("status")
	category := c.Query("category")

	jobs, err := h.jobs.ListJobs(c.Request.Context(), status, category, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetJob GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListMyJobs GET /jobs/my — заказы текущего клиента.
func (h *JobHandler) ListMyJobs(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListClientJobs(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// ListAssignedJobs GET /jobs/assigned — заказы текущего исполнителя.
func (h *JobHandler) ListAssignedJobs(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListFreelancerJobs(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// PlaceBid POST /jobs/:id/bids
func (h *JobHandler) PlaceBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Amount         int64     `json:"amount" binding:"required,gt=0"`
		CompletionTime time.Time `json:"completion_time" binding:"required"`
		Proposal       string    `json:"proposal" binding:"required"`
		Milestones     []struct {
			Title       string    `json:"title" binding:"required"`
			Description string    `json:"description"`
			ShareBPS    int64     `json:"share_bps" binding:"required,gt=0"`
			Deadline    time.Time `json:"deadline" binding:"required"`
		} `json:"milestones"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestones := make([]models.BidMilestone, 0, len(req.Milestones))
	for i, m := range req.Milestones {
		milestones = append(milestones, models.BidMilestone{
			Position:    i,
			Title:       m.Title,
			Description: m.Description,
			ShareBPS:    m.ShareBPS,
			Deadline:    m.Deadline,
		})
	}

	bid, err := h.jobs.PlaceBid(c.Request.Context(), jobID, userID, service.PlaceBidInput{
		Amount:         req.Amount,
		CompletionTime: req.CompletionTime,
		Proposal:       req.Proposal,
		Milestones:     milestones,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

// AcceptBid POST /jobs/:id/bids/:index/accept
func (h *JobHandler) AcceptBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		common.RespondBadRequest(c, "неверный индекс ставки")
		return
	}

	bid, err := h.jobs.AcceptBid(c.Request.Context(), jobID, userID, index)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// CancelJob POST /jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.CancelJob(c.Request.Context(), jobID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "заказ отменён"})
}
