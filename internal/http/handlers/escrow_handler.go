package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// EscrowHandler предоставляет HTTP слой для операций с escrow.
type EscrowHandler struct {
	escrows *service.EscrowService
}

func NewEscrowHandler(escrows *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrows: escrows}
}

// CreateEscrow POST /jobs/:id/escrow
func (h *EscrowHandler) CreateEscrow(c *gin.Context) {
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

	escrow, err := h.escrows.CreateEscrow(c.Request.Context(), jobID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, escrow)
}

// GetEscrow GET /jobs/:id/escrow
func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.escrows.GetEscrow(c.Request.Context(), jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// Release POST /jobs/:id/escrow/release — полная выплата исполнителю.
func (h *EscrowHandler) Release(c *gin.Context) {
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

	escrow, err := h.escrows.ReleaseFull(c.Request.Context(), jobID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// PayMilestone POST /jobs/:id/escrow/milestones/:index/pay
func (h *EscrowHandler) PayMilestone(c *gin.Context) {
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
		common.RespondBadRequest(c, "неверный индекс этапа")
		return
	}

	escrow, err := h.escrows.PayMilestone(c.Request.Context(), jobID, userID, index)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// Refund POST /jobs/:id/escrow/refund — клиент отменяет заказ и забирает остаток.
func (h *EscrowHandler) Refund(c *gin.Context) {
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

	escrow, err := h.escrows.Refund(c.Request.Context(), jobID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}
