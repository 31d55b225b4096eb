package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// PortfolioHandler предоставляет HTTP слой для портфолио.
type PortfolioHandler struct {
	portfolio *service.PortfolioService
}

func NewPortfolioHandler(portfolio *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio}
}

type portfolioRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	URI         *string  `json:"uri"`
	Skills      []string `json:"skills"`
}

// Create POST /portfolio
func (h *PortfolioHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	item, err := h.portfolio.Create(c.Request.Context(), userID, service.PortfolioInput{
		Title:       req.Title,
		Description: req.Description,
		URI:         req.URI,
		Skills:      req.Skills,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListByUser GET /users/:id/portfolio
func (h *PortfolioHandler) ListByUser(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	items, err := h.portfolio.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Update PUT /portfolio/:id
func (h *PortfolioHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	item, err := h.portfolio.Update(c.Request.Context(), itemID, userID, service.PortfolioInput{
		Title:       req.Title,
		Description: req.Description,
		URI:         req.URI,
		Skills:      req.Skills,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete DELETE /portfolio/:id
func (h *PortfolioHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.portfolio.Delete(c.Request.Context(), itemID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "работа удалена"})
}
