package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// ProfileHandler предоставляет HTTP слой для профилей.
type ProfileHandler struct {
	profiles *service.ProfileService
	reviews  *service.ReviewService
}

func NewProfileHandler(profiles *service.ProfileService, reviews *service.ReviewService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, reviews: reviews}
}

// GetMyProfile GET /profile
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile PUT /profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		DisplayName     string   `json:"display_name" binding:"required"`
		Bio             *string  `json:"bio"`
		HourlyRate      *int64   `json:"hourly_rate"`
		ExperienceLevel string   `json:"experience_level"`
		Skills          []string `json:"skills"`
		Location        *string  `json:"location"`
		AvatarURI       *string  `json:"avatar_uri"`
		Website         *string  `json:"website"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, service.ProfileInput{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		HourlyRate:      req.HourlyRate,
		ExperienceLevel: req.ExperienceLevel,
		Skills:          req.Skills,
		Location:        req.Location,
		AvatarURI:       req.AvatarURI,
		Website:         req.Website,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetUserProfile GET /users/:id/profile — публичный профиль со статистикой.
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	stats, err := h.reviews.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile, "stats": stats})
}
