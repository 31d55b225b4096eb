package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// respondServiceError переводит ошибку сервиса в HTTP ответ.
func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		common.RespondError(c, appErr.HTTPStatus, appErr.Message)
		return
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrJobNotFound),
		errors.Is(err, repository.ErrBidNotFound),
		errors.Is(err, repository.ErrEscrowNotFound),
		errors.Is(err, repository.ErrDisputeNotFound),
		errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrReviewNotFound),
		errors.Is(err, repository.ErrPortfolioItemNotFound):
		common.RespondNotFound(c, err.Error())
	case errors.Is(err, service.ErrNotJobOwner),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotArbiter):
		common.RespondForbidden(c, err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds),
		errors.Is(err, repository.ErrJobNotOpen),
		errors.Is(err, repository.ErrJobNotInProgress),
		errors.Is(err, repository.ErrEscrowExists),
		errors.Is(err, repository.ErrEscrowNotActive),
		errors.Is(err, repository.ErrEscrowLocked),
		errors.Is(err, repository.ErrMilestoneAlreadyPaid),
		errors.Is(err, repository.ErrDisputeExists),
		errors.Is(err, repository.ErrDisputeResolved),
		errors.Is(err, repository.ErrReviewExists):
		common.RespondError(c, http.StatusConflict, err.Error())
	default:
		msg := err.Error()
		if isInternalError(msg) {
			common.RespondError(c, http.StatusInternalServerError, "внутренняя ошибка сервера")
			return
		}
		common.RespondBadRequest(c, msg)
	}
}

func isInternalError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, keyword := range []string{"sql:", "database", "connection", "timeout"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
