package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			// Логируем ошибку
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			statusCode, message := classify(err.Err)
			c.JSON(statusCode, gin.H{"error": message})
		}
	}
}

// classify сопоставляет известным ошибкам статус код и сообщение.
func classify(err error) (int, string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, appErr.Message
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "пользователь не найден"
	case errors.Is(err, repository.ErrJobNotFound):
		return http.StatusNotFound, "заказ не найден"
	case errors.Is(err, repository.ErrBidNotFound):
		return http.StatusNotFound, "отклик не найден"
	case errors.Is(err, repository.ErrEscrowNotFound):
		return http.StatusNotFound, "эскроу не найден"
	case errors.Is(err, repository.ErrDisputeNotFound):
		return http.StatusNotFound, "спор не найден"
	case errors.Is(err, repository.ErrAccountNotFound):
		return http.StatusNotFound, "счёт не найден"
	case errors.Is(err, repository.ErrInsufficientFunds):
		return http.StatusConflict, "недостаточно средств"
	case errors.Is(err, repository.ErrJobNotOpen):
		return http.StatusConflict, "заказ не принимает отклики"
	case errors.Is(err, repository.ErrJobNotInProgress):
		return http.StatusConflict, "заказ не в работе"
	case errors.Is(err, repository.ErrEscrowExists):
		return http.StatusConflict, "эскроу уже создан"
	case errors.Is(err, repository.ErrEscrowNotActive):
		return http.StatusConflict, "эскроу уже закрыт"
	case errors.Is(err, repository.ErrEscrowLocked):
		return http.StatusConflict, "средства заблокированы спором"
	case errors.Is(err, repository.ErrMilestoneAlreadyPaid):
		return http.StatusConflict, "этап уже оплачен"
	case errors.Is(err, repository.ErrDisputeExists):
		return http.StatusConflict, "по заказу уже открыт спор"
	case errors.Is(err, repository.ErrDisputeResolved):
		return http.StatusConflict, "спор уже разрешён"
	case errors.Is(err, repository.ErrInvalidMilestoneShare):
		return http.StatusBadRequest, "доли этапов превышают 100%"
	case errors.Is(err, service.ErrNotJobOwner),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotArbiter):
		return http.StatusForbidden, "нет прав на это действие"
	}

	message := err.Error()
	if message == "" || containsInternalKeywords(message) {
		return http.StatusInternalServerError, "внутренняя ошибка сервера"
	}
	statusCode := http.StatusBadRequest
	if contains(message, "нет прав") || contains(message, "не авторизован") {
		statusCode = http.StatusForbidden
	}
	return statusCode, message
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
