package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/infrastructure/logger"
	"github.com/dvd/backend/internal/interfaces/http/dto"
	"github.com/dvd/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// loginErrorCodes maps login sentinels to API error codes, most specific first
var loginErrorCodes = []struct {
	err  error
	code string
}{
	{qrlogin.ErrTicketReused, dto.ErrCodeTicketReused},
	{qrlogin.ErrVerificationCodeRejected, dto.ErrCodeVerificationRejected},
	{qrlogin.ErrVerificationDispatch, dto.ErrCodeVerificationDispatch},
	{qrlogin.ErrVerificationFailed, dto.ErrCodeVerificationFailed},
	{qrlogin.ErrAttemptExpired, dto.ErrCodeAttemptExpired},
	{qrlogin.ErrAttemptNotFound, dto.ErrCodeAttemptNotFound},
	{qrlogin.ErrConfigNotFound, dto.ErrCodeConfigNotFound},
	{qrlogin.ErrUnsupportedPlatform, dto.ErrCodeUnsupportedPlatform},
	{qrlogin.ErrUpstream, dto.ErrCodeUpstream},
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// BindError reports a failed ShouldBind call, with field details when the
// validator rejected the request.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
}

// HandleError converts login, domain and context errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	for _, m := range loginErrorCodes {
		if errors.Is(err, m.err) {
			message := qrlogin.PlatformMessage(err)
			if message == "" {
				message = m.err.Error()
			}
			if m.code == dto.ErrCodeUpstream {
				logger.GetGinLogger(c).Warn("Platform request failed", zap.Error(err))
			}
			h.ErrorWithCode(c, m.code, message)
			return
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.ErrorWithCode(c, dto.ErrCodeTimeout, "Request timed out")
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
