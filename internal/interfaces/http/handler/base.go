package handler

import (
	"errors"
	"net/http"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/interfaces/http/dto"
	"github.com/clinicrx/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithTotal sends a full listing with its size
func (h *BaseHandler) SuccessWithTotal(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	h.send(c, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// BindError answers a request whose body or query could not be bound
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		h.send(c, dto.NewValidationErrorResponse("Request validation failed", getRequestID(c), details))
		return
	}
	h.Error(c, dto.ErrCodeInvalidJSON, err.Error())
}

// bindOptionalJSON binds the body when there is one. It reports false after
// answering the request with a binding error.
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		h.BindError(c, err)
		return false
	}
	return true
}

// HandleError converts service errors to HTTP responses. Errors without a
// domain code are logged and hidden behind a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := shared.ErrorCode(err)
	if code == dto.ErrCodeInternal {
		logger.L(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		h.Error(c, code, "An unexpected error occurred")
		return
	}

	resp := dto.NewErrorResponseWithRequestID(code, err.Error(), getRequestID(c))
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		resp.Error.Message = verr.Message
		resp.Error.Field = verr.Field
		resp.Error.Candidates = verr.Candidates
	}
	h.send(c, resp)
}

func (h *BaseHandler) send(c *gin.Context, resp dto.Response) {
	c.Set(middleware.ErrorCodeKey, resp.Error.Code)
	c.JSON(dto.GetHTTPStatus(resp.Error.Code), resp)
}

// parseID reads a uuid path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.Error(c, dto.ErrCodeInvalidID, "Invalid "+param+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// NotFoundRoute answers requests that match no route
func NotFoundRoute(c *gin.Context) {
	(&BaseHandler{}).Error(c, dto.ErrCodeRouteNotFound, "No route for "+c.Request.Method+" "+c.Request.URL.Path)
}
