package handlers

import (
	"errors"
	"net/http"

	"policynav-backend/logger"
	"policynav-backend/service"

	"github.com/gin-gonic/gin"
)

// NavigatorHandler handles HTTP requests for navigation sessions
type NavigatorHandler struct {
	navigator *service.NavigatorService
	log       *logger.Logger
}

// NewNavigatorHandler creates a new navigator handler
func NewNavigatorHandler(navigator *service.NavigatorService, log *logger.Logger) *NavigatorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &NavigatorHandler{
		navigator: navigator,
		log:       log,
	}
}

// SessionRequest represents a request body carrying only a session id
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// AnswerRequest represents the request body for answering a chat question
type AnswerRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Answer    string `json:"answer"`
}

// Upload handles POST /api/upload
func (h *NavigatorHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.fail(c, service.ErrMissingFile)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to read uploaded file",
			},
		})
		return
	}
	defer file.Close()

	result, err := h.navigator.Upload(c.Request.Context(), service.UploadRequest{
		SessionID: c.PostForm("session_id"),
		FileName:  fileHeader.Filename,
		Size:      fileHeader.Size,
		File:      file,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// StartChat handles POST /api/chat/start
func (h *NavigatorHandler) StartChat(c *gin.Context) {
	var req SessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.navigator.StartChat(c.Request.Context(), req.SessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Answer handles POST /api/chat/answer
func (h *NavigatorHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.navigator.Answer(c.Request.Context(), req.SessionID, req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Discover handles POST /api/discover
func (h *NavigatorHandler) Discover(c *gin.Context) {
	var req SessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.navigator.Discover(c.Request.Context(), req.SessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetSession handles GET /api/sessions/:id
func (h *NavigatorHandler) GetSession(c *gin.Context) {
	session, err := h.navigator.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return false
	}
	return true
}

func (h *NavigatorHandler) fail(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}

func errorStatus(err error) (int, string) {
	var terr *service.TransportError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, service.ErrMissingSessionID):
		return http.StatusBadRequest, "MISSING_SESSION_ID"
	case errors.Is(err, service.ErrMissingAnswer):
		return http.StatusBadRequest, "MISSING_ANSWER"
	case errors.Is(err, service.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE"
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, service.ErrExchangeInFlight):
		return http.StatusConflict, "EXCHANGE_IN_FLIGHT"
	case errors.Is(err, service.ErrSessionCompleted):
		return http.StatusConflict, "SESSION_COMPLETED"
	case errors.As(err, &terr):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
