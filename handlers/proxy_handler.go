package handlers

import (
	"io"
	"net/http"
	"strings"

	"policynav-backend/logger"
	"policynav-backend/service"

	"github.com/gin-gonic/gin"
)

// hopHeaders are never copied from the upstream response. CORS headers are
// left to the CORS middleware.
var hopHeaders = map[string]bool{
	"content-encoding":  true,
	"content-length":    true,
	"transfer-encoding": true,
	"connection":        true,
}

// ProxyHandler relays browser requests to the webhook targets
type ProxyHandler struct {
	client *service.WebhookClient
	log    *logger.Logger
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(client *service.WebhookClient, log *logger.Logger) *ProxyHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProxyHandler{client: client, log: log}
}

// Forward handles POST /proxy?target=...
func (h *ProxyHandler) Forward(c *gin.Context) {
	resp, target, err := h.client.Forward(c.Request.Context(), service.ForwardRequest{
		Target:      c.Query("target"),
		Query:       c.Request.URL.Query(),
		Header:      c.Request.Header,
		ContentType: c.GetHeader("Content-Type"),
		Body:        c.Request.Body,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to reach backend agent",
			"details": err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		lower := strings.ToLower(key)
		if hopHeaders[lower] || strings.HasPrefix(lower, "access-control-") {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.log.Warn("failed to relay upstream body", "target", target, "error", err)
	}
}

// Preflight handles OPTIONS /proxy
func (h *ProxyHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
