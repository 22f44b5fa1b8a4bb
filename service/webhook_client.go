package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"policynav-backend/config"
	"policynav-backend/logger"
	"policynav-backend/models"
	"policynav-backend/storage"
)

// UpstreamResponse is a completed, 2xx response from a webhook target
type UpstreamResponse struct {
	StatusCode  int
	ContentType string
	Body        string
	// Empty is set for 204 No Content and for 200 with a zero Content-Length
	Empty bool
}

// WebhookClient talks to the upstream workflow webhooks
type WebhookClient struct {
	httpClient *http.Client
	targets    map[string]string
	archive    storage.Archive
	log        *logger.Logger
	now        func() time.Time
}

// WebhookClientOption is a functional option for WebhookClient
type WebhookClientOption func(*WebhookClient)

// WithHTTPClient sets the HTTP client used for upstream calls
func WithHTTPClient(c *http.Client) WebhookClientOption {
	return func(w *WebhookClient) {
		w.httpClient = c
	}
}

// WithTimeout sets the upstream request timeout
func WithTimeout(d time.Duration) WebhookClientOption {
	return func(w *WebhookClient) {
		w.httpClient = &http.Client{Timeout: d}
	}
}

// WithTargets sets the target name to URL mapping
func WithTargets(targets map[string]string) WebhookClientOption {
	return func(w *WebhookClient) {
		w.targets = targets
	}
}

// WithArchive keeps a copy of every upstream response
func WithArchive(a storage.Archive) WebhookClientOption {
	return func(w *WebhookClient) {
		w.archive = a
	}
}

// WithClientLogger sets the logger
func WithClientLogger(l *logger.Logger) WebhookClientOption {
	return func(w *WebhookClient) {
		w.log = l
	}
}

// NewWebhookClient creates a new webhook client
func NewWebhookClient(opts ...WebhookClientOption) *WebhookClient {
	w := &WebhookClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		targets:    config.DefaultTargets,
		archive:    storage.NopArchive{},
		log:        logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// TargetURL resolves a target name
func (w *WebhookClient) TargetURL(target string) (string, error) {
	url, ok := w.targets[target]
	if !ok || url == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return url, nil
}

// UploadDocument posts the file and the session id as multipart form data to
// the document processing target
func (w *WebhookClient) UploadDocument(ctx context.Context, sessionID, fileName string, file io.Reader) (*UpstreamResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.WriteField("session_id", sessionID); err != nil {
		return nil, fmt.Errorf("failed to write session_id field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return w.post(ctx, config.TargetProcessDoc, sessionID, mw.FormDataContentType(), &buf)
}

// PostJSON posts payload as JSON to target
func (w *WebhookClient) PostJSON(ctx context.Context, target, sessionID string, payload any) (*UpstreamResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return w.post(ctx, target, sessionID, "application/json", bytes.NewReader(body))
}

func (w *WebhookClient) post(ctx context.Context, target, sessionID, contentType string, body io.Reader) (*UpstreamResponse, error) {
	url, err := w.TargetURL(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &TransportError{Target: target, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	start := w.now()
	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.Error("upstream request failed", "target", target, "session_id", sessionID, "error", err)
		return nil, &TransportError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Target: target, StatusCode: resp.StatusCode, Err: err}
	}

	out := &UpstreamResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(raw),
		Empty: resp.StatusCode == http.StatusNoContent ||
			(resp.StatusCode == http.StatusOK && resp.ContentLength == 0),
	}
	w.log.Debug("upstream response",
		"target", target,
		"session_id", sessionID,
		"status", resp.StatusCode,
		"duration_ms", w.now().Sub(start).Milliseconds(),
		"body", out.Body,
	)
	w.store(ctx, target, sessionID, out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Target:     target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("webhook error: %s", http.StatusText(resp.StatusCode)),
		}
	}
	return out, nil
}

func (w *WebhookClient) store(ctx context.Context, target, sessionID string, resp *UpstreamResponse) {
	rec := &models.ArchivedResponse{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Target:      target,
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Body:        resp.Body,
		ReceivedAt:  w.now().UTC(),
	}
	if _, err := w.archive.Put(ctx, rec); err != nil {
		w.log.Warn("failed to archive upstream response", "target", target, "session_id", sessionID, "error", err)
	}
}
