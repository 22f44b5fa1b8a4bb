package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"policynav-backend/config"
)

// ForwardRequest is a browser request relayed verbatim to a webhook target
type ForwardRequest struct {
	Target      string
	Query       url.Values
	Header      http.Header
	ContentType string
	Body        io.Reader
}

// Forward relays req to its target and returns the upstream response
// unread. An unknown target falls back to the eligibility webhook. Query
// parameters other than target and every X- header are passed on.
// The caller must close the response body.
func (w *WebhookClient) Forward(ctx context.Context, req ForwardRequest) (*http.Response, string, error) {
	target := req.Target
	if _, ok := w.targets[target]; !ok {
		target = config.TargetEligibility
	}
	targetURL, err := w.TargetURL(target)
	if err != nil {
		return nil, target, err
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, target, &TransportError{Target: target, Err: err}
	}
	q := u.Query()
	for key, values := range req.Query {
		if key == "target" {
			continue
		}
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	out, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), req.Body)
	if err != nil {
		return nil, target, &TransportError{Target: target, Err: err}
	}
	for key, values := range req.Header {
		if !strings.HasPrefix(strings.ToLower(key), "x-") {
			continue
		}
		for _, v := range values {
			out.Header.Add(key, v)
		}
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	out.Header.Set("Content-Type", contentType)

	w.log.Info("forwarding request", "target", target, "url", u.String())
	resp, err := w.httpClient.Do(out)
	if err != nil {
		w.log.Error("proxy request failed", "target", target, "error", err)
		return nil, target, &TransportError{Target: target, Err: err}
	}
	if resp.StatusCode >= 400 {
		w.log.Warn("upstream returned error status", "target", target, "status", resp.StatusCode)
	}
	return resp, target, nil
}
