package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policynav-backend/config"
	"policynav-backend/models"
	"policynav-backend/repository"
)

type upstreamStub struct {
	upload func(w http.ResponseWriter, r *http.Request)
	chat   func(w http.ResponseWriter, r *http.Request)
	other  func(w http.ResponseWriter, r *http.Request)
}

func newTestClient(t *testing.T, stub upstreamStub) *WebhookClient {
	t.Helper()
	mux := http.NewServeMux()
	route := func(path string, h func(http.ResponseWriter, *http.Request)) {
		if h != nil {
			mux.HandleFunc(path, h)
		}
	}
	route("/process", stub.upload)
	route("/chat", stub.chat)
	route("/other", stub.other)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewWebhookClient(WithTargets(map[string]string{
		config.TargetProcessDoc:    srv.URL + "/process",
		config.TargetEligibility:   srv.URL + "/chat",
		config.TargetOtherPolicies: srv.URL + "/other",
	}))
}

func newTestService(client *WebhookClient, opts ...NavigatorServiceOption) *NavigatorService {
	base := []NavigatorServiceOption{
		WithUpstream(client),
		WithSessionRepository(repository.NewMemorySessionRepository(0)),
		WithMinUploadLatency(0),
		WithSessionIDGenerator(func() string { return "sess-fixed" }),
	}
	return NewNavigatorService(append(base, opts...)...)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func seedSession(t *testing.T, svc *NavigatorService, id string) {
	t.Helper()
	require.NoError(t, svc.sessions.Create(context.Background(), &models.Session{ID: id, FileName: "doc.pdf"}))
}

func TestUpload_SendsMultipartAndStoresPolicy(t *testing.T) {
	var gotSession, gotFile, gotName string
	client := newTestClient(t, upstreamStub{upload: func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotSession = r.FormValue("session_id")
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotFile = string(data)
		gotName = header.Filename
		writeJSON(w, "```json\n[{\"output\":{\"policy_name\":\"PM Kisan\",\"key_benefits\":[\"6000 per year\"]}}]\n```")
	}})
	svc := newTestService(client)

	res, err := svc.Upload(context.Background(), UploadRequest{
		FileName: "kisan.pdf",
		Size:     7,
		File:     strings.NewReader("%PDF-1."),
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-fixed", gotSession)
	assert.Equal(t, "%PDF-1.", gotFile)
	assert.Equal(t, "kisan.pdf", gotName)

	assert.Equal(t, "sess-fixed", res.SessionID)
	require.NotNil(t, res.Policy)
	assert.Equal(t, "PM Kisan", *res.Policy.PolicyName)
	assert.Equal(t, []string{"6000 per year"}, res.Policy.KeyBenefits)
	assert.False(t, res.FromText)

	stored, err := svc.GetSession(context.Background(), "sess-fixed")
	require.NoError(t, err)
	assert.Equal(t, "kisan.pdf", stored.FileName)
	require.NotNil(t, stored.Policy)
	assert.Equal(t, "PM Kisan", *stored.Policy.PolicyName)
}

func TestUpload_KeepsCallerSessionID(t *testing.T) {
	var gotSession string
	client := newTestClient(t, upstreamStub{upload: func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.FormValue("session_id")
		writeJSON(w, `{"policy_name":"X"}`)
	}})
	svc := newTestService(client)

	res, err := svc.Upload(context.Background(), UploadRequest{SessionID: " mine ", FileName: "a.pdf", File: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "mine", res.SessionID)
	assert.Equal(t, "mine", gotSession)
}

func TestUpload_OpaqueBody(t *testing.T) {
	client := newTestClient(t, upstreamStub{upload: func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "the workflow crashed")
	}})
	svc := newTestService(client)

	res, err := svc.Upload(context.Background(), UploadRequest{FileName: "a.pdf", File: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Nil(t, res.Policy)

	warning, ok := res.Raw.Get("warning")
	require.True(t, ok)
	text, _ := warning.Str()
	assert.Equal(t, "Webhook responded with invalid JSON format.", text)
	raw, _ := res.Raw.Get("raw")
	body, _ := raw.Str()
	assert.Equal(t, "the workflow crashed", body)

	_, err = svc.GetSession(context.Background(), "sess-fixed")
	assert.NoError(t, err)
}

func TestUpload_Validation(t *testing.T) {
	svc := newTestService(NewWebhookClient(), WithMaxUploadBytes(4))

	_, err := svc.Upload(context.Background(), UploadRequest{FileName: "a.pdf"})
	assert.ErrorIs(t, err, ErrMissingFile)

	_, err = svc.Upload(context.Background(), UploadRequest{FileName: "a.pdf", Size: 10, File: strings.NewReader("0123456789")})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUpload_MinimumLatency(t *testing.T) {
	client := newTestClient(t, upstreamStub{upload: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"policy_name":"Fast"}`)
	}})
	svc := newTestService(client, WithMinUploadLatency(80*time.Millisecond))

	start := time.Now()
	_, err := svc.Upload(context.Background(), UploadRequest{FileName: "a.pdf", File: strings.NewReader("x")})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestUpload_UpstreamError(t *testing.T) {
	client := newTestClient(t, upstreamStub{upload: func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}})
	svc := newTestService(client)

	_, err := svc.Upload(context.Background(), UploadRequest{FileName: "a.pdf", File: strings.NewReader("x")})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, config.TargetProcessDoc, terr.Target)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)

	_, err = svc.GetSession(context.Background(), "sess-fixed")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChat_QuestionThenVerdict(t *testing.T) {
	var payloads []map[string]string
	var mu sync.Mutex
	client := newTestClient(t, upstreamStub{chat: func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		if p["answer"] == "" {
			writeJSON(w, `[{"output":"What is your age?"}]`)
			return
		}
		writeJSON(w, `{"output":"{\"status\":\"Eligible\",\"summary\":\"You qualify\"}"}`)
	}})
	svc := newTestService(client)
	seedSession(t, svc, "s1")
	ctx := context.Background()

	first, err := svc.StartChat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.NextQuestion("What is your age?"), first.Turn)

	second, err := svc.Answer(ctx, "s1", "  42 ")
	require.NoError(t, err)
	assert.True(t, second.Turn.IsComplete())
	require.NotNil(t, second.Turn.Result)
	assert.Equal(t, models.StatusEligible, second.Turn.Result.Status)

	require.Len(t, payloads, 2)
	assert.Equal(t, map[string]string{"session_id": "s1"}, payloads[0])
	assert.Equal(t, map[string]string{"session_id": "s1", "answer": "42"}, payloads[1])

	stored, err := svc.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.Eligibility)
	assert.Equal(t, "You qualify", *stored.Eligibility.Summary)

	_, err = svc.Answer(ctx, "s1", "again")
	assert.ErrorIs(t, err, ErrSessionCompleted)

	restarted, err := svc.StartChat(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, restarted.Turn.IsComplete())
}

func TestChat_NoContentCompletes(t *testing.T) {
	client := newTestClient(t, upstreamStub{chat: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}})
	svc := newTestService(client)
	seedSession(t, svc, "s1")

	res, err := svc.Answer(context.Background(), "s1", "yes")
	require.NoError(t, err)
	assert.Equal(t, models.SessionComplete(), res.Turn)

	stored, err := svc.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Nil(t, stored.Eligibility)
}

func TestChat_Validation(t *testing.T) {
	svc := newTestService(NewWebhookClient())
	ctx := context.Background()

	_, err := svc.StartChat(ctx, "")
	assert.ErrorIs(t, err, ErrMissingSessionID)

	_, err = svc.StartChat(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Answer(ctx, "unknown", "   ")
	assert.ErrorIs(t, err, ErrMissingAnswer)
}

func TestChat_OneExchangeInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	client := newTestClient(t, upstreamStub{chat: func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeJSON(w, `{"question":"Next?"}`)
	}})
	svc := newTestService(client)
	seedSession(t, svc, "s1")

	done := make(chan error, 1)
	go func() {
		_, err := svc.StartChat(context.Background(), "s1")
		done <- err
	}()

	<-entered
	_, err := svc.Answer(context.Background(), "s1", "hello")
	assert.ErrorIs(t, err, ErrExchangeInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestDiscover(t *testing.T) {
	var gotSession string
	client := newTestClient(t, upstreamStub{other: func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		gotSession = p["session_id"]
		writeJSON(w, `[{"name":"PMAY","description":"Housing for all"},{"description":"nameless"}]`)
	}})
	svc := newTestService(client)
	seedSession(t, svc, "s1")

	res, err := svc.Discover(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", gotSession)
	assert.Nil(t, res.RawText)
	require.Len(t, res.Schemes, 1)
	assert.Equal(t, "PMAY", res.Schemes[0].Name)
}

func TestDiscover_PlainText(t *testing.T) {
	client := newTestClient(t, upstreamStub{other: func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "No other schemes found.")
	}})
	svc := newTestService(client)
	seedSession(t, svc, "s1")

	res, err := svc.Discover(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, res.Schemes)
	require.NotNil(t, res.RawText)
	assert.Equal(t, "No other schemes found.", *res.RawText)
}

func TestForward(t *testing.T) {
	var got *http.Request
	var gotBody string
	client := newTestClient(t, upstreamStub{chat: func(w http.ResponseWriter, r *http.Request) {
		got = r
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("X-Upstream", "yes")
		writeJSON(w, `{"ok":true}`)
	}})

	header := http.Header{}
	header.Set("X-Session-ID", "s1")
	header.Set("Authorization", "Bearer secret")

	resp, target, err := client.Forward(context.Background(), ForwardRequest{
		Target: "nonsense",
		Query:  url.Values{"target": {"nonsense"}, "step": {"2"}},
		Header: header,
		Body:   strings.NewReader("raw-bytes"),
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, config.TargetEligibility, target)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "yes", resp.Header.Get("X-Upstream"))

	require.NotNil(t, got)
	assert.Equal(t, "2", got.URL.Query().Get("step"))
	assert.False(t, got.URL.Query().Has("target"))
	assert.Equal(t, "s1", got.Header.Get("X-Session-ID"))
	assert.Empty(t, got.Header.Get("Authorization"))
	assert.Equal(t, "application/octet-stream", got.Header.Get("Content-Type"))
	assert.Equal(t, "raw-bytes", gotBody)
}

func TestFallbackSessionID(t *testing.T) {
	id := fallbackSessionID(time.UnixMilli(1700000000000))
	assert.Regexp(t, `^sess_[0-9a-z]{9}_1700000000000$`, id)
	assert.NotEmpty(t, NewSessionID())
}
