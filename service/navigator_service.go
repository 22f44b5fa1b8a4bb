package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"policynav-backend/config"
	"policynav-backend/logger"
	"policynav-backend/models"
	"policynav-backend/normalize"
	"policynav-backend/repository"
)

// Upstream is the webhook transport the navigator depends on
type Upstream interface {
	UploadDocument(ctx context.Context, sessionID, fileName string, file io.Reader) (*UpstreamResponse, error)
	PostJSON(ctx context.Context, target, sessionID string, payload any) (*UpstreamResponse, error)
}

// NavigatorService runs a navigation session: document upload, the
// eligibility chat and scheme discovery. At most one chat exchange is in
// flight per session.
type NavigatorService struct {
	upstream       Upstream
	sessions       repository.SessionRepository
	log            *logger.Logger
	minLatency     time.Duration
	maxUploadBytes int64
	newID          func() string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NavigatorServiceOption is a functional option for NavigatorService
type NavigatorServiceOption func(*NavigatorService)

// WithUpstream sets the webhook transport
func WithUpstream(u Upstream) NavigatorServiceOption {
	return func(s *NavigatorService) {
		s.upstream = u
	}
}

// WithSessionRepository sets the session store
func WithSessionRepository(repo repository.SessionRepository) NavigatorServiceOption {
	return func(s *NavigatorService) {
		s.sessions = repo
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) NavigatorServiceOption {
	return func(s *NavigatorService) {
		s.log = l
	}
}

// WithMinUploadLatency sets the minimum duration of a successful upload
func WithMinUploadLatency(d time.Duration) NavigatorServiceOption {
	return func(s *NavigatorService) {
		s.minLatency = d
	}
}

// WithMaxUploadBytes sets the upload size limit
func WithMaxUploadBytes(n int64) NavigatorServiceOption {
	return func(s *NavigatorService) {
		s.maxUploadBytes = n
	}
}

// WithSessionIDGenerator overrides session id generation
func WithSessionIDGenerator(gen func() string) NavigatorServiceOption {
	return func(s *NavigatorService) {
		s.newID = gen
	}
}

// NewNavigatorService creates a new navigator service
func NewNavigatorService(opts ...NavigatorServiceOption) *NavigatorService {
	s := &NavigatorService{
		log:            logger.Nop(),
		minLatency:     1500 * time.Millisecond,
		maxUploadBytes: 10 << 20,
		newID:          NewSessionID,
		inFlight:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = repository.NewMemorySessionRepository(0)
	}
	return s
}

// NewSessionID returns a random UUID, or sess_<9 base36 chars>_<unix millis>
// when no secure randomness is available
func NewSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fallbackSessionID(time.Now())
}

func fallbackSessionID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return "sess_" + b.String() + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// UploadRequest represents a document upload
type UploadRequest struct {
	// SessionID is optional; a new id is generated when empty
	SessionID string
	FileName  string
	Size      int64
	File      io.Reader
}

// UploadResult represents the normalized outcome of an upload
type UploadResult struct {
	SessionID string               `json:"session_id"`
	Policy    *models.PolicyRecord `json:"policy"`
	// FromText is set when the policy was extracted from raw document text
	FromText bool `json:"from_text"`
	// Raw is the decoded upstream payload, kept for fallback rendering
	Raw normalize.Value `json:"raw"`
}

// Upload sends the document upstream, normalizes the response into a policy
// record and opens a session for it. A response with no recognizable policy
// is not an error: Policy is nil and Raw carries what came back.
func (s *NavigatorService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if s.upstream == nil {
		return nil, errors.New("upstream not set")
	}
	if req.File == nil {
		return nil, ErrMissingFile
	}
	if s.maxUploadBytes > 0 && req.Size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.newID()
	}
	log := s.log.With("session_id", sessionID, "file_name", req.FileName)

	started := time.Now()
	resp, err := s.upstream.UploadDocument(ctx, sessionID, req.FileName, req.File)
	if err != nil {
		return nil, err
	}
	if err := s.holdUntil(ctx, started.Add(s.minLatency)); err != nil {
		return nil, err
	}

	result := &UploadResult{SessionID: sessionID}
	decoded := normalize.Decode(resp.Body, normalize.HasPolicy)
	if decoded.Opaque {
		result.Raw = normalize.Object(
			normalize.M("warning", normalize.String("Webhook responded with invalid JSON format.")),
			normalize.M("raw", normalize.String(resp.Body)),
		)
	} else {
		result.Raw = decoded.Value
		if match, ok := normalize.FindPolicy(decoded.Value); ok {
			if match.LooseMatch {
				log.Warn("policy matched on session_id alone, may be an unrelated wrapper")
			}
			result.Policy = match.Record
			result.FromText = match.FromText
		} else {
			log.Info("no policy found in upload response")
		}
	}

	session := &models.Session{
		ID:       sessionID,
		FileName: req.FileName,
		Policy:   result.Policy,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		log.Error("failed to store session", "error", err)
	}

	return result, nil
}

func (s *NavigatorService) holdUntil(ctx context.Context, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChatResult represents the outcome of a chat exchange
type ChatResult struct {
	SessionID string                  `json:"session_id"`
	Turn      models.ConversationTurn `json:"turn"`
}

type chatStartPayload struct {
	SessionID string `json:"session_id"`
}

type chatAnswerPayload struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// StartChat opens the eligibility conversation for a session. Starting again
// after the conversation finished begins a new one.
func (s *NavigatorService) StartChat(ctx context.Context, sessionID string) (*ChatResult, error) {
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		session.Completed = false
		session.Eligibility = nil
		if err := s.sessions.Update(ctx, session); err != nil {
			s.log.Error("failed to reset session", "session_id", sessionID, "error", err)
		}
	}
	return s.exchange(ctx, session, chatStartPayload{SessionID: session.ID})
}

// Answer sends the user's answer and returns the next turn
func (s *NavigatorService) Answer(ctx context.Context, sessionID, answer string) (*ChatResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrMissingAnswer
	}
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, ErrSessionCompleted
	}
	return s.exchange(ctx, session, chatAnswerPayload{SessionID: session.ID, Answer: answer})
}

func (s *NavigatorService) exchange(ctx context.Context, session *models.Session, payload any) (*ChatResult, error) {
	if !s.acquire(session.ID) {
		return nil, ErrExchangeInFlight
	}
	defer s.release(session.ID)

	resp, err := s.upstream.PostJSON(ctx, config.TargetEligibility, session.ID, payload)
	if err != nil {
		return nil, err
	}

	turn := models.SessionComplete()
	if !resp.Empty {
		turn = normalize.InterpretChatResponse(resp.Body)
	}

	if turn.IsComplete() {
		session.Completed = true
		if turn.Result != nil {
			session.Eligibility = turn.Result
		}
		if err := s.sessions.Update(ctx, session); err != nil {
			s.log.Error("failed to store chat outcome", "session_id", session.ID, "error", err)
		}
	}

	return &ChatResult{SessionID: session.ID, Turn: turn}, nil
}

// Discover asks the recommendation webhook for other schemes matching the
// session's profile
func (s *NavigatorService) Discover(ctx context.Context, sessionID string) (*models.DiscoveryResult, error) {
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := s.upstream.PostJSON(ctx, config.TargetOtherPolicies, session.ID, chatStartPayload{SessionID: session.ID})
	if err != nil {
		return nil, err
	}

	result := normalize.ExtractSchemes(resp.Body)
	s.log.Info("discovery finished", "session_id", session.ID, "schemes", len(result.Schemes))
	return &result, nil
}

// GetSession returns the stored session
func (s *NavigatorService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.requireSession(ctx, sessionID)
}

func (s *NavigatorService) requireSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if s.upstream == nil {
		return nil, errors.New("upstream not set")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func (s *NavigatorService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *NavigatorService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}
