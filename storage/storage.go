package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"policynav-backend/models"
)

// ErrArchiveNotFound is returned when an archived response does not exist
var ErrArchiveNotFound = errors.New("archived response not found")

// Archive stores raw upstream responses
type Archive interface {
	// Put stores a response and returns its storage path
	Put(ctx context.Context, resp *models.ArchivedResponse) (string, error)

	// Get retrieves a response by storage path
	Get(ctx context.Context, storagePath string) (*models.ArchivedResponse, error)

	// Delete removes a response by storage path
	Delete(ctx context.Context, storagePath string) error
}

// ArchiveType represents the archive backend type
type ArchiveType string

const (
	ArchiveTypeNone  ArchiveType = "none"
	ArchiveTypeLocal ArchiveType = "local"
	ArchiveTypeS3    ArchiveType = "s3"
)

// ArchiveConfig holds configuration for the archive
type ArchiveConfig struct {
	Type         ArchiveType
	LocalPath    string // For local archive
	S3Bucket     string // For S3 archive
	S3Region     string // For S3 archive
	S3Prefix     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewArchive creates an archive instance based on configuration
func NewArchive(cfg ArchiveConfig) (Archive, error) {
	switch cfg.Type {
	case ArchiveTypeNone, "":
		return NopArchive{}, nil
	case ArchiveTypeLocal:
		return NewLocalArchive(cfg.LocalPath)
	case ArchiveTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for the s3 archive")
		}
		return NewS3Archive(cfg)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// NopArchive drops every response
type NopArchive struct{}

func (NopArchive) Put(context.Context, *models.ArchivedResponse) (string, error) { return "", nil }

func (NopArchive) Get(context.Context, string) (*models.ArchivedResponse, error) {
	return nil, ErrArchiveNotFound
}

func (NopArchive) Delete(context.Context, string) error { return nil }

// generateArchivePath builds <session>/<unix millis>_<target>_<id>.json
func generateArchivePath(resp *models.ArchivedResponse) string {
	return fmt.Sprintf("%s/%d_%s_%s.json",
		sanitize(resp.SessionID), resp.ReceivedAt.UnixMilli(), sanitize(resp.Target), resp.ID.String())
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "..", "_")
	return s
}

func encode(resp *models.ArchivedResponse) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archived response: %w", err)
	}
	return data, nil
}

func decode(r io.Reader) (*models.ArchivedResponse, error) {
	var resp models.ArchivedResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode archived response: %w", err)
	}
	return &resp, nil
}
