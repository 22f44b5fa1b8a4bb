package models

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedResponse is a raw upstream response kept for troubleshooting
type ArchivedResponse struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"session_id"`
	Target      string    `json:"target"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        string    `json:"body"`
	StoragePath string    `json:"storage_path,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}
