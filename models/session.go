package models

import (
	"time"
)

// Session represents one upload-to-discovery navigation session
type Session struct {
	ID          string             `json:"id"`
	FileName    string             `json:"file_name"`
	Policy      *PolicyRecord      `json:"policy"`
	Eligibility *EligibilityResult `json:"eligibility"`
	Completed   bool               `json:"completed"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
