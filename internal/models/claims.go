package models

import (
	"time"
)

// Submission is one damage-photo upload as received from the client.
// It lives only for the duration of the request.
type Submission struct {
	File       []byte
	Filename   string
	DamageType string
}

// AnalysisResult is the typed shape of the analysis service's response,
// resolved once at the gateway boundary. Fields the service omits keep
// their zero values; Timestamp is filled in by the gateway when absent.
type AnalysisResult struct {
	Success         bool   `json:"success"`
	Filename        string `json:"filename"`
	DamageType      string `json:"damage_type"`
	ImageCaption    string `json:"image_caption"`
	LossDescription string `json:"loss_description"`
	ImageData       string `json:"image_data,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// UploadResult is the upload response body: the analysis result plus the
// identifier of the history entry recorded for it.
type UploadResult struct {
	AnalysisResult
	HistoryID string `json:"history_id,omitempty"`
}

type HistoryEntry struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"-" db:"user_id"`
	DamageType      string    `json:"damage_type" db:"damage_type"`
	Filename        string    `json:"filename" db:"filename"`
	ImageKey        string    `json:"image_key,omitempty" db:"image_key"`
	ImageCaption    string    `json:"image_caption" db:"image_caption"`
	LossDescription string    `json:"loss_description" db:"loss_description"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ReportRequest drives one PDF rendering. Never stored.
type ReportRequest struct {
	Description string `json:"description"`
	DamageType  string `json:"damage_type"`
	ImageData   string `json:"image_data"`
}
