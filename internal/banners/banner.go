// Package banners implements the banner archive domain for Placard.
// It provides similarity scoring, duplicate resolution, and the ingestion
// saga that keeps blob storage and the relational store consistent when a
// cropped banner photo is saved.
package banners

import (
	"time"

	"github.com/google/uuid"
)

// Status describes a banner's moderation state.
type Status string

const (
	StatusActive  Status = "active"
	StatusHidden  Status = "hidden"
	StatusDeleted Status = "deleted"
)

// SubjectType classifies who a banner is about.
type SubjectType string

const (
	SubjectPolitician SubjectType = "politician"
	SubjectParty      SubjectType = "party"
	SubjectOther      SubjectType = "other"
)

// Banner represents a registered banner with its observation history.
// ImageURL is populated only on read paths that join the banner's first
// image (the earliest image record for the banner); it is nil elsewhere.
type Banner struct {
	ID            uuid.UUID    `json:"id"`
	Title         *string      `json:"title"`
	Hashtags      []string     `json:"hashtags"`
	SubjectType   *SubjectType `json:"subject_type"`
	RegionText    string       `json:"region_text"`
	FirstSeenAt   time.Time    `json:"first_seen_at"`
	LastSeenAt    time.Time    `json:"last_seen_at"`
	ObservedCount int          `json:"observed_count"`
	Status        Status       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	ImageURL      *string      `json:"image_url,omitempty"`
}

// Image links a banner to a stored photo crop.
type Image struct {
	ID        uuid.UUID `json:"id"`
	BannerID  uuid.UUID `json:"banner_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestCommand carries one reviewed banner candidate into the ingestion saga.
// ImageBytes holds the redacted, cropped photo produced by the analysis
// pipeline; ObservedAt is the date the banner was photographed.
type IngestCommand struct {
	Title       *string
	Hashtags    []string
	SubjectType *SubjectType
	RegionText  string
	ObservedAt  time.Time
	ImageBytes  []byte
	ContentType string
}

// Comparand returns the similarity-relevant fields of the command.
func (c IngestCommand) Comparand() Comparand {
	return Comparand{
		Title:      c.Title,
		Hashtags:   c.Hashtags,
		ObservedAt: c.ObservedAt,
	}
}

// IngestResult reports the outcome of one candidate's ingestion.
// WasDuplicate is true when the candidate was merged into an existing
// banner rather than inserted as a new record.
type IngestResult struct {
	Banner       Banner `json:"banner"`
	WasDuplicate bool   `json:"was_duplicate"`
}

// BatchResult reports the outcome of a single candidate within a batch save.
// On success Result is populated and Error is empty; on failure Error
// describes the problem and Result is nil. Failures are per-item and do not
// abort sibling candidates.
type BatchResult struct {
	Result *IngestResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}
