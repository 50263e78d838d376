package appeals

import (
	"time"

	"github.com/google/uuid"
)

// ReasonType categorizes why a banner's removal or correction is requested.
type ReasonType string

const (
	ReasonPrivacy   ReasonType = "privacy"
	ReasonPortrait  ReasonType = "portrait"
	ReasonFalseInfo ReasonType = "false_info"
	ReasonOther     ReasonType = "other"
)

// Status tracks an appeal through moderation.
type Status string

const (
	StatusReceived    Status = "received"
	StatusUnderReview Status = "under_review"
	StatusActioned    Status = "actioned"
	StatusRejected    Status = "rejected"
)

// Appeal is a takedown or correction request filed against a banner.
type Appeal struct {
	ID        uuid.UUID  `json:"id"`
	BannerID  uuid.UUID  `json:"banner_id"`
	Reason    ReasonType `json:"reason"`
	Detail    *string    `json:"detail"`
	Contact   *string    `json:"contact"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateCommand carries the fields needed to file an appeal.
type CreateCommand struct {
	BannerID uuid.UUID  `json:"banner_id" validate:"required"`
	Reason   ReasonType `json:"reason" validate:"required,oneof=privacy portrait false_info other"`
	Detail   *string    `json:"detail" validate:"omitempty,max=2000"`
	Contact  *string    `json:"contact" validate:"omitempty,max=200"`
}
