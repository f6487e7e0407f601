package course

import (
	"time"

	"gorm.io/gorm"
)

// Video is a course video, played in the unified sequence in (OrderIndex,
// CreatedAt) order.
type Video struct {
	gorm.Model
	CourseID uint   `json:"course_id" gorm:"index;not null"`
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
	Summary  string `json:"summary"`

	// OrderIndex is the explicit position set by course staff (0 = first).
	OrderIndex int `json:"order_index" gorm:"default:0"`

	// PairedDocumentID is the document shown alongside this video. The
	// pairing is positional (video i <-> document i) but persisted here and
	// recomputed on every authoring change, so reads never re-derive it.
	PairedDocumentID *uint `json:"paired_document_id" gorm:"index"`

	IsDeleted bool `gorm:"default:false"`
}

// Document is a course reading, ordered by upload time within the course.
type Document struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	FileURL     string `json:"file_url"`
	ExternalURL string `json:"external_url"`
	IsDeleted   bool   `gorm:"default:false"`
}

// VideoCompletion records that a user finished a video. At most one row per
// (user, video); re-marking is a no-op.
type VideoCompletion struct {
	gorm.Model
	UserID      uint      `json:"user_id" gorm:"uniqueIndex:idx_user_video;not null"`
	VideoID     uint      `json:"video_id" gorm:"uniqueIndex:idx_user_video;not null"`
	CourseID    uint      `json:"course_id" gorm:"index;not null"`
	CompletedAt time.Time `json:"completed_at"`
}

// DocumentCompletion records that a user finished a document. At most one row
// per (user, document).
type DocumentCompletion struct {
	gorm.Model
	UserID      uint      `json:"user_id" gorm:"uniqueIndex:idx_user_document;not null"`
	DocumentID  uint      `json:"document_id" gorm:"uniqueIndex:idx_user_document;not null"`
	CourseID    uint      `json:"course_id" gorm:"index;not null"`
	CompletedAt time.Time `json:"completed_at"`
}
