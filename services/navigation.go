package services

import (
	"errors"
	"sort"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Content kinds in the unified sequence.
const (
	KindVideo    = "video"
	KindDocument = "document"
)

// ErrNoContent is returned when navigation is attempted on a course that has
// no videos and no documents.
var ErrNoContent = errors.New("course has no content")

// ErrContentLocked is returned when a student tries to open an item whose
// predecessor is not completed yet.
var ErrContentLocked = errors.New("previous content not completed")

// ErrContentNotFound is returned when the requested item is not part of the
// course sequence.
var ErrContentNotFound = errors.New("content not in course sequence")

// ContentRef is one position in a course's unified sequence.
type ContentRef struct {
	Kind      string `json:"kind"` // video or document
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	Completed bool   `json:"completed"`

	// PairedDocumentID is set on video entries whose document companion is
	// completed together with them.
	PairedDocumentID *uint `json:"paired_document_id,omitempty"`

	// RelatedVideoID is set on document entries that sit next to a video;
	// leftover documents at the tail of the sequence have none.
	RelatedVideoID *uint `json:"related_video_id,omitempty"`
}

// BuildUnifiedSequence interleaves a course's videos and documents into the
// single ordered list users navigate. Videos sort by (order index, creation
// time), documents by upload time; the two lists are zipped pairwise
// (video 0, document 0, video 1, document 1, ...) and leftover documents are
// appended at the end.
func BuildUnifiedSequence(db *gorm.DB, courseID uint) ([]ContentRef, error) {
	var videos []courseModels.Video
	err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].OrderIndex != videos[j].OrderIndex {
			return videos[i].OrderIndex < videos[j].OrderIndex
		}
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})

	var documents []courseModels.Document
	err = db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("created_at ASC").
		Find(&documents).Error
	if err != nil {
		return nil, err
	}

	sequence := make([]ContentRef, 0, len(videos)+len(documents))
	longer := len(videos)
	if len(documents) > longer {
		longer = len(documents)
	}
	for i := 0; i < longer; i++ {
		if i < len(videos) {
			ref := ContentRef{Kind: KindVideo, ID: videos[i].ID, Title: videos[i].Title}
			if i < len(documents) {
				id := documents[i].ID
				ref.PairedDocumentID = &id
			}
			sequence = append(sequence, ref)
		}
		if i < len(documents) {
			ref := ContentRef{Kind: KindDocument, ID: documents[i].ID, Title: documents[i].Title}
			if i < len(videos) {
				id := videos[i].ID
				ref.RelatedVideoID = &id
			}
			sequence = append(sequence, ref)
		}
	}
	for i := range sequence {
		sequence[i].Position = i
	}
	return sequence, nil
}

// ResequenceCourse rebuilds the sequence and persists the video-document
// pairing on each video row. Run it after every authoring change (upload,
// delete, reorder) so the stored pairing never drifts from the computed one.
func ResequenceCourse(db *gorm.DB, courseID uint) error {
	sequence, err := BuildUnifiedSequence(db, courseID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&courseModels.Video{}).
			Where("course_id = ?", courseID).
			Update("paired_document_id", nil).Error
		if err != nil {
			return err
		}
		for _, ref := range sequence {
			if ref.Kind != KindVideo || ref.PairedDocumentID == nil {
				continue
			}
			err := tx.Model(&courseModels.Video{}).
				Where("id = ?", ref.ID).
				Update("paired_document_id", *ref.PairedDocumentID).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// AnnotateCompletion fills the Completed flags on a sequence for one user.
func AnnotateCompletion(db *gorm.DB, userID uint, sequence []ContentRef) error {
	videoIDs := make([]uint, 0, len(sequence))
	docIDs := make([]uint, 0, len(sequence))
	for _, ref := range sequence {
		if ref.Kind == KindVideo {
			videoIDs = append(videoIDs, ref.ID)
		} else {
			docIDs = append(docIDs, ref.ID)
		}
	}

	doneVideos := make(map[uint]bool)
	if len(videoIDs) > 0 {
		var completions []courseModels.VideoCompletion
		err := db.Where("user_id = ? AND video_id IN ?", userID, videoIDs).
			Find(&completions).Error
		if err != nil {
			return err
		}
		for _, c := range completions {
			doneVideos[c.VideoID] = true
		}
	}

	doneDocs := make(map[uint]bool)
	if len(docIDs) > 0 {
		var completions []courseModels.DocumentCompletion
		err := db.Where("user_id = ? AND document_id IN ?", userID, docIDs).
			Find(&completions).Error
		if err != nil {
			return err
		}
		for _, c := range completions {
			doneDocs[c.DocumentID] = true
		}
	}

	for i := range sequence {
		if sequence[i].Kind == KindVideo {
			sequence[i].Completed = doneVideos[sequence[i].ID]
		} else {
			sequence[i].Completed = doneDocs[sequence[i].ID]
		}
	}
	return nil
}

// FindIndex locates an item in the sequence, -1 when absent.
func FindIndex(sequence []ContentRef, kind string, id uint) int {
	for i, ref := range sequence {
		if ref.Kind == kind && ref.ID == id {
			return i
		}
	}
	return -1
}

// Navigate returns the previous and next items around the given one. Either
// side is nil at the edges of the sequence.
func Navigate(sequence []ContentRef, kind string, id uint) (prev, next *ContentRef, err error) {
	if len(sequence) == 0 {
		return nil, nil, ErrNoContent
	}
	idx := FindIndex(sequence, kind, id)
	if idx < 0 {
		return nil, nil, ErrContentNotFound
	}
	if idx > 0 {
		prev = &sequence[idx-1]
	}
	if idx < len(sequence)-1 {
		next = &sequence[idx+1]
	}
	return prev, next, nil
}

// ValidateAccess enforces sequential consumption: item i is reachable only
// once item i-1 is completed. The first item is always reachable, and
// privileged users bypass the gate entirely. With ErrContentLocked the
// blocking predecessor is returned so the caller can redirect the user to it.
func ValidateAccess(sequence []ContentRef, kind string, id uint, privileged bool) (*ContentRef, error) {
	if len(sequence) == 0 {
		return nil, ErrNoContent
	}
	idx := FindIndex(sequence, kind, id)
	if idx < 0 {
		return nil, ErrContentNotFound
	}
	if privileged || idx == 0 {
		return nil, nil
	}
	if !sequence[idx-1].Completed {
		return &sequence[idx-1], ErrContentLocked
	}
	return nil, nil
}

// MarkVideoCompleted records a video completion and, when the video has a
// paired document, completes that too. Both writes are idempotent.
func MarkVideoCompleted(db *gorm.DB, userID uint, video *courseModels.Video) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := upsertVideoCompletion(tx, userID, video.ID, video.CourseID); err != nil {
			return err
		}
		if video.PairedDocumentID != nil {
			return SyncPairedDocument(tx, userID, video)
		}
		return nil
	})
}

// SyncPairedDocument completes the document paired with a video. The sync is
// one-way: completing a document never completes its video.
func SyncPairedDocument(tx *gorm.DB, userID uint, video *courseModels.Video) error {
	if video.PairedDocumentID == nil {
		return nil
	}
	return upsertDocumentCompletion(tx, userID, *video.PairedDocumentID, video.CourseID)
}

// MarkDocumentCompleted records a document completion. Idempotent.
func MarkDocumentCompleted(db *gorm.DB, userID uint, doc *courseModels.Document) error {
	return upsertDocumentCompletion(db, userID, doc.ID, doc.CourseID)
}

// UnmarkVideoCompleted removes a video completion. The paired document stays
// completed; un-marking never cascades.
func UnmarkVideoCompleted(db *gorm.DB, userID, videoID uint) error {
	return db.Unscoped().
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&courseModels.VideoCompletion{}).Error
}

// UnmarkDocumentCompleted removes a document completion.
func UnmarkDocumentCompleted(db *gorm.DB, userID, documentID uint) error {
	return db.Unscoped().
		Where("user_id = ? AND document_id = ?", userID, documentID).
		Delete(&courseModels.DocumentCompletion{}).Error
}

func upsertVideoCompletion(tx *gorm.DB, userID, videoID, courseID uint) error {
	var existing courseModels.VideoCompletion
	err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&courseModels.VideoCompletion{
		UserID:      userID,
		VideoID:     videoID,
		CourseID:    courseID,
		CompletedAt: time.Now(),
	}).Error
}

func upsertDocumentCompletion(tx *gorm.DB, userID, documentID, courseID uint) error {
	var existing courseModels.DocumentCompletion
	err := tx.Where("user_id = ? AND document_id = ?", userID, documentID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&courseModels.DocumentCompletion{
		UserID:      userID,
		DocumentID:  documentID,
		CourseID:    courseID,
		CompletedAt: time.Now(),
	}).Error
}
