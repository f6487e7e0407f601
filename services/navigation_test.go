package services

import (
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUnifiedSequenceZipsVideosAndDocuments(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	v0 := createVideo(t, db, course.ID, "Video 0", 0, base)
	v1 := createVideo(t, db, course.ID, "Video 1", 1, base.Add(time.Hour))
	d0 := createDocument(t, db, course.ID, "Doc 0", base)
	d1 := createDocument(t, db, course.ID, "Doc 1", base.Add(time.Minute))
	d2 := createDocument(t, db, course.ID, "Doc 2", base.Add(2*time.Minute))

	sequence, err := BuildUnifiedSequence(db, course.ID)
	require.NoError(t, err)
	require.Len(t, sequence, 5)

	// v0, d0, v1, d1, leftover d2 appended
	assert.Equal(t, []uint{v0.ID, d0.ID, v1.ID, d1.ID, d2.ID},
		[]uint{sequence[0].ID, sequence[1].ID, sequence[2].ID, sequence[3].ID, sequence[4].ID})
	assert.Equal(t, KindVideo, sequence[0].Kind)
	assert.Equal(t, KindDocument, sequence[1].Kind)
	assert.Equal(t, KindVideo, sequence[2].Kind)
	for i, ref := range sequence {
		assert.Equal(t, i, ref.Position)
	}

	require.NotNil(t, sequence[0].PairedDocumentID)
	assert.Equal(t, d0.ID, *sequence[0].PairedDocumentID)
	require.NotNil(t, sequence[2].PairedDocumentID)
	assert.Equal(t, d1.ID, *sequence[2].PairedDocumentID)

	require.NotNil(t, sequence[1].RelatedVideoID)
	assert.Equal(t, v0.ID, *sequence[1].RelatedVideoID)
	assert.Nil(t, sequence[4].RelatedVideoID, "leftover document has no companion video")
}

func TestBuildUnifiedSequenceOrdersByIndexThenTime(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	// uploaded out of order, same index breaks the tie by creation time
	late := createVideo(t, db, course.ID, "Late upload, first slot", 0, base.Add(2*time.Hour))
	early := createVideo(t, db, course.ID, "Early upload, first slot", 0, base)
	second := createVideo(t, db, course.ID, "Second slot", 1, base.Add(time.Minute))

	sequence, err := BuildUnifiedSequence(db, course.ID)
	require.NoError(t, err)
	require.Len(t, sequence, 3)
	assert.Equal(t, []uint{early.ID, late.ID, second.ID},
		[]uint{sequence[0].ID, sequence[1].ID, sequence[2].ID})
}

func TestBuildUnifiedSequenceVideosOnly(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")
	createVideo(t, db, course.ID, "Solo", 0, base)

	sequence, err := BuildUnifiedSequence(db, course.ID)
	require.NoError(t, err)
	require.Len(t, sequence, 1)
	assert.Nil(t, sequence[0].PairedDocumentID, "no document to pair with")
}

func TestResequenceCoursePersistsPairing(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	video := createVideo(t, db, course.ID, "Video 0", 0, base)
	doc := createDocument(t, db, course.ID, "Doc 0", base)

	require.NoError(t, ResequenceCourse(db, course.ID))

	var reloaded courseModels.Video
	require.NoError(t, db.First(&reloaded, video.ID).Error)
	require.NotNil(t, reloaded.PairedDocumentID)
	assert.Equal(t, doc.ID, *reloaded.PairedDocumentID)

	// removing the document clears the pairing on the next resequence
	require.NoError(t, db.Model(&courseModels.Document{}).
		Where("id = ?", doc.ID).Update("is_deleted", true).Error)
	require.NoError(t, ResequenceCourse(db, course.ID))
	require.NoError(t, db.First(&reloaded, video.ID).Error)
	assert.Nil(t, reloaded.PairedDocumentID)
}

func TestNavigate(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	v0 := createVideo(t, db, course.ID, "Video 0", 0, base)
	d0 := createDocument(t, db, course.ID, "Doc 0", base)
	v1 := createVideo(t, db, course.ID, "Video 1", 1, base.Add(time.Hour))

	sequence, err := BuildUnifiedSequence(db, course.ID)
	require.NoError(t, err)

	prev, next, err := Navigate(sequence, KindDocument, d0.ID)
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, v0.ID, prev.ID)
	assert.Equal(t, v1.ID, next.ID)

	prev, _, err = Navigate(sequence, KindVideo, v0.ID)
	require.NoError(t, err)
	assert.Nil(t, prev, "first item has no predecessor")

	_, next, err = Navigate(sequence, KindVideo, v1.ID)
	require.NoError(t, err)
	assert.Nil(t, next, "last item has no successor")

	_, _, err = Navigate(sequence, KindVideo, 9999)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestNavigateEmptyCourse(t *testing.T) {
	_, _, err := Navigate(nil, KindVideo, 1)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestValidateAccessGating(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	v0 := createVideo(t, db, course.ID, "Video 0", 0, base)
	d0 := createDocument(t, db, course.ID, "Doc 0", base)

	const userID = 1
	sequence, err := BuildUnifiedSequence(db, course.ID)
	require.NoError(t, err)
	require.NoError(t, AnnotateCompletion(db, userID, sequence))

	blocker, err := ValidateAccess(sequence, KindVideo, v0.ID, false)
	assert.NoError(t, err, "first item is always open")
	assert.Nil(t, blocker)

	blocker, err = ValidateAccess(sequence, KindDocument, d0.ID, false)
	assert.ErrorIs(t, err, ErrContentLocked)
	require.NotNil(t, blocker, "a locked item names its blocking predecessor")
	assert.Equal(t, v0.ID, blocker.ID)
	assert.Equal(t, KindVideo, blocker.Kind)

	_, err = ValidateAccess(sequence, KindDocument, d0.ID, true)
	assert.NoError(t, err, "staff bypasses the gate")

	video := &courseModels.Video{}
	require.NoError(t, db.First(video, v0.ID).Error)
	require.NoError(t, MarkVideoCompleted(db, userID, video))

	sequence, err = BuildUnifiedSequence(db, course.ID)
	require.NoError(t, err)
	require.NoError(t, AnnotateCompletion(db, userID, sequence))
	_, err = ValidateAccess(sequence, KindDocument, d0.ID, false)
	assert.NoError(t, err)
}

func TestMarkVideoCompletedSyncsPairedDocument(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	v0 := createVideo(t, db, course.ID, "Video 0", 0, base)
	d0 := createDocument(t, db, course.ID, "Doc 0", base)
	require.NoError(t, ResequenceCourse(db, course.ID))

	var video courseModels.Video
	require.NoError(t, db.First(&video, v0.ID).Error)

	const userID = 1
	require.NoError(t, MarkVideoCompleted(db, userID, &video))

	var docDone int64
	require.NoError(t, db.Model(&courseModels.DocumentCompletion{}).
		Where("user_id = ? AND document_id = ?", userID, d0.ID).
		Count(&docDone).Error)
	assert.Equal(t, int64(1), docDone, "paired document completes with the video")

	// idempotent: marking again adds nothing
	require.NoError(t, MarkVideoCompleted(db, userID, &video))
	var videoDone int64
	require.NoError(t, db.Model(&courseModels.VideoCompletion{}).
		Where("user_id = ?", userID).Count(&videoDone).Error)
	assert.Equal(t, int64(1), videoDone)
}

func TestDocumentCompletionDoesNotCompleteVideo(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	createVideo(t, db, course.ID, "Video 0", 0, base)
	d0 := createDocument(t, db, course.ID, "Doc 0", base)
	require.NoError(t, ResequenceCourse(db, course.ID))

	var doc courseModels.Document
	require.NoError(t, db.First(&doc, d0.ID).Error)

	const userID = 1
	require.NoError(t, MarkDocumentCompleted(db, userID, &doc))

	var videoDone int64
	require.NoError(t, db.Model(&courseModels.VideoCompletion{}).
		Where("user_id = ?", userID).Count(&videoDone).Error)
	assert.Equal(t, int64(0), videoDone, "sync is one-way")
}

func TestUnmarkVideoKeepsPairedDocument(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	course := createCourse(t, db, "C01")

	v0 := createVideo(t, db, course.ID, "Video 0", 0, base)
	d0 := createDocument(t, db, course.ID, "Doc 0", base)
	require.NoError(t, ResequenceCourse(db, course.ID))

	var video courseModels.Video
	require.NoError(t, db.First(&video, v0.ID).Error)

	const userID = 1
	require.NoError(t, MarkVideoCompleted(db, userID, &video))
	require.NoError(t, UnmarkVideoCompleted(db, userID, v0.ID))

	var videoDone, docDone int64
	require.NoError(t, db.Model(&courseModels.VideoCompletion{}).
		Where("user_id = ? AND video_id = ?", userID, v0.ID).Count(&videoDone).Error)
	require.NoError(t, db.Model(&courseModels.DocumentCompletion{}).
		Where("user_id = ? AND document_id = ?", userID, d0.ID).Count(&docDone).Error)
	assert.Equal(t, int64(0), videoDone)
	assert.Equal(t, int64(1), docDone, "un-marking never cascades")
}
