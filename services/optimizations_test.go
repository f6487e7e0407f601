package services

import (
	"testing"
	"time"

	courseModels "lms/models/course"
	quizModels "lms/models/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBulkProgressForCourses(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	full := createCourse(t, db, "C01")
	v1 := createVideo(t, db, full.ID, "Intro", 0, base)
	createVideo(t, db, full.ID, "Deep dive", 1, base.Add(time.Hour))
	d1 := createDocument(t, db, full.ID, "Syllabus", base)

	empty := createCourse(t, db, "C02")

	const userID = 1
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: userID, VideoID: v1.ID, CourseID: full.ID, CompletedAt: base,
	}).Error)
	require.NoError(t, db.Create(&courseModels.DocumentCompletion{
		UserID: userID, DocumentID: d1.ID, CourseID: full.ID, CompletedAt: base,
	}).Error)

	progress, err := GetBulkProgressForCourses(db, userID, []uint{full.ID, empty.ID})
	require.NoError(t, err)

	p := progress[full.ID]
	require.NotNil(t, p)
	assert.Equal(t, 2, p.TotalVideos)
	assert.Equal(t, 1, p.TotalDocuments)
	assert.Equal(t, 1, p.CompletedVideos)
	assert.Equal(t, 1, p.CompletedDocs)
	assert.Equal(t, 66.7, p.Progress)

	e := progress[empty.ID]
	require.NotNil(t, e)
	assert.Equal(t, 0.0, e.Progress, "course with no content reports zero, not an error")
}

func TestGetBulkProgressIgnoresOtherUsers(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	course := createCourse(t, db, "C01")
	video := createVideo(t, db, course.ID, "Intro", 0, base)
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: 99, VideoID: video.ID, CourseID: course.ID, CompletedAt: base,
	}).Error)

	progress, err := GetBulkProgressForCourses(db, 1, []uint{course.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, progress[course.ID].CompletedVideos)
}

func TestGetBulkExamInfoMostRecentWins(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C01")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quiz).Error)

	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 7)
	const userID = 1

	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: userID, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 5, MaxScore: 10, Complete: true, End: &first,
	}).Error)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: userID, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 9, MaxScore: 10, Complete: true, End: &second,
	}).Error)

	exams, err := GetBulkExamInfo(db, userID, []uint{course.ID})
	require.NoError(t, err)

	info := exams[course.ID]
	require.NotNil(t, info)
	assert.Equal(t, 9, info.Score)
	assert.True(t, info.Passed)
	assert.Equal(t, 90.0, info.Percent)
}

func TestGetBulkExamInfoPassMarkBoundary(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C01")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quiz).Error)

	end := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: 1, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 8, MaxScore: 10, Complete: true, End: &end,
	}).Error)

	exams, err := GetBulkExamInfo(db, 1, []uint{course.ID})
	require.NoError(t, err)
	assert.True(t, exams[course.ID].Passed, "exactly the pass mark passes")
}

func TestGetBulkCourseStatus(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	const userID = 1

	notStarted := createCourse(t, db, "C01")
	createVideo(t, db, notStarted.ID, "Intro", 0, base)

	inProgress := createCourse(t, db, "C02")
	v := createVideo(t, db, inProgress.ID, "Intro", 0, base)
	createVideo(t, db, inProgress.ID, "More", 1, base.Add(time.Hour))
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: userID, VideoID: v.ID, CourseID: inProgress.ID, CompletedAt: base,
	}).Error)

	examReady := createCourse(t, db, "C03")
	v2 := createVideo(t, db, examReady.ID, "Only one", 0, base)
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: userID, VideoID: v2.ID, CourseID: examReady.ID, CompletedAt: base,
	}).Error)
	require.NoError(t, db.Create(&quizModels.Quiz{CourseID: examReady.ID, Title: "Final", PassMark: 80}).Error)

	noExam := createCourse(t, db, "C06")
	v3 := createVideo(t, db, noExam.ID, "Only one", 0, base)
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: userID, VideoID: v3.ID, CourseID: noExam.ID, CompletedAt: base,
	}).Error)

	failed := createCourse(t, db, "C04")
	v4 := createVideo(t, db, failed.ID, "Only one", 0, base)
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: userID, VideoID: v4.ID, CourseID: failed.ID, CompletedAt: base,
	}).Error)
	quizF := &quizModels.Quiz{CourseID: failed.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quizF).Error)
	end := base.AddDate(0, 1, 0)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: userID, QuizID: quizF.ID, CourseID: failed.ID,
		CurrentScore: 3, MaxScore: 10, Complete: true, End: &end,
	}).Error)

	completed := createCourse(t, db, "C05")
	v5 := createVideo(t, db, completed.ID, "Only one", 0, base)
	require.NoError(t, db.Create(&courseModels.VideoCompletion{
		UserID: userID, VideoID: v5.ID, CourseID: completed.ID, CompletedAt: base,
	}).Error)
	quizC := &quizModels.Quiz{CourseID: completed.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quizC).Error)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: userID, QuizID: quizC.ID, CourseID: completed.ID,
		CurrentScore: 10, MaxScore: 10, Complete: true, End: &end,
	}).Error)

	ids := []uint{notStarted.ID, inProgress.ID, examReady.ID, failed.ID, completed.ID, noExam.ID}
	statuses, err := GetBulkCourseStatus(db, userID, ids)
	require.NoError(t, err)

	assert.Equal(t, CourseNotStarted, statuses[notStarted.ID])
	assert.Equal(t, CourseInProgress, statuses[inProgress.ID])
	assert.Equal(t, CourseExamAvailable, statuses[examReady.ID])
	assert.Equal(t, CourseExamFailed, statuses[failed.ID])
	assert.Equal(t, CourseCompleted, statuses[completed.ID])
	assert.Equal(t, CourseCompleted, statuses[noExam.ID], "no exam means the material is the whole course")
}

func TestGetBulkCourseStatusMaterialOutranksExam(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	const userID = 1

	// two videos, none completed, but a passed and approved sitting exists
	course := createCourse(t, db, "C01")
	createVideo(t, db, course.ID, "Intro", 0, base)
	createVideo(t, db, course.ID, "More", 1, base.Add(time.Hour))
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quiz).Error)

	approved := base.AddDate(0, 1, 0)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: userID, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 8, MaxScore: 10, Complete: true,
		End: &approved, ApprovedAt: &approved,
	}).Error)

	statuses, err := GetBulkCourseStatus(db, userID, []uint{course.ID})
	require.NoError(t, err)
	assert.Equal(t, CourseInProgress, statuses[course.ID],
		"incomplete material outranks any exam outcome")
}

func TestGetBulkExamInfoCanRetake(t *testing.T) {
	db := newTestDB(t)
	end := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	failedCourse := createCourse(t, db, "C01")
	multi := &quizModels.Quiz{CourseID: failedCourse.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(multi).Error)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: 1, QuizID: multi.ID, CourseID: failedCourse.ID,
		CurrentScore: 3, MaxScore: 10, Complete: true, End: &end,
	}).Error)

	strictCourse := createCourse(t, db, "C02")
	single := &quizModels.Quiz{CourseID: strictCourse.ID, Title: "Final", PassMark: 80, SingleAttempt: true}
	require.NoError(t, db.Create(single).Error)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: 1, QuizID: single.ID, CourseID: strictCourse.ID,
		CurrentScore: 3, MaxScore: 10, Complete: true, End: &end,
	}).Error)

	exams, err := GetBulkExamInfo(db, 1, []uint{failedCourse.ID, strictCourse.ID})
	require.NoError(t, err)
	assert.True(t, exams[failedCourse.ID].CanRetake, "a failed multi-attempt exam can be retaken")
	assert.False(t, exams[strictCourse.ID].CanRetake, "single attempt means one sitting, pass or fail")
}

func TestGetBulkExamInfoBestAttemptDecidesPass(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C01")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quiz).Error)

	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 7)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: 1, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 9, MaxScore: 10, Complete: true, End: &first,
	}).Error)
	require.NoError(t, db.Create(&quizModels.Sitting{
		UserID: 1, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 4, MaxScore: 10, Complete: true, End: &second,
	}).Error)

	exams, err := GetBulkExamInfo(db, 1, []uint{course.ID})
	require.NoError(t, err)

	info := exams[course.ID]
	require.NotNil(t, info)
	assert.Equal(t, 2, info.Attempts)
	assert.Equal(t, 40.0, info.Percent, "score fields track the latest sitting")
	assert.Equal(t, 90.0, info.BestPercent)
	assert.True(t, info.Passed, "a pass is never lost to a worse retake")
	assert.False(t, info.CanRetake, "a passed exam is never retaken")
}
