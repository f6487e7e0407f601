package services

import (
	"testing"
	"time"

	quizModels "lms/models/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func approvedSitting(t *testing.T, db *gorm.DB, userID, quizID, courseID uint, approvedAt time.Time) *quizModels.Sitting {
	t.Helper()
	end := approvedAt
	sitting := &quizModels.Sitting{
		UserID: userID, QuizID: quizID, CourseID: courseID,
		CurrentScore: 9, MaxScore: 10, Complete: true,
		End: &end, ApprovedAt: &approvedAt,
	}
	require.NoError(t, db.Create(sitting).Error)
	return sitting
}

func TestAggregateStatsDeduplicatesRetakes(t *testing.T) {
	db := newTestDB(t)
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	course := createCourse(t, db, "C01")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final"}
	require.NoError(t, db.Create(quiz).Error)

	// same user approved twice, only the most recent approval counts
	approvedSitting(t, db, 1, quiz.ID, course.ID, today.AddDate(0, -3, 0))
	approvedSitting(t, db, 1, quiz.ID, course.ID, today.AddDate(0, -1, 0))
	approvedSitting(t, db, 2, quiz.ID, course.ID, today.AddDate(0, -2, 0))

	stats, err := AggregateCertificateStats(db, today)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalAutomatic)
	assert.Equal(t, 2, stats.ByStatus[StatusActive])

	var monthTotal int
	for _, bucket := range stats.Monthly {
		monthTotal += bucket.Count
	}
	assert.Equal(t, 2, monthTotal, "retakes do not inflate the monthly series")
}

func TestAggregateStatsMonthlyBuckets(t *testing.T) {
	db := newTestDB(t)
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	course := createCourse(t, db, "C01")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final"}
	require.NoError(t, db.Create(quiz).Error)

	approvedSitting(t, db, 1, quiz.ID, course.ID, time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))
	approvedSitting(t, db, 2, quiz.ID, course.ID, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))
	// outside the trailing window, ignored by the series
	approvedSitting(t, db, 3, quiz.ID, course.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	expires := today.AddDate(1, 0, 0)
	require.NoError(t, db.Create(&quizModels.ManualCertificate{
		FullName: "Jordan Doe", DNI: "12345678", CourseID: course.ID,
		Score: 18, ApprovedAt: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		ExpiresAt: &expires, Active: true,
	}).Error)

	stats, err := AggregateCertificateStats(db, today)
	require.NoError(t, err)

	require.Len(t, stats.Monthly, MonthsOfHistory)
	assert.Equal(t, "2025-09", stats.Monthly[0].Month)
	assert.Equal(t, "2026-08", stats.Monthly[MonthsOfHistory-1].Month)

	byMonth := make(map[string]MonthBucket)
	for _, bucket := range stats.Monthly {
		byMonth[bucket.Month] = bucket
	}
	assert.Equal(t, 2, byMonth["2026-08"].Count)
	assert.Equal(t, 1, byMonth["2026-08"].Automatic)
	assert.Equal(t, 1, byMonth["2026-08"].Manual)
	assert.Equal(t, 1, byMonth["2026-06"].Count)
	assert.Equal(t, 0, byMonth["2026-07"].Count)
}

func TestAggregateStatsCourseRollups(t *testing.T) {
	db := newTestDB(t)
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	courseA := createCourse(t, db, "C01")
	courseB := createCourse(t, db, "C02")
	quizA := &quizModels.Quiz{CourseID: courseA.ID, Title: "Final A"}
	quizB := &quizModels.Quiz{CourseID: courseB.ID, Title: "Final B"}
	require.NoError(t, db.Create(quizA).Error)
	require.NoError(t, db.Create(quizB).Error)

	approvedSitting(t, db, 1, quizA.ID, courseA.ID, today.AddDate(0, -1, 0))
	approvedSitting(t, db, 2, quizA.ID, courseA.ID, today.AddDate(0, 0, -(ValidityDays+10)))
	approvedSitting(t, db, 1, quizB.ID, courseB.ID, today.AddDate(0, 0, -(ValidityDays-5)))

	expires := today.AddDate(0, 6, 0)
	require.NoError(t, db.Create(&quizModels.ManualCertificate{
		FullName: "Jordan Doe", DNI: "12345678", CourseID: courseB.ID,
		Score: 18, ApprovedAt: today.AddDate(-1, 0, 0), ExpiresAt: &expires, Active: true,
	}).Error)

	stats, err := AggregateCertificateStats(db, today)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalAutomatic)
	assert.Equal(t, 1, stats.TotalManual)
	assert.Equal(t, 1, stats.ByStatusAutomatic[StatusActive])
	assert.Equal(t, 1, stats.ByStatusAutomatic[StatusExpired])
	assert.Equal(t, 1, stats.ByStatusAutomatic[StatusExpiringSoon])
	assert.Equal(t, 1, stats.ByStatusManual[StatusActive])

	require.Len(t, stats.Courses, 2)
	a := stats.Courses[0]
	assert.Equal(t, courseA.ID, a.CourseID)
	assert.Equal(t, 2, a.Total)
	assert.Equal(t, 1, a.Active)
	assert.Equal(t, 1, a.Expired)

	b := stats.Courses[1]
	assert.Equal(t, 2, b.Total)
	assert.Equal(t, 1, b.ExpiringSoon)
	assert.Equal(t, 1, b.Active)

	// status sections and rollups come from the same set
	var rollupTotal int
	for _, rollup := range stats.Courses {
		rollupTotal += rollup.Total
	}
	var statusTotal int
	for _, count := range stats.ByStatus {
		statusTotal += count
	}
	assert.Equal(t, statusTotal, rollupTotal)
	assert.Equal(t, stats.TotalAutomatic+stats.TotalManual, statusTotal)
}
