package services

import (
	"testing"
	"time"

	courseModels "lms/models/course"
	quizModels "lms/models/quiz"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive and serializes
	// concurrent writers
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Video{},
		&courseModels.Document{},
		&courseModels.VideoCompletion{},
		&courseModels.DocumentCompletion{},
		&quizModels.Quiz{},
		&quizModels.Question{},
		&quizModels.Choice{},
		&quizModels.Sitting{},
		&quizModels.ManualCertificate{},
		&quizModels.ApprovalOverride{},
	)
	require.NoError(t, err)

	return db
}

func createCourse(t *testing.T, db *gorm.DB, code string) *courseModels.Course {
	t.Helper()
	course := &courseModels.Course{Title: "Course " + code, Code: code, Slug: "course-" + code}
	require.NoError(t, db.Create(course).Error)
	return course
}

func createVideo(t *testing.T, db *gorm.DB, courseID uint, title string, order int, createdAt time.Time) *courseModels.Video {
	t.Helper()
	video := &courseModels.Video{CourseID: courseID, Title: title, OrderIndex: order}
	require.NoError(t, db.Create(video).Error)
	require.NoError(t, db.Model(video).Update("created_at", createdAt).Error)
	video.CreatedAt = createdAt
	return video
}

func createDocument(t *testing.T, db *gorm.DB, courseID uint, title string, createdAt time.Time) *courseModels.Document {
	t.Helper()
	doc := &courseModels.Document{CourseID: courseID, Title: title}
	require.NoError(t, db.Create(doc).Error)
	require.NoError(t, db.Model(doc).Update("created_at", createdAt).Error)
	doc.CreatedAt = createdAt
	return doc
}
