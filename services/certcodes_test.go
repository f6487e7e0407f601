package services

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	courseModels "lms/models/course"
	quizModels "lms/models/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAllocateCertificateCodeSequence(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C01")

	var codes []string
	for i := 0; i < 3; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			code, err := AllocateCertificateCode(tx, course.ID, 1)
			if err != nil {
				return err
			}
			codes = append(codes, code)
			return nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"001", "002", "003"}, codes)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, 3, reloaded.LastCertCode)
}

func TestAllocateCertificateCodeConfiguredStart(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C02")

	var code string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = AllocateCertificateCode(tx, course.ID, 100)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "100", code)

	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = AllocateCertificateCode(tx, course.ID, 100)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "101", code)
}

func TestAllocateCertificateCodeRollbackLeavesNoGap(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C03")

	boom := errors.New("issuance failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AllocateCertificateCode(tx, course.ID, 1)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var code string
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = AllocateCertificateCode(tx, course.ID, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "001", code, "rolled back allocation must be reused")
}

func TestIssueWithRetryConcurrent(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C04")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final"}
	require.NoError(t, db.Create(quiz).Error)

	const workers = 5
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			code, err := IssueWithRetry(db, course.ID, 1, func(tx *gorm.DB, code string) error {
				sitting := &quizModels.Sitting{
					UserID:          userID,
					QuizID:          quiz.ID,
					CourseID:        course.ID,
					Complete:        true,
					CertificateCode: &code,
				}
				return tx.Create(sitting).Error
			})
			if err != nil {
				return
			}
			mu.Lock()
			codes = append(codes, code)
			mu.Unlock()
		}(uint(i + 1))
	}
	wg.Wait()

	require.Len(t, codes, workers)
	sort.Strings(codes)
	assert.Equal(t, []string{"001", "002", "003", "004", "005"}, codes)
}

func TestApproveAndIssueExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	course := createCourse(t, db, "C05")
	quiz := &quizModels.Quiz{CourseID: course.ID, Title: "Final", PassMark: 80}
	require.NoError(t, db.Create(quiz).Error)

	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sitting := &quizModels.Sitting{
		UserID: 1, QuizID: quiz.ID, CourseID: course.ID,
		CurrentScore: 9, MaxScore: 10, Complete: true, End: &end,
	}
	require.NoError(t, db.Create(sitting).Error)

	code, err := ApproveAndIssue(db, sitting.ID, course.ID, 1, end)
	require.NoError(t, err)
	assert.Equal(t, "001", code)

	// a second issuance of the same sitting loses to the guard
	_, err = ApproveAndIssue(db, sitting.ID, course.ID, 1, end.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyIssued)

	var reloaded quizModels.Sitting
	require.NoError(t, db.First(&reloaded, sitting.ID).Error)
	require.NotNil(t, reloaded.CertificateCode)
	assert.Equal(t, "001", *reloaded.CertificateCode)
	assert.True(t, reloaded.ApprovedAt.Equal(end), "the first approval stays")

	var course2 courseModels.Course
	require.NoError(t, db.First(&course2, course.ID).Error)
	assert.Equal(t, 1, course2.LastCertCode, "the losing allocation rolls back, no gap")
}

func TestFullCertificateCode(t *testing.T) {
	assert.Equal(t, "C01-007", FullCertificateCode("C01", FormatCertificateCode(7)))
}
