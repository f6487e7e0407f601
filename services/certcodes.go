package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	courseModels "lms/models/course"
	quizModels "lms/models/quiz"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAllocationConflict is returned when code allocation keeps losing the row
// lock race after retries.
var ErrAllocationConflict = errors.New("certificate code allocation conflict")

// ErrAlreadyIssued is returned when issuance finds the sitting approved
// already.
var ErrAlreadyIssued = errors.New("certificate already issued")

const allocationRetries = 3

// AllocateCertificateCode reserves the next correlative for the course inside
// the caller's transaction. The course row is locked for the duration of the
// transaction, so the counter can never hand out the same number twice and
// never skips: codes are gapless from the configured start.
//
// The caller must commit or roll back the surrounding transaction; on
// rollback the counter increment is undone together with whatever the code
// was allocated for, keeping issuance all-or-nothing.
func AllocateCertificateCode(tx *gorm.DB, courseID uint, start int) (string, error) {
	var course courseModels.Course

	query := tx.Where("id = ? AND is_deleted = ?", courseID, false)
	// sqlite has no FOR UPDATE and serializes writers on its own
	if tx.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&course).Error; err != nil {
		return "", err
	}

	next := course.LastCertCode + 1
	if next < start {
		next = start
	}

	err := tx.Model(&courseModels.Course{}).
		Where("id = ?", course.ID).
		Update("last_cert_code", next).Error
	if err != nil {
		return "", err
	}

	return FormatCertificateCode(next), nil
}

// FormatCertificateCode renders a correlative as the zero-padded code printed
// on certificates, e.g. 7 -> "007".
func FormatCertificateCode(n int) string {
	return fmt.Sprintf("%03d", n)
}

// FullCertificateCode is the public identifier: course code plus correlative,
// e.g. "C01-007".
func FullCertificateCode(courseCode, certCode string) string {
	return courseCode + "-" + certCode
}

// IssueWithRetry runs issue inside a transaction, retrying on serialization
// conflicts. issue receives the transaction and the allocated code and must
// do all its writes through that transaction.
func IssueWithRetry(db *gorm.DB, courseID uint, start int, issue func(tx *gorm.DB, code string) error) (string, error) {
	var code string

	for attempt := 0; attempt < allocationRetries; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			allocated, err := AllocateCertificateCode(tx, courseID, start)
			if err != nil {
				return err
			}
			if err := issue(tx, allocated); err != nil {
				return err
			}
			code = allocated
			return nil
		})
		if err == nil {
			return code, nil
		}
		if !isSerializationFailure(err) {
			return "", err
		}
	}
	return "", ErrAllocationConflict
}

// ApproveAndIssue approves a sitting and writes its allocated code in one
// transaction. The approved_at IS NULL predicate makes issuance exactly-once:
// when a concurrent request approved the sitting first, the zero-row update
// aborts the transaction and the counter increment rolls back with it, so no
// correlative is ever orphaned.
func ApproveAndIssue(db *gorm.DB, sittingID, courseID uint, start int, approvedAt time.Time) (string, error) {
	return IssueWithRetry(db, courseID, start, func(tx *gorm.DB, code string) error {
		res := tx.Model(&quizModels.Sitting{}).
			Where("id = ? AND approved_at IS NULL", sittingID).
			Updates(map[string]interface{}{
				"approved_at":      approvedAt,
				"certificate_code": code,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyIssued
		}
		return nil
	})
}

func isSerializationFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked")
}
