package quiz

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sitting is a user's run through a quiz. A passed, approved sitting is the
// automatic certificate: ApprovedAt drives its validity window and
// CertificateCode carries the correlative issued for it.
type Sitting struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"index;not null"`
	QuizID   uint `json:"quiz_id" gorm:"index;not null"`
	CourseID uint `json:"course_id" gorm:"uniqueIndex:idx_course_cert;not null"`

	QuestionOrder string `json:"question_order"` // comma separated question ids
	UserAnswers   string `json:"user_answers"`   // comma separated choice ids, aligned with QuestionOrder

	CurrentScore int  `json:"current_score" gorm:"default:0"`
	MaxScore     int  `json:"max_score" gorm:"default:0"`
	Complete     bool `json:"complete" gorm:"default:false"`

	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`

	// ApprovedAt is the canonical approval instant. Nil means the pass was
	// never approved; such a certificate classifies as invalid.
	ApprovedAt *time.Time `json:"approved_at"`

	// CertificateCode is the per-course correlative, e.g. "007". Nil until
	// issuance; unique within the course once set.
	CertificateCode *string `json:"certificate_code" gorm:"uniqueIndex:idx_course_cert"`

	IsDeleted bool `gorm:"default:false"`
}

// PercentCorrect returns the score as a percentage of the maximum, 0 when the
// sitting has no questions.
func (s *Sitting) PercentCorrect() float64 {
	if s.MaxScore == 0 {
		return 0
	}
	return float64(s.CurrentScore) * 100 / float64(s.MaxScore)
}

// Passed reports whether the sitting meets the given pass mark percentage.
func (s *Sitting) Passed(passMark int) bool {
	return s.PercentCorrect() >= float64(passMark)
}

// ApprovalDate implements services.Certificate.
func (s *Sitting) ApprovalDate() *time.Time { return s.ApprovedAt }

// ExpirationDate implements services.Certificate. Automatic certificates are
// valid for a fixed period counted from approval; nil approval yields nil.
func (s *Sitting) ExpirationDate() *time.Time {
	if s.ApprovedAt == nil {
		return nil
	}
	exp := s.ApprovedAt.AddDate(0, 0, 365)
	return &exp
}

// ActiveFlag implements services.Certificate. Automatic certificates have no
// manual deactivation switch.
func (s *Sitting) ActiveFlag() bool { return true }

// ManualCertificate is a certificate registered by staff for training that
// happened outside the platform. Score is on a 0-20 scale.
type ManualCertificate struct {
	gorm.Model
	FullName string `json:"full_name"`
	DNI      string `json:"dni" gorm:"uniqueIndex:idx_dni_course;not null"`
	CourseID uint   `json:"course_id" gorm:"uniqueIndex:idx_dni_course;not null"`
	Score    int    `json:"score"`

	ApprovedAt time.Time  `json:"approved_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	Active     bool       `json:"active" gorm:"default:true"`

	CertificateCode string `json:"certificate_code"`
	IssuedBy        uint   `json:"issued_by"`
}

// ApprovalDate implements services.Certificate.
func (m *ManualCertificate) ApprovalDate() *time.Time { return &m.ApprovedAt }

// ExpirationDate implements services.Certificate. Manual certificates store
// their expiration explicitly.
func (m *ManualCertificate) ExpirationDate() *time.Time { return m.ExpiresAt }

// ActiveFlag implements services.Certificate.
func (m *ManualCertificate) ActiveFlag() bool { return m.Active }

// ApprovalOverride is the audit record written whenever staff changes a
// certificate approval date by hand.
type ApprovalOverride struct {
	gorm.Model
	AuditID    string         `json:"audit_id" gorm:"uniqueIndex"`
	SittingID  uint           `json:"sitting_id" gorm:"index;not null"`
	ChangedBy  uint           `json:"changed_by" gorm:"not null"`
	OldDate    *time.Time     `json:"old_date"`
	NewDate    time.Time      `json:"new_date"`
	Details    datatypes.JSON `json:"details"` // snapshot of the sitting at override time
	ChangeNote string         `json:"change_note"`
}
