package services

import (
	"time"

	courseModels "lms/models/course"
	quizModels "lms/models/quiz"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// MonthsOfHistory is how many trailing calendar months the issuance series
// covers.
const MonthsOfHistory = 12

// MonthBucket is one month of the issuance series.
type MonthBucket struct {
	Month     string `json:"month"` // YYYY-MM
	Count     int    `json:"count"`
	Automatic int    `json:"automatic"`
	Manual    int    `json:"manual"`
}

// CourseRollup is the per-course certificate breakdown.
type CourseRollup struct {
	CourseID     uint   `json:"course_id"`
	CourseTitle  string `json:"course_title"`
	Total        int    `json:"total"`
	Active       int    `json:"active"`
	ExpiringSoon int    `json:"expiring_soon"`
	Expired      int    `json:"expired"`
	Inactive     int    `json:"inactive"`
}

// CertificateStats is the dashboard aggregate.
type CertificateStats struct {
	TotalAutomatic    int            `json:"total_automatic"`
	TotalManual       int            `json:"total_manual"`
	ByStatus          map[string]int `json:"by_status"`
	ByStatusAutomatic map[string]int `json:"by_status_automatic"`
	ByStatusManual    map[string]int `json:"by_status_manual"`
	Monthly           []MonthBucket  `json:"monthly"`
	Courses           []CourseRollup `json:"courses"`
}

// AggregateCertificateStats builds the certificate dashboard as of today.
// Automatic certificates are deduplicated per (user, quiz), keeping the most
// recently approved sitting, so a user who re-took an exam counts once. Every
// section of the result (totals, statuses, months, course rollups) is derived
// from that same deduplicated set, so the numbers always add up.
func AggregateCertificateStats(db *gorm.DB, today time.Time) (*CertificateStats, error) {
	var sittings []quizModels.Sitting
	err := db.Where("approved_at IS NOT NULL AND complete = ? AND is_deleted = ?", true, false).
		Find(&sittings).Error
	if err != nil {
		return nil, err
	}

	type userQuiz struct {
		UserID uint
		QuizID uint
	}
	deduped := make(map[userQuiz]*quizModels.Sitting)
	for i := range sittings {
		s := &sittings[i]
		key := userQuiz{UserID: s.UserID, QuizID: s.QuizID}
		current, ok := deduped[key]
		if !ok || s.ApprovedAt.After(*current.ApprovedAt) {
			deduped[key] = s
		}
	}

	var manuals []quizModels.ManualCertificate
	if err := db.Find(&manuals).Error; err != nil {
		return nil, err
	}

	stats := &CertificateStats{
		TotalAutomatic:    len(deduped),
		TotalManual:       len(manuals),
		ByStatus:          make(map[string]int),
		ByStatusAutomatic: make(map[string]int),
		ByStatusManual:    make(map[string]int),
	}

	type approval struct {
		cert     Certificate
		courseID uint
		at       time.Time
		manual   bool
	}
	approvals := make([]approval, 0, len(deduped)+len(manuals))
	for _, s := range deduped {
		approvals = append(approvals, approval{cert: s, courseID: s.CourseID, at: *s.ApprovedAt})
	}
	for i := range manuals {
		m := &manuals[i]
		approvals = append(approvals, approval{cert: m, courseID: m.CourseID, at: m.ApprovedAt, manual: true})
	}

	for _, a := range approvals {
		status := ClassifyCertificate(a.cert, today)
		stats.ByStatus[status.Status]++
		if a.manual {
			stats.ByStatusManual[status.Status]++
		} else {
			stats.ByStatusAutomatic[status.Status]++
		}
	}

	// trailing calendar months, oldest first
	monthStart := now.With(today).BeginningOfMonth()
	monthIndex := make(map[string]int, MonthsOfHistory)
	for i := MonthsOfHistory - 1; i >= 0; i-- {
		month := monthStart.AddDate(0, -i, 0).Format("2006-01")
		monthIndex[month] = len(stats.Monthly)
		stats.Monthly = append(stats.Monthly, MonthBucket{Month: month})
	}
	for _, a := range approvals {
		idx, ok := monthIndex[a.at.Format("2006-01")]
		if !ok {
			continue
		}
		bucket := &stats.Monthly[idx]
		bucket.Count++
		if a.manual {
			bucket.Manual++
		} else {
			bucket.Automatic++
		}
	}

	var courses []courseModels.Course
	err = db.Where("is_deleted = ?", false).Order("id ASC").Find(&courses).Error
	if err != nil {
		return nil, err
	}
	rollups := make(map[uint]*CourseRollup, len(courses))
	for _, c := range courses {
		rollups[c.ID] = &CourseRollup{CourseID: c.ID, CourseTitle: c.Title}
	}
	for _, a := range approvals {
		rollup, ok := rollups[a.courseID]
		if !ok {
			continue
		}
		rollup.Total++
		switch ClassifyCertificate(a.cert, today).Status {
		case StatusActive:
			rollup.Active++
		case StatusExpiringSoon:
			rollup.ExpiringSoon++
		case StatusExpired:
			rollup.Expired++
		case StatusInactive:
			rollup.Inactive++
		}
	}
	for _, c := range courses {
		stats.Courses = append(stats.Courses, *rollups[c.ID])
	}
	return stats, nil
}
