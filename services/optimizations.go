package services

import (
	"math"
	"time"

	courseModels "lms/models/course"
	quizModels "lms/models/quiz"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Course content statuses derived from material progress and the latest exam
// sitting.
const (
	CourseNotStarted    = "not_started"
	CourseInProgress    = "material_in_progress"
	CourseExamAvailable = "exam_available"
	CourseExamFailed    = "exam_failed"
	CourseCompleted     = "course_completed"
)

// CourseProgress is the per-course material completion breakdown.
type CourseProgress struct {
	CourseID         uint    `json:"course_id"`
	TotalVideos      int     `json:"total_videos"`
	TotalDocuments   int     `json:"total_documents"`
	CompletedVideos  int     `json:"completed_videos"`
	CompletedDocs    int     `json:"completed_documents"`
	TotalContent     int     `json:"total_content"`
	CompletedContent int     `json:"completed_content"`
	Progress         float64 `json:"progress"`
}

// ExamInfo is the user's exam summary for a course. Score fields come from
// the most recent finished sitting; Passed is judged on the best attempt.
type ExamInfo struct {
	CourseID    uint       `json:"course_id"`
	SittingID   uint       `json:"sitting_id"`
	Score       int        `json:"score"`
	MaxScore    int        `json:"max_score"`
	Percent     float64    `json:"percent"`
	BestPercent float64    `json:"best_percent"`
	Attempts    int        `json:"attempts"`
	Passed      bool       `json:"passed"`
	CanRetake   bool       `json:"can_retake"`
	TakenAt     *time.Time `json:"taken_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
}

type countRow struct {
	CourseID uint
	Count    int
}

// GetBulkProgressForCourses computes material progress for a user across any
// number of courses with exactly four grouped queries, independent of how
// many courses are requested.
func GetBulkProgressForCourses(db *gorm.DB, userID uint, courseIDs []uint) (map[uint]*CourseProgress, error) {
	result := make(map[uint]*CourseProgress, len(courseIDs))
	for _, id := range courseIDs {
		result[id] = &CourseProgress{CourseID: id}
	}
	if len(courseIDs) == 0 {
		return result, nil
	}

	var videoTotals []countRow
	err := db.Model(&courseModels.Video{}).
		Select("course_id, count(*) as count").
		Where("course_id IN ? AND is_deleted = ?", courseIDs, false).
		Group("course_id").
		Scan(&videoTotals).Error
	if err != nil {
		return nil, err
	}
	for _, row := range videoTotals {
		result[row.CourseID].TotalVideos = row.Count
	}

	var docTotals []countRow
	err = db.Model(&courseModels.Document{}).
		Select("course_id, count(*) as count").
		Where("course_id IN ? AND is_deleted = ?", courseIDs, false).
		Group("course_id").
		Scan(&docTotals).Error
	if err != nil {
		return nil, err
	}
	for _, row := range docTotals {
		result[row.CourseID].TotalDocuments = row.Count
	}

	var videosDone []countRow
	err = db.Model(&courseModels.VideoCompletion{}).
		Select("course_id, count(*) as count").
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Group("course_id").
		Scan(&videosDone).Error
	if err != nil {
		return nil, err
	}
	for _, row := range videosDone {
		result[row.CourseID].CompletedVideos = row.Count
	}

	var docsDone []countRow
	err = db.Model(&courseModels.DocumentCompletion{}).
		Select("course_id, count(*) as count").
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Group("course_id").
		Scan(&docsDone).Error
	if err != nil {
		return nil, err
	}
	for _, row := range docsDone {
		result[row.CourseID].CompletedDocs = row.Count
	}

	for _, p := range result {
		p.TotalContent = p.TotalVideos + p.TotalDocuments
		completed := p.CompletedVideos + p.CompletedDocs
		if completed > p.TotalContent {
			// completions can outlive deleted content
			completed = p.TotalContent
		}
		p.CompletedContent = completed
		if p.TotalContent == 0 {
			p.Progress = 0
			continue
		}
		p.Progress = roundOne(float64(completed) * 100 / float64(p.TotalContent))
	}
	return result, nil
}

// GetBulkExamInfo fetches each course's most recent finished sitting for the
// user. Pass/fail is judged against the quiz pass mark using the scores the
// sitting was graded with, so later quiz edits do not rewrite history.
func GetBulkExamInfo(db *gorm.DB, userID uint, courseIDs []uint) (map[uint]*ExamInfo, error) {
	result := make(map[uint]*ExamInfo)
	if len(courseIDs) == 0 {
		return result, nil
	}

	// "end" needs quoting, it is a reserved word on most dialects
	var sittings []quizModels.Sitting
	err := db.Where("user_id = ? AND course_id IN ? AND complete = ? AND is_deleted = ?",
		userID, courseIDs, true, false).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "end"}}).
		Find(&sittings).Error
	if err != nil {
		return nil, err
	}
	if len(sittings) == 0 {
		return result, nil
	}

	passMarks := make(map[uint]int)
	singleAttempt := make(map[uint]bool)
	var quizzes []quizModels.Quiz
	err = db.Where("course_id IN ? AND is_deleted = ?", courseIDs, false).
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	for _, q := range quizzes {
		passMarks[q.CourseID] = q.PassMark
		singleAttempt[q.CourseID] = q.SingleAttempt
	}

	// ordered by end ascending: the most recent sitting supplies the score
	// fields, the best attempt decides pass/fail
	for i := range sittings {
		s := &sittings[i]
		info := result[s.CourseID]
		if info == nil {
			info = &ExamInfo{CourseID: s.CourseID}
			result[s.CourseID] = info
		}
		info.Attempts++
		info.SittingID = s.ID
		info.Score = s.CurrentScore
		info.MaxScore = s.MaxScore
		info.Percent = roundOne(s.PercentCorrect())
		info.TakenAt = s.End
		if info.Percent > info.BestPercent {
			info.BestPercent = info.Percent
		}
		if s.ApprovedAt != nil {
			info.ApprovedAt = s.ApprovedAt
		}
	}
	for courseID, info := range result {
		info.Passed = info.BestPercent >= float64(passMarks[courseID])
		info.CanRetake = !singleAttempt[courseID] && !info.Passed
	}
	return result, nil
}

// GetBulkCourseStatus combines material progress and exam outcomes into one
// status per course.
func GetBulkCourseStatus(db *gorm.DB, userID uint, courseIDs []uint) (map[uint]string, error) {
	progress, err := GetBulkProgressForCourses(db, userID, courseIDs)
	if err != nil {
		return nil, err
	}
	exams, err := GetBulkExamInfo(db, userID, courseIDs)
	if err != nil {
		return nil, err
	}

	hasExam := make(map[uint]bool)
	if len(courseIDs) > 0 {
		var examCourseIDs []uint
		err = db.Model(&quizModels.Quiz{}).
			Where("course_id IN ? AND draft = ? AND is_deleted = ?", courseIDs, false, false).
			Pluck("course_id", &examCourseIDs).Error
		if err != nil {
			return nil, err
		}
		for _, id := range examCourseIDs {
			hasExam[id] = true
		}
	}

	result := make(map[uint]string, len(courseIDs))
	for _, id := range courseIDs {
		p := progress[id]
		exam := exams[id]
		materialDone := p.TotalContent > 0 && p.Progress >= 100

		// material completeness outranks any exam outcome: content added
		// after a sitting pulls the course back to material_in_progress
		switch {
		case !materialDone && (p.CompletedContent > 0 || exam != nil):
			result[id] = CourseInProgress
		case !materialDone:
			result[id] = CourseNotStarted
		case exam != nil && exam.Passed:
			result[id] = CourseCompleted
		case exam != nil:
			result[id] = CourseExamFailed
		case hasExam[id]:
			result[id] = CourseExamAvailable
		default:
			// nothing left to do in a course without an exam
			result[id] = CourseCompleted
		}
	}
	return result, nil
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}
