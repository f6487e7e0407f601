package quiz

import "gorm.io/gorm"

// Quiz is the exam attached to a course. PassMark is a percentage of the
// maximum score.
type Quiz struct {
	gorm.Model
	CourseID      uint   `json:"course_id" gorm:"uniqueIndex;not null"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PassMark      int    `json:"pass_mark" gorm:"default:80"`
	SingleAttempt bool   `json:"single_attempt" gorm:"default:false"`
	Draft         bool   `json:"draft" gorm:"default:false"`
	IsDeleted     bool   `gorm:"default:false"`
}

type Question struct {
	gorm.Model
	QuizID    uint   `json:"quiz_id" gorm:"index;not null"`
	Content   string `json:"content"`
	Figure    string `json:"figure"`
	IsDeleted bool   `gorm:"default:false"`
}

type Choice struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	Content    string `json:"content"`
	Correct    bool   `json:"correct" gorm:"default:false"`
}
