package course

import "gorm.io/gorm"

// Question belongs to a course's exam question bank. Editing the bank never
// touches attempts that are already running; they grade against their frozen copy.
type Question struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Text        string `json:"text" gorm:"type:text"`
	Explanation string `json:"explanation" gorm:"type:text"` // shown only in post-grading feedback
	IsDeleted   bool   `gorm:"default:false"`
}

// QuestionOption is one answer option on a question; exactly one per
// question is marked correct
type QuestionOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}
