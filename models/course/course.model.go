package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title             string `json:"title"`
	Description       string `json:"description"`
	Author            string `json:"author"`
	Status            string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	Price             uint   `json:"price" gorm:"default:0"`        // informational, gateway owns the money
	ExamQuestionCount int    `json:"exam_question_count" gorm:"default:100"`
	AccessDays        int    `json:"access_days" gorm:"default:0"` // 0 = perpetual access
	ThumbnailURL      string `json:"thumbnail_url"`
	IsPublished       bool   `json:"is_published" gorm:"default:false"`
	IsDeleted         bool   `gorm:"default:false"`
}

// Lesson represents one unit of self-paced content within a course
type Lesson struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Body        string `json:"body" gorm:"type:text"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}
