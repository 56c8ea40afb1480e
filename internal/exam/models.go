package exam

import "time"

type Course struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Participation is the enrollment record tying a student to a course.
type Participation struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
}

type Choice struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id,omitempty"`
	Label      string `json:"label"`
	Correct    bool   `json:"correct,omitempty"` // stripped before serving to students
}

type Question struct {
	ID       string   `json:"id"`
	CourseID string   `json:"course_id,omitempty"`
	Category string   `json:"category"`
	Prompt   string   `json:"prompt"`
	Choices  []Choice `json:"choices,omitempty"`
}

type Exam struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"course_id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Password      string    `json:"password,omitempty"`
	TimeLimitSec  int       `json:"time_limit_sec"`
	ActiveFrom    time.Time `json:"active_from"`
	ActiveTo      time.Time `json:"active_to"`
	Category      string    `json:"category"`
	QuestionCount int       `json:"question_count"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Activated reports whether the exam window has started.
func (e Exam) Activated(now time.Time) bool { return !now.Before(e.ActiveFrom) }

// Expired reports whether the exam window has ended.
func (e Exam) Expired(now time.Time) bool { return !now.Before(e.ActiveTo) }

// Open reports whether the exam currently accepts submissions.
func (e Exam) Open(now time.Time) bool { return e.Activated(now) && !e.Expired(now) }

// Score is the single immutable record of a student's result on an exam.
// Points counts correct answers, not a percentage.
type Score struct {
	ExamID    string `json:"exam_id"`
	StudentID string `json:"student_id"`
	Points    int    `json:"points"`
	CreatedAt int64  `json:"created_at,omitempty"`
}
