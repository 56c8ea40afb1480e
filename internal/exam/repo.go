package exam

import (
	"context"
	"errors"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrExamNotFound   = errors.New("exam not found")
	ErrScoreNotFound  = errors.New("score not found")
)

type Store interface {
	CreateCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCoursesByOwner(ctx context.Context, ownerID string) ([]Course, error)

	Enroll(ctx context.Context, p Participation) error
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
	// ListParticipations returns enrollments in store enumeration order.
	ListParticipations(ctx context.Context, courseID string) ([]Participation, error)

	CreateQuestion(ctx context.Context, q Question) error
	// CountQuestions counts the course's question pool for one category.
	CountQuestions(ctx context.Context, courseID, category string) (int, error)

	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	DeleteExam(ctx context.Context, id string) error
	// ListExams returns a course's exams ordered by active_to ascending.
	ListExams(ctx context.Context, courseID string) ([]Exam, error)

	// RebuildExamQuestions discards the exam's question selection and draws a
	// fresh uniform sample, without replacement, of up to e.QuestionCount
	// questions matching e.Category from the exam's course. Delete and insert
	// run in one transaction.
	RebuildExamQuestions(ctx context.Context, e Exam) error
	// ExamQuestions returns the selected questions with their choices,
	// including correct flags. Callers serving students must strip them.
	ExamQuestions(ctx context.Context, examID string) ([]Question, error)
	CountExamQuestions(ctx context.Context, examID string) (int, error)

	// CreateScore inserts the score unless one already exists for the
	// (exam, student) pair. Reports whether the row was inserted; false means
	// another submission won.
	CreateScore(ctx context.Context, s Score) (bool, error)
	GetScore(ctx context.Context, studentID, examID string) (Score, error)
}
