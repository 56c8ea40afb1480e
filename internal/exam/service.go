package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotOwner              = errors.New("requestor does not own this exam")
	ErrNotEnrolled           = errors.New("student is not enrolled in this course")
	ErrInsufficientQuestions = errors.New("not enough questions in category for requested sample")
)

// Recorder receives lifecycle events. audit.Log satisfies it.
type Recorder interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// TakeStatus is the state a take-exam request resolved to.
type TakeStatus string

const (
	TakeOpen         TakeStatus = "open"
	TakeAlreadyTaken TakeStatus = "already_taken"
	TakeClosed       TakeStatus = "closed"
	TakeScored       TakeStatus = "scored"
)

const (
	MsgExamCreated  = "Exam created successfully."
	MsgExamUpdated  = "Exam updated successfully."
	MsgExamDeleted  = "Exam deleted successfully."
	MsgAlreadyTaken = "Exam already taken"
	MsgExamClosed   = "Exam closed."
)

// TakeResult describes the outcome of one take-exam request. Questions is
// populated on the open read path, with correct flags stripped.
type TakeResult struct {
	Status    TakeStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	Questions []Question `json:"questions,omitempty"`
	Points    int        `json:"points,omitempty"`
}

// ExamInput carries the mutable exam fields supplied by create and edit.
type ExamInput struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Password      string    `json:"password"`
	TimeLimitSec  int       `json:"time_limit_sec"`
	ActiveFrom    time.Time `json:"active_from"`
	ActiveTo      time.Time `json:"active_to"`
	Category      string    `json:"category"`
	QuestionCount int       `json:"question_count"`
}

func (in ExamInput) Validate() error {
	if in.Name == "" {
		return errors.New("name required")
	}
	if in.Category == "" {
		return errors.New("category required")
	}
	if in.QuestionCount < 0 {
		return errors.New("question_count must not be negative")
	}
	if !in.ActiveTo.IsZero() && !in.ActiveFrom.IsZero() && in.ActiveTo.Before(in.ActiveFrom) {
		return errors.New("active_to precedes active_from")
	}
	return nil
}

// Lifecycle enforces ownership, the activation window, and the one-attempt
// invariant around the store.
type Lifecycle struct {
	store  Store
	events Recorder
	strict bool
	now    func() time.Time
}

type LifecycleOption func(*Lifecycle)

// WithStrictSampling makes exam creation fail when the course has fewer
// matching questions than question_count, instead of silently undersampling.
func WithStrictSampling(strict bool) LifecycleOption {
	return func(l *Lifecycle) { l.strict = strict }
}

func WithRecorder(rec Recorder) LifecycleOption {
	return func(l *Lifecycle) { l.events = rec }
}

func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) { l.now = now }
}

func NewLifecycle(store Store, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) record(ctx context.Context, typ, key string, data any) {
	if l.events == nil {
		return
	}
	_ = l.events.Append(ctx, typ, key, data)
}

// CreateExam persists a new exam owned by ownerID under the course and draws
// its question selection. The role gate (teacher) sits in front of this in
// the HTTP layer.
func (l *Lifecycle) CreateExam(ctx context.Context, ownerID, courseID string, in ExamInput) (Exam, error) {
	if err := in.Validate(); err != nil {
		return Exam{}, err
	}
	course, err := l.store.GetCourse(ctx, courseID)
	if err != nil {
		return Exam{}, err
	}
	e := Exam{
		ID:            uuid.NewString(),
		CourseID:      course.ID,
		OwnerID:       ownerID,
		Name:          in.Name,
		Description:   in.Description,
		Password:      in.Password,
		TimeLimitSec:  in.TimeLimitSec,
		ActiveFrom:    in.ActiveFrom,
		ActiveTo:      in.ActiveTo,
		Category:      in.Category,
		QuestionCount: in.QuestionCount,
	}
	if err := l.rebuildCheck(ctx, e); err != nil {
		return Exam{}, err
	}
	if err := l.store.PutExam(ctx, e); err != nil {
		return Exam{}, err
	}
	if err := l.store.RebuildExamQuestions(ctx, e); err != nil {
		return Exam{}, err
	}
	l.record(ctx, "ExamCreated", e.ID, e)
	return e, nil
}

// UpdateExam applies all mutable fields and regenerates the question
// selection. The exam must live under courseID; only the exam's owner may
// update, anyone else gets ErrNotOwner and the exam is left untouched.
func (l *Lifecycle) UpdateExam(ctx context.Context, requestorID, courseID, examID string, in ExamInput) (Exam, error) {
	if err := in.Validate(); err != nil {
		return Exam{}, err
	}
	e, err := l.store.GetExam(ctx, examID)
	if err != nil {
		return Exam{}, err
	}
	if e.CourseID != courseID {
		return Exam{}, ErrExamNotFound
	}
	if e.OwnerID != requestorID {
		return Exam{}, ErrNotOwner
	}
	e.Name = in.Name
	e.Description = in.Description
	e.Password = in.Password
	e.TimeLimitSec = in.TimeLimitSec
	e.ActiveFrom = in.ActiveFrom
	e.ActiveTo = in.ActiveTo
	e.Category = in.Category
	e.QuestionCount = in.QuestionCount
	if err := l.rebuildCheck(ctx, e); err != nil {
		return Exam{}, err
	}
	if err := l.store.PutExam(ctx, e); err != nil {
		return Exam{}, err
	}
	// Prior selection is discarded; scores recorded against it keep their
	// points but the question list they were computed from is gone.
	if err := l.store.RebuildExamQuestions(ctx, e); err != nil {
		return Exam{}, err
	}
	l.record(ctx, "ExamUpdated", e.ID, e)
	return e, nil
}

func (l *Lifecycle) DeleteExam(ctx context.Context, requestorID, courseID, examID string) error {
	e, err := l.store.GetExam(ctx, examID)
	if err != nil {
		return err
	}
	if e.CourseID != courseID {
		return ErrExamNotFound
	}
	if e.OwnerID != requestorID {
		return ErrNotOwner
	}
	if err := l.store.DeleteExam(ctx, examID); err != nil {
		return err
	}
	l.record(ctx, "ExamDeleted", examID, map[string]string{"owner_id": requestorID})
	return nil
}

func (l *Lifecycle) rebuildCheck(ctx context.Context, e Exam) error {
	if !l.strict {
		return nil
	}
	n, err := l.store.CountQuestions(ctx, e.CourseID, e.Category)
	if err != nil {
		return err
	}
	if n < e.QuestionCount {
		return fmt.Errorf("%w: have %d, want %d", ErrInsufficientQuestions, n, e.QuestionCount)
	}
	return nil
}

// TakeExam runs the submission state machine for one student request.
// A nil answers map is the read path: when the exam is open it returns the
// question set with correct flags stripped. A non-nil map is a submission:
// each entry selects a choice id for a question id; unanswered questions and
// choice ids that do not belong to the question count as incorrect.
func (l *Lifecycle) TakeExam(ctx context.Context, studentID, courseID, examID string, answers map[string]string) (TakeResult, error) {
	enrolled, err := l.store.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return TakeResult{}, err
	}
	if !enrolled {
		return TakeResult{}, ErrNotEnrolled
	}
	e, err := l.store.GetExam(ctx, examID)
	if err != nil {
		return TakeResult{}, err
	}
	if e.CourseID != courseID {
		return TakeResult{}, ErrExamNotFound
	}

	// The window gates first: outside it the exam is closed no matter what,
	// even for a student who already holds a score.
	if !e.Open(l.now()) {
		return TakeResult{Status: TakeClosed, Message: MsgExamClosed}, nil
	}

	if sc, err := l.store.GetScore(ctx, studentID, examID); err == nil {
		return TakeResult{Status: TakeAlreadyTaken, Message: MsgAlreadyTaken, Points: sc.Points}, nil
	} else if !errors.Is(err, ErrScoreNotFound) {
		return TakeResult{}, err
	}

	questions, err := l.store.ExamQuestions(ctx, examID)
	if err != nil {
		return TakeResult{}, err
	}

	if answers == nil {
		return TakeResult{Status: TakeOpen, Questions: stripAnswers(questions)}, nil
	}

	points := tally(questions, answers)
	created, err := l.store.CreateScore(ctx, Score{ExamID: examID, StudentID: studentID, Points: points})
	if err != nil {
		return TakeResult{}, err
	}
	if !created {
		// A concurrent submission inserted first; this one does not count.
		sc, err := l.store.GetScore(ctx, studentID, examID)
		if err != nil {
			return TakeResult{}, err
		}
		return TakeResult{Status: TakeAlreadyTaken, Message: MsgAlreadyTaken, Points: sc.Points}, nil
	}
	l.record(ctx, "ExamSubmitted", examID, map[string]any{"student_id": studentID, "points": points})
	return TakeResult{
		Status:  TakeScored,
		Message: fmt.Sprintf("Exam finished with %d correct answers", points),
		Points:  points,
	}, nil
}

func tally(questions []Question, answers map[string]string) int {
	points := 0
	for _, q := range questions {
		choiceID, ok := answers[q.ID]
		if !ok {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == choiceID && c.Correct {
				points++
				break
			}
		}
	}
	return points
}

func stripAnswers(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Choices = append([]Choice(nil), q.Choices...)
		for j := range q.Choices {
			q.Choices[j].Correct = false
		}
		out[i] = q
	}
	return out
}
