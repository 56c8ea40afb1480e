package exam

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel result strings surfaced to users in place of a score.
const (
	ResultNotTaken    = "Not taken"
	ResultNotYetTaken = "Exam not yet taken."
	ResultNoQuestions = "Exam has no assigned questions."
)

// ParticipantResult pairs one enrollment with its formatted score line.
type ParticipantResult struct {
	Participation Participation `json:"participation"`
	Result        string        `json:"result"`
}

// Reporter formats score summaries. Percentages are rounded to one decimal
// place and computed against the exam's current question selection, so a
// rebuild after scoring shifts the denominator; the recorded points never
// change.
type Reporter struct {
	store Store
}

func NewReporter(store Store) *Reporter { return &Reporter{store: store} }

// ForStudent returns "{points}/{count} {pct}%" for the student's score,
// ResultNotTaken when no score exists, and ResultNoQuestions when the exam
// has an empty question selection.
func (r *Reporter) ForStudent(ctx context.Context, studentID, examID string) (string, error) {
	sc, err := r.store.GetScore(ctx, studentID, examID)
	if errors.Is(err, ErrScoreNotFound) {
		return ResultNotTaken, nil
	}
	if err != nil {
		return "", err
	}
	n, err := r.store.CountExamQuestions(ctx, examID)
	if err != nil {
		return "", err
	}
	return formatResult(sc.Points, n), nil
}

// ForCourse reports every participant of the course against the exam, in the
// store's enumeration order. Participants without a score get ResultNotTaken.
func (r *Reporter) ForCourse(ctx context.Context, courseID, examID string) ([]ParticipantResult, error) {
	participants, err := r.store.ListParticipations(ctx, courseID)
	if err != nil {
		return nil, err
	}
	n, err := r.store.CountExamQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	out := make([]ParticipantResult, 0, len(participants))
	for _, p := range participants {
		sc, err := r.store.GetScore(ctx, p.StudentID, examID)
		switch {
		case errors.Is(err, ErrScoreNotFound):
			out = append(out, ParticipantResult{Participation: p, Result: ResultNotTaken})
		case err != nil:
			return nil, err
		default:
			out = append(out, ParticipantResult{Participation: p, Result: formatResult(sc.Points, n)})
		}
	}
	return out, nil
}

// StudentView is the student-facing result line: it distinguishes an exam
// with no questions from one simply not attempted yet.
func (r *Reporter) StudentView(ctx context.Context, studentID, examID string) (string, error) {
	n, err := r.store.CountExamQuestions(ctx, examID)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return ResultNoQuestions, nil
	}
	sc, err := r.store.GetScore(ctx, studentID, examID)
	if errors.Is(err, ErrScoreNotFound) {
		return ResultNotYetTaken, nil
	}
	if err != nil {
		return "", err
	}
	return formatResult(sc.Points, n), nil
}

func formatResult(points, total int) string {
	if total == 0 {
		return ResultNoQuestions
	}
	pct := float64(points) / float64(total) * 100
	return fmt.Sprintf("%d/%d %.1f%%", points, total, pct)
}
