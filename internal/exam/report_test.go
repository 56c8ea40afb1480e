package exam

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportForStudent_Formatting(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store, WithClock(fixedClock))
	rep := NewReporter(store)
	ctx := context.Background()

	course, e := takeSetup(t, store, lc, openInput(4, "algebra"))
	_ = course

	created, err := store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "student-1", Points: 3})
	require.NoError(t, err)
	require.True(t, created)

	got, err := rep.ForStudent(ctx, "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "3/4 75.0%", got)
}

func TestReportForStudent_NotTaken(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store, WithClock(fixedClock))
	rep := NewReporter(store)

	_, e := takeSetup(t, store, lc, openInput(4, "algebra"))

	got, err := rep.ForStudent(context.Background(), "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, ResultNotTaken, got)
}

func TestReportForStudent_ZeroQuestionsGuarded(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store, WithClock(fixedClock))
	rep := NewReporter(store)
	ctx := context.Background()

	_, e := takeSetup(t, store, lc, openInput(0, "algebra"))
	_, err := store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "student-1", Points: 0})
	require.NoError(t, err)

	got, err := rep.ForStudent(ctx, "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, ResultNoQuestions, got)
}

func TestReportForCourse_AllParticipants(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store, WithClock(fixedClock))
	rep := NewReporter(store)
	ctx := context.Background()

	course, e := takeSetup(t, store, lc, openInput(4, "algebra"))
	require.NoError(t, store.Enroll(ctx, Participation{ID: uuid.NewString(), CourseID: course.ID, StudentID: "student-2"}))
	require.NoError(t, store.Enroll(ctx, Participation{ID: uuid.NewString(), CourseID: course.ID, StudentID: "student-3"}))

	_, err := store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "student-1", Points: 4})
	require.NoError(t, err)
	_, err = store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "student-2", Points: 1})
	require.NoError(t, err)

	results, err := rep.ForCourse(ctx, course.ID, e.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byStudent := map[string]string{}
	for _, pr := range results {
		byStudent[pr.Participation.StudentID] = pr.Result
	}
	assert.Equal(t, "4/4 100.0%", byStudent["student-1"])
	assert.Equal(t, "1/4 25.0%", byStudent["student-2"])
	assert.Equal(t, ResultNotTaken, byStudent["student-3"])

	// enumeration order follows the store's participation order
	assert.Equal(t, "student-1", results[0].Participation.StudentID)
	assert.Equal(t, "student-2", results[1].Participation.StudentID)
	assert.Equal(t, "student-3", results[2].Participation.StudentID)
}

func TestStudentView_Sentinels(t *testing.T) {
	store := NewMemoryStore()
	lc := NewLifecycle(store, WithClock(fixedClock))
	rep := NewReporter(store)
	ctx := context.Background()

	_, empty := takeSetup(t, store, lc, openInput(0, "algebra"))
	got, err := rep.StudentView(ctx, "student-1", empty.ID)
	require.NoError(t, err)
	assert.Equal(t, ResultNoQuestions, got)

	_, e := takeSetup(t, store, lc, openInput(3, "algebra"))
	got, err = rep.StudentView(ctx, "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, ResultNotYetTaken, got)

	_, err = store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "student-1", Points: 2})
	require.NoError(t, err)
	got, err = rep.StudentView(ctx, "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "2/3 66.7%", got)
}

func TestQuestionCountDrift(t *testing.T) {
	// a rebuild after scoring changes the denominator, not the points
	store := NewMemoryStore()
	lc := NewLifecycle(store, WithClock(fixedClock))
	rep := NewReporter(store)
	ctx := context.Background()

	course, e := takeSetup(t, store, lc, openInput(4, "algebra"))
	_, err := store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "student-1", Points: 3})
	require.NoError(t, err)

	got, err := rep.ForStudent(ctx, "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "3/4 75.0%", got)

	in := openInput(6, "algebra")
	_, err = lc.UpdateExam(ctx, "teacher-1", course.ID, e.ID, in)
	require.NoError(t, err)

	got, err = rep.ForStudent(ctx, "student-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "3/6 50.0%", got)
}
