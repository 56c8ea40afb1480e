package exam

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campusgrid/examgate/internal/db"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dsn := "file:" + filepath.Join(t.TempDir(), "examgate_test.db")
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh, "sqlite")
}

func seedSQLCourse(t *testing.T, store *SQLStore, n int, category string) Course {
	t.Helper()
	ctx := context.Background()
	c := Course{ID: uuid.NewString(), Name: "Physics", OwnerID: "teacher-1"}
	if err := store.CreateCourse(ctx, c); err != nil {
		t.Fatalf("create course: %v", err)
	}
	for i := 0; i < n; i++ {
		qid := uuid.NewString()
		q := Question{
			ID: qid, CourseID: c.ID, Category: category, Prompt: "p",
			Choices: []Choice{
				{ID: qid + "-ok", QuestionID: qid, Label: "right", Correct: true},
				{ID: qid + "-no", QuestionID: qid, Label: "wrong"},
			},
		}
		if err := store.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	return c
}

func sqlExam(course Course, count int, category string, to time.Time) Exam {
	return Exam{
		ID:            uuid.NewString(),
		CourseID:      course.ID,
		OwnerID:       course.OwnerID,
		Name:          "Quiz",
		Category:      category,
		QuestionCount: count,
		ActiveFrom:    to.Add(-time.Hour),
		ActiveTo:      to,
	}
}

func TestSQLStore_RebuildSamplesDistinctQuestions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 8, "mechanics")

	e := sqlExam(course, 5, "mechanics", time.Now().Add(time.Hour))
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatalf("put exam: %v", err)
	}
	if err := store.RebuildExamQuestions(ctx, e); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	qs, err := store.ExamQuestions(ctx, e.ID)
	if err != nil {
		t.Fatalf("exam questions: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("sampled %d questions, want 5", len(qs))
	}
	seen := map[string]bool{}
	for _, q := range qs {
		if q.Category != "mechanics" {
			t.Errorf("sampled question of category %q", q.Category)
		}
		if seen[q.ID] {
			t.Errorf("question %s sampled twice", q.ID)
		}
		seen[q.ID] = true
		if len(q.Choices) != 2 {
			t.Errorf("question %s has %d choices, want 2", q.ID, len(q.Choices))
		}
	}
}

func TestSQLStore_RebuildReplacesPriorSelection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 4, "mechanics")

	e := sqlExam(course, 4, "mechanics", time.Now().Add(time.Hour))
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatalf("put exam: %v", err)
	}
	if err := store.RebuildExamQuestions(ctx, e); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	e.QuestionCount = 2
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatalf("update exam: %v", err)
	}
	if err := store.RebuildExamQuestions(ctx, e); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	n, err := store.CountExamQuestions(ctx, e.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("selection has %d questions after rebuild, want 2", n)
	}
}

func TestSQLStore_RebuildUndersamples(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 2, "mechanics")

	e := sqlExam(course, 10, "mechanics", time.Now().Add(time.Hour))
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatalf("put exam: %v", err)
	}
	if err := store.RebuildExamQuestions(ctx, e); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	n, err := store.CountExamQuestions(ctx, e.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("selection has %d questions, want all 2 available", n)
	}
}

func TestSQLStore_CreateScoreEnforcesUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 2, "mechanics")

	e := sqlExam(course, 2, "mechanics", time.Now().Add(time.Hour))
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatalf("put exam: %v", err)
	}

	created, err := store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "s1", Points: 2})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if !created {
		t.Fatal("first create reported not created")
	}

	created, err = store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "s1", Points: 0})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatal("duplicate score was inserted")
	}

	sc, err := store.GetScore(ctx, "s1", e.ID)
	if err != nil {
		t.Fatalf("get score: %v", err)
	}
	if sc.Points != 2 {
		t.Fatalf("score points = %d, want the original 2", sc.Points)
	}
}

func TestSQLStore_ListExamsOrderedByActiveTo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 1, "mechanics")

	base := time.Now()
	late := sqlExam(course, 1, "mechanics", base.Add(48*time.Hour))
	early := sqlExam(course, 1, "mechanics", base.Add(1*time.Hour))
	mid := sqlExam(course, 1, "mechanics", base.Add(24*time.Hour))
	for _, e := range []Exam{late, early, mid} {
		if err := store.PutExam(ctx, e); err != nil {
			t.Fatalf("put exam: %v", err)
		}
	}

	exams, err := store.ListExams(ctx, course.ID)
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if len(exams) != 3 {
		t.Fatalf("listed %d exams, want 3", len(exams))
	}
	want := []string{early.ID, mid.ID, late.ID}
	for i, e := range exams {
		if e.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, e.ID, want[i])
		}
	}
}

func TestSQLStore_DeleteExamCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 3, "mechanics")

	e := sqlExam(course, 3, "mechanics", time.Now().Add(time.Hour))
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatalf("put exam: %v", err)
	}
	if err := store.RebuildExamQuestions(ctx, e); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := store.CreateScore(ctx, Score{ExamID: e.ID, StudentID: "s1", Points: 1}); err != nil {
		t.Fatalf("create score: %v", err)
	}

	if err := store.DeleteExam(ctx, e.ID); err != nil {
		t.Fatalf("delete exam: %v", err)
	}
	if _, err := store.GetExam(ctx, e.ID); err != ErrExamNotFound {
		t.Fatalf("get after delete: err = %v, want ErrExamNotFound", err)
	}
	if n, err := store.CountExamQuestions(ctx, e.ID); err != nil || n != 0 {
		t.Fatalf("exam_questions after delete: n=%d err=%v", n, err)
	}
	if _, err := store.GetScore(ctx, "s1", e.ID); err != ErrScoreNotFound {
		t.Fatalf("score after delete: err = %v, want ErrScoreNotFound", err)
	}
}

func TestSQLStore_EnrollmentAndParticipants(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	course := seedSQLCourse(t, store, 1, "mechanics")

	for _, sid := range []string{"s1", "s2"} {
		p := Participation{ID: uuid.NewString(), CourseID: course.ID, StudentID: sid}
		if err := store.Enroll(ctx, p); err != nil {
			t.Fatalf("enroll %s: %v", sid, err)
		}
	}
	// duplicate enrollment is a no-op
	if err := store.Enroll(ctx, Participation{ID: uuid.NewString(), CourseID: course.ID, StudentID: "s1"}); err != nil {
		t.Fatalf("duplicate enroll: %v", err)
	}

	ps, err := store.ListParticipations(ctx, course.ID)
	if err != nil {
		t.Fatalf("list participations: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d participations, want 2", len(ps))
	}

	ok, err := store.IsEnrolled(ctx, "s1", course.ID)
	if err != nil || !ok {
		t.Fatalf("IsEnrolled(s1) = %v, %v; want true", ok, err)
	}
	ok, err = store.IsEnrolled(ctx, "nobody", course.ID)
	if err != nil || ok {
		t.Fatalf("IsEnrolled(nobody) = %v, %v; want false", ok, err)
	}
}
