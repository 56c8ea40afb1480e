package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusgrid/examgate/internal/exam"
	"github.com/campusgrid/examgate/internal/rbac"
)

// enrolled verifies the subject is a participant of the course; failures
// redirect to the course listing, mirroring the teacher-side ownership check.
func enrolled(w http.ResponseWriter, r *http.Request, store exam.Store, courseID string) (string, bool) {
	sub := rbac.SubjectFromContext(r.Context())
	ok, err := store.IsEnrolled(r.Context(), sub, courseID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return "", false
	}
	if !ok {
		redirectToCourses(w, r)
		return "", false
	}
	return sub, true
}

// GET /courses/{courseID}/exams/{examID} — the student's own result line plus
// the exam's question list (without correct flags).
func ViewExamHandler(rep *exam.Reporter, store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		sub, ok := enrolled(w, r, store, courseID)
		if !ok {
			return
		}
		e, err := store.GetExam(r.Context(), examID)
		if errors.Is(err, exam.ErrExamNotFound) || (err == nil && e.CourseID != courseID) {
			http.Error(w, "exam not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		result, err := rep.StudentView(r.Context(), sub, examID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		e.Password = ""
		writeJSON(w, http.StatusOK, map[string]any{
			"exam":   e,
			"result": result,
		})
	}
}

// GET /courses/{courseID}/exams/{examID}/take — the question form, or the
// already-taken/closed outcome.
func TakeExamHandler(lc *exam.Lifecycle, store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveTake(lc, store, nil)(w, r)
	}
}

// POST /courses/{courseID}/exams/{examID}/take — submit answers. Body maps
// question id to selected choice id.
func SubmitExamHandler(lc *exam.Lifecycle, store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var answers map[string]string
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if answers == nil {
			answers = map[string]string{}
		}
		serveTake(lc, store, answers)(w, r)
	}
}

func serveTake(lc *exam.Lifecycle, store exam.Store, answers map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		sub := rbac.SubjectFromContext(r.Context())
		res, err := lc.TakeExam(r.Context(), sub, courseID, examID, answers)
		switch {
		case errors.Is(err, exam.ErrNotEnrolled):
			redirectToCourses(w, r)
		case errors.Is(err, exam.ErrExamNotFound):
			http.Error(w, "exam not found", http.StatusNotFound)
		case err != nil:
			http.Error(w, "db error", http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusOK, res)
		}
	}
}
