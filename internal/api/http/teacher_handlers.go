package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusgrid/examgate/internal/exam"
	"github.com/campusgrid/examgate/internal/rbac"
)

// POST /courses/{courseID}/exams — teacher creates an exam; the question
// selection is sampled immediately.
func CreateExamHandler(lc *exam.Lifecycle, store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if _, ok := ownCourse(w, r, store, courseID); !ok {
			return
		}
		var in exam.ExamInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		e, err := lc.CreateExam(r.Context(), sub, courseID, in)
		if err != nil {
			if errors.Is(err, exam.ErrInsufficientQuestions) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": exam.MsgExamCreated,
			"exam":    e,
		})
	}
}

// PUT /courses/{courseID}/exams/{examID} — owner-only update; anyone else is
// sent back to the exam list with nothing changed.
func UpdateExamHandler(lc *exam.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		var in exam.ExamInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		e, err := lc.UpdateExam(r.Context(), sub, courseID, examID, in)
		switch {
		case errors.Is(err, exam.ErrNotOwner):
			redirectToExams(w, r, courseID)
		case errors.Is(err, exam.ErrExamNotFound):
			http.Error(w, "exam not found", http.StatusNotFound)
		case errors.Is(err, exam.ErrInsufficientQuestions):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			writeJSON(w, http.StatusOK, map[string]any{
				"message": exam.MsgExamUpdated,
				"exam":    e,
			})
		}
	}
}

// DELETE /courses/{courseID}/exams/{examID}
func DeleteExamHandler(lc *exam.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		sub := rbac.SubjectFromContext(r.Context())
		err := lc.DeleteExam(r.Context(), sub, courseID, examID)
		switch {
		case errors.Is(err, exam.ErrNotOwner):
			redirectToExams(w, r, courseID)
		case errors.Is(err, exam.ErrExamNotFound):
			http.Error(w, "exam not found", http.StatusNotFound)
		case err != nil:
			http.Error(w, "db error", http.StatusInternalServerError)
		default:
			message(w, http.StatusOK, exam.MsgExamDeleted)
		}
	}
}

// GET /courses/{courseID}/exams — exams of an owned course, ordered by
// active_to ascending.
func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if _, ok := ownCourse(w, r, store, courseID); !ok {
			return
		}
		exams, err := store.ListExams(r.Context(), courseID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, exams)
	}
}

// GET /courses/{courseID}/exams/{examID}/scores — per-participant score table
// for the exam's owner.
func ViewScoresHandler(rep *exam.Reporter, store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), examID)
		if errors.Is(err, exam.ErrExamNotFound) || (err == nil && e.CourseID != courseID) {
			http.Error(w, "exam not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if e.OwnerID != rbac.SubjectFromContext(r.Context()) {
			redirectToCourses(w, r)
			return
		}
		results, err := rep.ForCourse(r.Context(), courseID, examID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"exam_id": examID,
			"scores":  results,
		})
	}
}
