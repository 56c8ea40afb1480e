package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusgrid/examgate/internal/exam"
	"github.com/campusgrid/examgate/internal/rbac"
)

// POST /courses  { "name": "..." }
func CreateCourseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c := exam.Course{ID: uuid.NewString(), Name: strings.TrimSpace(req.Name), OwnerID: sub}
		if err := store.CreateCourse(r.Context(), c); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// GET /courses — the requesting teacher's own courses.
func ListCoursesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		courses, err := store.ListCoursesByOwner(r.Context(), sub)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

// POST /courses/{courseID}/participants  { "student_ids": ["..."] }
func EnrollStudentsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if _, ok := ownCourse(w, r, store, courseID); !ok {
			return
		}
		var req struct {
			StudentIDs []string `json:"student_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.StudentIDs) == 0 {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		for _, sid := range req.StudentIDs {
			sid = strings.TrimSpace(sid)
			if sid == "" {
				continue
			}
			p := exam.Participation{ID: uuid.NewString(), CourseID: courseID, StudentID: sid}
			if err := store.Enroll(r.Context(), p); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /courses/{courseID}/questions
// { "category": "...", "prompt": "...", "choices": [{"label": "...", "correct": true}, ...] }
func CreateQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if _, ok := ownCourse(w, r, store, courseID); !ok {
			return
		}
		var req struct {
			Category string `json:"category"`
			Prompt   string `json:"prompt"`
			Choices  []struct {
				Label   string `json:"label"`
				Correct bool   `json:"correct"`
			} `json:"choices"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Category == "" || req.Prompt == "" || len(req.Choices) < 2 {
			http.Error(w, "category, prompt and at least two choices required", http.StatusBadRequest)
			return
		}
		q := exam.Question{
			ID:       uuid.NewString(),
			CourseID: courseID,
			Category: req.Category,
			Prompt:   req.Prompt,
		}
		for _, c := range req.Choices {
			q.Choices = append(q.Choices, exam.Choice{
				ID:         uuid.NewString(),
				QuestionID: q.ID,
				Label:      c.Label,
				Correct:    c.Correct,
			})
		}
		if err := store.CreateQuestion(r.Context(), q); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// ownCourse loads the course and checks ownership against the request
// subject. It writes the failure response itself and reports success.
func ownCourse(w http.ResponseWriter, r *http.Request, store exam.Store, courseID string) (exam.Course, bool) {
	course, err := store.GetCourse(r.Context(), courseID)
	if errors.Is(err, exam.ErrCourseNotFound) {
		http.Error(w, "course not found", http.StatusNotFound)
		return exam.Course{}, false
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return exam.Course{}, false
	}
	if course.OwnerID != rbac.SubjectFromContext(r.Context()) {
		redirectToCourses(w, r)
		return exam.Course{}, false
	}
	return course, true
}
