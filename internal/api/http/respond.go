package http

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// message wraps a user-visible informational string.
func message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// redirectToCourses is the safe landing for requests that fail an
// authorization check at the course level.
func redirectToCourses(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

// redirectToExams sends a non-owner back to the course's exam list without
// modifying anything.
func redirectToExams(w http.ResponseWriter, r *http.Request, courseID string) {
	http.Redirect(w, r, "/courses/"+courseID+"/exams", http.StatusSeeOther)
}
