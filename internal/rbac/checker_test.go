package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "exam:take", true},
		{"student", "exam:edit", false},
		{"student", "scores:view-all", false},
		{"teacher", "exam:create", true},
		{"teacher", "exam:take", false},
		{"admin", "exam:take", true},
		{"admin", "audit:view", true},
		{"", "exam:take", false},
		{"nobody", "exam:take", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerWildcardPrefix(t *testing.T) {
	c := NewChecker(map[string][]string{"ta": {"exam:*"}})
	if !c.Has("ta", "exam:edit") {
		t.Error("exam:* should cover exam:edit")
	}
	if c.Has("ta", "course:create") {
		t.Error("exam:* must not cover course:create")
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("student", "exam:edit", "exam:take") {
		t.Error("Any should pass when one perm matches")
	}
	if c.Any("student", "exam:edit", "exam:create") {
		t.Error("Any should fail when no perm matches")
	}
}

func TestRequireMiddleware(t *testing.T) {
	handler := Require("exam:create")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/exams", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithRole(context.Background(), "teacher")))
	if rec.Code != http.StatusOK {
		t.Fatalf("teacher: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithRole(context.Background(), "student")))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student: status = %d, want 403", rec.Code)
	}

	// no role in context at all
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing role: status = %d, want 403", rec.Code)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithSubject(WithRole(context.Background(), "teacher"), "t-1")
	if got := RoleFromContext(ctx); got != "teacher" {
		t.Fatalf("role = %q", got)
	}
	if got := SubjectFromContext(ctx); got != "t-1" {
		t.Fatalf("subject = %q", got)
	}
	if got := SubjectFromContext(context.Background()); got != "" {
		t.Fatalf("empty context subject = %q", got)
	}
}
