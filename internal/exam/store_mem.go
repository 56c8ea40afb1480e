package exam

import (
	"context"
	"math/rand"
	"sort"
	"sync"
)

// memoryStore is a map-backed Store used by tests and small demos.
type memoryStore struct {
	mu             sync.RWMutex
	courses        map[string]Course
	participations []Participation
	questions      map[string]Question
	exams          map[string]Exam
	examQuestions  map[string][]string // examID -> questionIDs
	scores         map[string]Score    // examID|studentID
}

func NewMemoryStore() Store {
	return &memoryStore{
		courses:       map[string]Course{},
		questions:     map[string]Question{},
		exams:         map[string]Exam{},
		examQuestions: map[string][]string{},
		scores:        map[string]Score{},
	}
}

func scoreKey(examID, studentID string) string { return examID + "|" + studentID }

func (m *memoryStore) CreateCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c, nil
}

func (m *memoryStore) ListCoursesByOwner(_ context.Context, ownerID string) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Course{}
	for _, c := range m.courses {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) Enroll(_ context.Context, p Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, got := range m.participations {
		if got.CourseID == p.CourseID && got.StudentID == p.StudentID {
			return nil
		}
	}
	m.participations = append(m.participations, p)
	return nil
}

func (m *memoryStore) IsEnrolled(_ context.Context, studentID, courseID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.participations {
		if p.CourseID == courseID && p.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) ListParticipations(_ context.Context, courseID string) ([]Participation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Participation{}
	for _, p := range m.participations {
		if p.CourseID == courseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range q.Choices {
		q.Choices[i].QuestionID = q.ID
	}
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) CountQuestions(_ context.Context, courseID, category string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.questions {
		if q.CourseID == courseID && q.Category == category {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (m *memoryStore) DeleteExam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return ErrExamNotFound
	}
	delete(m.exams, id)
	delete(m.examQuestions, id)
	for k, sc := range m.scores {
		if sc.ExamID == id {
			delete(m.scores, k)
		}
	}
	return nil
}

func (m *memoryStore) ListExams(_ context.Context, courseID string) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Exam{}
	for _, e := range m.exams {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActiveTo.Before(out[j].ActiveTo) })
	return out, nil
}

func (m *memoryStore) RebuildExamQuestions(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool := []string{}
	for id, q := range m.questions {
		if q.CourseID == e.CourseID && q.Category == e.Category {
			pool = append(pool, id)
		}
	}
	sort.Strings(pool)
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > e.QuestionCount {
		pool = pool[:e.QuestionCount]
	}
	m.examQuestions[e.ID] = pool
	return nil
}

func (m *memoryStore) ExamQuestions(_ context.Context, examID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := append([]string(nil), m.examQuestions[examID]...)
	sort.Strings(ids)
	out := []Question{}
	for _, id := range ids {
		if q, ok := m.questions[id]; ok {
			q.Choices = append([]Choice(nil), q.Choices...)
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryStore) CountExamQuestions(_ context.Context, examID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.examQuestions[examID]), nil
}

func (m *memoryStore) CreateScore(_ context.Context, sc Score) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scoreKey(sc.ExamID, sc.StudentID)
	if _, exists := m.scores[k]; exists {
		return false, nil
	}
	m.scores[k] = sc
	return true, nil
}

func (m *memoryStore) GetScore(_ context.Context, studentID, examID string) (Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.scores[scoreKey(examID, studentID)]
	if !ok {
		return Score{}, ErrScoreNotFound
	}
	return sc, nil
}
