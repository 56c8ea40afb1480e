package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore backs the exam domain with database/sql. Queries use $N
// placeholders, which both the pgx and modernc sqlite drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, owner_id, created_at) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.OwnerID, time.Now().Unix())
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCoursesByOwner(ctx context.Context, ownerID string) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner_id, created_at FROM courses WHERE owner_id=$1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Enroll(ctx context.Context, p Participation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participations (id, course_id, student_id) VALUES ($1,$2,$3)
		 ON CONFLICT (course_id, student_id) DO NOTHING`,
		p.ID, p.CourseID, p.StudentID)
	return err
}

func (s *SQLStore) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM participations WHERE course_id=$1 AND student_id=$2)`,
		courseID, studentID).Scan(&ok)
	return ok, err
}

func (s *SQLStore) ListParticipations(ctx context.Context, courseID string) ([]Participation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, student_id FROM participations WHERE course_id=$1 ORDER BY id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Participation{}
	for rows.Next() {
		var p Participation
		if err := rows.Scan(&p.ID, &p.CourseID, &p.StudentID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO questions (id, course_id, category, prompt) VALUES ($1,$2,$3,$4)`,
		q.ID, q.CourseID, q.Category, q.Prompt); err != nil {
		return err
	}
	for _, c := range q.Choices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO choices (id, question_id, label, correct) VALUES ($1,$2,$3,$4)`,
			c.ID, q.ID, c.Label, c.Correct); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) CountQuestions(ctx context.Context, courseID, category string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE course_id=$1 AND category=$2`,
		courseID, category).Scan(&n)
	return n, err
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exams
		   (id, course_id, owner_id, name, description, password, time_limit_sec,
		    active_from, active_to, category, question_count, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO UPDATE SET
		   name=EXCLUDED.name, description=EXCLUDED.description,
		   password=EXCLUDED.password, time_limit_sec=EXCLUDED.time_limit_sec,
		   active_from=EXCLUDED.active_from, active_to=EXCLUDED.active_to,
		   category=EXCLUDED.category, question_count=EXCLUDED.question_count`,
		e.ID, e.CourseID, e.OwnerID, e.Name, e.Description, e.Password, e.TimeLimitSec,
		e.ActiveFrom.Unix(), e.ActiveTo.Unix(), e.Category, e.QuestionCount, time.Now().Unix())
	return err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, owner_id, name, description, password, time_limit_sec,
		        active_from, active_to, category, question_count, created_at
		   FROM exams WHERE id=$1`, id)
	return scanExam(row)
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExamNotFound
	}
	return nil
}

func (s *SQLStore) ListExams(ctx context.Context, courseID string) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, owner_id, name, description, password, time_limit_sec,
		        active_from, active_to, category, question_count, created_at
		   FROM exams WHERE course_id=$1 ORDER BY active_to`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (Exam, error) {
	var e Exam
	var from, to int64
	err := row.Scan(&e.ID, &e.CourseID, &e.OwnerID, &e.Name, &e.Description, &e.Password,
		&e.TimeLimitSec, &from, &to, &e.Category, &e.QuestionCount, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	e.ActiveFrom = time.Unix(from, 0).UTC()
	e.ActiveTo = time.Unix(to, 0).UTC()
	return e, nil
}

func (s *SQLStore) RebuildExamQuestions(ctx context.Context, e Exam) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM exam_questions WHERE exam_id=$1`, e.ID); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	// ORDER BY RANDOM() is understood by both sqlite and postgres.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exam_questions (exam_id, question_id)
		 SELECT $1, id FROM questions
		  WHERE course_id=$2 AND category=$3
		  ORDER BY RANDOM() LIMIT $4`,
		e.ID, e.CourseID, e.Category, e.QuestionCount); err != nil {
		return fmt.Errorf("sample questions: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) ExamQuestions(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.course_id, q.category, q.prompt
		   FROM questions q JOIN exam_questions eq ON eq.question_id = q.id
		  WHERE eq.exam_id=$1 ORDER BY q.id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	idx := map[string]int{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Category, &q.Prompt); err != nil {
			return nil, err
		}
		idx[q.ID] = len(out)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.question_id, c.label, c.correct
		   FROM choices c JOIN exam_questions eq ON eq.question_id = c.question_id
		  WHERE eq.exam_id=$1 ORDER BY c.id`, examID)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var c Choice
		if err := crows.Scan(&c.ID, &c.QuestionID, &c.Label, &c.Correct); err != nil {
			return nil, err
		}
		if i, ok := idx[c.QuestionID]; ok {
			out[i].Choices = append(out[i].Choices, c)
		}
	}
	return out, crows.Err()
}

func (s *SQLStore) CountExamQuestions(ctx context.Context, examID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exam_questions WHERE exam_id=$1`, examID).Scan(&n)
	return n, err
}

func (s *SQLStore) CreateScore(ctx context.Context, sc Score) (bool, error) {
	// The primary key on (exam_id, student_id) makes the one-attempt invariant
	// hold under concurrent submissions; losers see zero rows affected.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (exam_id, student_id, points, created_at)
		 VALUES ($1,$2,$3,$4) ON CONFLICT (exam_id, student_id) DO NOTHING`,
		sc.ExamID, sc.StudentID, sc.Points, time.Now().Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) GetScore(ctx context.Context, studentID, examID string) (Score, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT exam_id, student_id, points, created_at FROM scores
		  WHERE exam_id=$1 AND student_id=$2`, examID, studentID)
	var sc Score
	if err := row.Scan(&sc.ExamID, &sc.StudentID, &sc.Points, &sc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Score{}, ErrScoreNotFound
		}
		return Score{}, err
	}
	return sc, nil
}
