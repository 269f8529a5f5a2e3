// Package storage persists users, courses and enrollments.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/coursebot/internal/models"
)

const (
	userColumns   = `id, is_teacher, external_id, first_name, last_name, university_id, created_at`
	courseColumns = `id, name, university, semester, teacher_id, created_at`
)

// SQLStore implements the entity store on top of sqlx. Queries are written
// with ? placeholders and rebound for the connected driver.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore constructs the store.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLStore) q(query string) string { return s.db.Rebind(query) }

// FindUserByExternalID returns the user registered under the Telegram id.
func (s *SQLStore) FindUserByExternalID(ctx context.Context, externalID int64) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT `+userColumns+` FROM users WHERE external_id = ?`), externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// CreateUser registers a new user with the given role.
func (s *SQLStore) CreateUser(ctx context.Context, externalID int64, isTeacher bool) (*models.User, error) {
	u := models.User{ExternalID: externalID, IsTeacher: isTeacher, CreatedAt: s.now()}
	err := s.db.GetContext(ctx, &u.ID,
		s.q(`INSERT INTO users (is_teacher, external_id, created_at) VALUES (?, ?, ?) RETURNING id`),
		u.IsTeacher, u.ExternalID, u.CreatedAt,
	)
	if err != nil {
		if classify(err) == constraintUnique {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// UpdateProfile stores all three profile fields in one statement.
func (s *SQLStore) UpdateProfile(ctx context.Context, userID int64, p models.Profile) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE users SET first_name = ?, last_name = ?, university_id = ? WHERE id = ?`),
		p.FirstName, p.LastName, p.UniversityID, userID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCourses returns every course in creation order.
func (s *SQLStore) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := s.db.SelectContext(ctx, &courses, `SELECT `+courseColumns+` FROM courses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindCourseByName returns the earliest course with exactly this name.
func (s *SQLStore) FindCourseByName(ctx context.Context, name string) (*models.Course, error) {
	var c models.Course
	err := s.db.GetContext(ctx, &c,
		s.q(`SELECT `+courseColumns+` FROM courses WHERE name = ? ORDER BY id LIMIT 1`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &c, nil
}

// CreateCourse inserts a course after checking that the owner is a teacher.
func (s *SQLStore) CreateCourse(ctx context.Context, in models.NewCourse) (*models.Course, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create course: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var isTeacher bool
	err = tx.GetContext(ctx, &isTeacher, tx.Rebind(`SELECT is_teacher FROM users WHERE id = ?`), in.TeacherID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !isTeacher) {
		return nil, ErrUnknownTeacher
	}
	if err != nil {
		return nil, fmt.Errorf("create course: check teacher: %w", err)
	}

	c := models.Course{
		Name:       in.Name,
		University: in.University,
		Semester:   in.Semester,
		TeacherID:  in.TeacherID,
		CreatedAt:  s.now(),
	}
	err = tx.GetContext(ctx, &c.ID,
		tx.Rebind(`INSERT INTO courses (name, university, semester, teacher_id, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		c.Name, c.University, c.Semester, c.TeacherID, c.CreatedAt,
	)
	if err != nil {
		if classify(err) == constraintForeignKey {
			return nil, ErrUnknownTeacher
		}
		return nil, fmt.Errorf("create course: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create course: commit: %w", err)
	}
	return &c, nil
}

// FindEnrollment returns the enrollment for the pair if present.
func (s *SQLStore) FindEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.db.GetContext(ctx, &e,
		s.q(`SELECT id, user_id, course_id, created_at FROM course_users WHERE user_id = ? AND course_id = ?`),
		userID, courseID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &e, nil
}

// CreateEnrollment enrolls the user; the unique constraint rejects duplicates.
func (s *SQLStore) CreateEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	e := models.Enrollment{UserID: userID, CourseID: courseID, CreatedAt: s.now()}
	err := s.db.GetContext(ctx, &e.ID,
		s.q(`INSERT INTO course_users (user_id, course_id, created_at) VALUES (?, ?, ?) RETURNING id`),
		e.UserID, e.CourseID, e.CreatedAt,
	)
	if err != nil {
		switch classify(err) {
		case constraintUnique:
			return nil, ErrDuplicateEnrollment
		case constraintForeignKey:
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	return &e, nil
}

// ListUserCourses returns the courses the user is enrolled in, oldest enrollment first.
func (s *SQLStore) ListUserCourses(ctx context.Context, userID int64) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.SelectContext(ctx, &courses, s.q(`SELECT c.id, c.name, c.university, c.semester, c.teacher_id, c.created_at
        FROM courses c
        JOIN course_users cu ON cu.course_id = c.id
        WHERE cu.user_id = ?
        ORDER BY cu.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list user courses: %w", err)
	}
	return courses, nil
}

// ListTeacherCourses returns the courses owned by the teacher.
func (s *SQLStore) ListTeacherCourses(ctx context.Context, teacherID int64) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.SelectContext(ctx, &courses,
		s.q(`SELECT `+courseColumns+` FROM courses WHERE teacher_id = ? ORDER BY id`), teacherID)
	if err != nil {
		return nil, fmt.Errorf("list teacher courses: %w", err)
	}
	return courses, nil
}

// Stats counts users, teachers, courses and enrollments.
func (s *SQLStore) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.GetContext(ctx, &st, s.q(`SELECT
        (SELECT COUNT(*) FROM users) AS users,
        (SELECT COUNT(*) FROM users WHERE is_teacher = ?) AS teachers,
        (SELECT COUNT(*) FROM courses) AS courses,
        (SELECT COUNT(*) FROM course_users) AS enrollments`), true)
	if err != nil {
		return models.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
