// Package models holds the persistent entities of the course bot.
package models

import (
	"database/sql"
	"time"
)

// User is a registered bot user keyed by their Telegram id.
type User struct {
	ID           int64          `db:"id"`
	IsTeacher    bool           `db:"is_teacher"`
	ExternalID   int64          `db:"external_id"`
	FirstName    sql.NullString `db:"first_name"`
	LastName     sql.NullString `db:"last_name"`
	UniversityID sql.NullInt64  `db:"university_id"`
	CreatedAt    time.Time      `db:"created_at"`
}

// ProfileComplete reports whether first name, last name and university id are all set.
func (u User) ProfileComplete() bool {
	return u.FirstName.Valid && u.FirstName.String != "" &&
		u.LastName.Valid && u.LastName.String != "" &&
		u.UniversityID.Valid
}

// Role returns "teacher" or "student".
func (u User) Role() string {
	if u.IsTeacher {
		return RoleTeacher
	}
	return RoleStudent
}

// Role names used in logs and replies.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Profile is the payload committed at the end of profile completion.
type Profile struct {
	FirstName    string `validate:"required"`
	LastName     string `validate:"required"`
	UniversityID int64  `validate:"gte=0"`
}

// Course is a course owned by a teacher.
type Course struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	University string    `db:"university"`
	Semester   string    `db:"semester"`
	TeacherID  int64     `db:"teacher_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// NewCourse is the payload committed at the end of course creation.
type NewCourse struct {
	Name       string `validate:"required"`
	University string `validate:"required"`
	Semester   string `validate:"required"`
	TeacherID  int64  `validate:"required,gt=0"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	CourseID  int64     `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Stats aggregates entity counts for the admin report.
type Stats struct {
	Users       int `db:"users"`
	Teachers    int `db:"teachers"`
	Courses     int `db:"courses"`
	Enrollments int `db:"enrollments"`
}
