package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/coursebot/internal/models"
	"github.com/m3rciful/coursebot/internal/storage"
	"github.com/m3rciful/coursebot/internal/storage/storagetest"
)

func newStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	return storage.NewSQLStore(storagetest.Open(t))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.FindUserByExternalID(ctx, 100)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	u, err := s.CreateUser(ctx, 100, true)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.True(t, u.IsTeacher)

	_, err = s.CreateUser(ctx, 100, false)
	assert.ErrorIs(t, err, storage.ErrDuplicateUser)

	got, err := s.FindUserByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsTeacher)
	assert.False(t, got.ProfileComplete())

	require.NoError(t, s.UpdateProfile(ctx, u.ID, models.Profile{FirstName: "Alice", LastName: "Smith", UniversityID: 42}))
	got, err = s.FindUserByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName.String)
	assert.Equal(t, "Smith", got.LastName.String)
	assert.Equal(t, int64(42), got.UniversityID.Int64)
	assert.True(t, got.ProfileComplete())

	assert.ErrorIs(t, s.UpdateProfile(ctx, u.ID+999, models.Profile{FirstName: "x", LastName: "y"}), storage.ErrNotFound)
}

func TestCourses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	teacher, err := s.CreateUser(ctx, 1, true)
	require.NoError(t, err)
	student, err := s.CreateUser(ctx, 2, false)
	require.NoError(t, err)

	courses, err := s.ListCourses(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)

	first, err := s.CreateCourse(ctx, models.NewCourse{Name: "Algorithms", University: "MIT", Semester: "Fall-2024", TeacherID: teacher.ID})
	require.NoError(t, err)
	_, err = s.CreateCourse(ctx, models.NewCourse{Name: "Databases", University: "MIT", Semester: "Spring 2025", TeacherID: teacher.ID})
	require.NoError(t, err)
	_, err = s.CreateCourse(ctx, models.NewCourse{Name: "Algorithms", University: "CMU", Semester: "x", TeacherID: teacher.ID})
	require.NoError(t, err)

	_, err = s.CreateCourse(ctx, models.NewCourse{Name: "Nope", University: "MIT", Semester: "x", TeacherID: student.ID})
	assert.ErrorIs(t, err, storage.ErrUnknownTeacher)
	_, err = s.CreateCourse(ctx, models.NewCourse{Name: "Nope", University: "MIT", Semester: "x", TeacherID: 9999})
	assert.ErrorIs(t, err, storage.ErrUnknownTeacher)

	courses, err = s.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, []string{"Algorithms", "Databases", "Algorithms"}, []string{courses[0].Name, courses[1].Name, courses[2].Name})
	assert.Equal(t, "Fall-2024", courses[0].Semester)
	assert.Equal(t, teacher.ID, courses[0].TeacherID)

	found, err := s.FindCourseByName(ctx, "Algorithms")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "MIT", found.University)

	_, err = s.FindCourseByName(ctx, "algorithms")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	owned, err := s.ListTeacherCourses(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 3)
}

func TestEnrollments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	teacher, err := s.CreateUser(ctx, 1, true)
	require.NoError(t, err)
	student, err := s.CreateUser(ctx, 2, false)
	require.NoError(t, err)
	course, err := s.CreateCourse(ctx, models.NewCourse{Name: "Algorithms", University: "MIT", Semester: "Fall-2024", TeacherID: teacher.ID})
	require.NoError(t, err)

	_, err = s.FindEnrollment(ctx, student.ID, course.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	e, err := s.CreateEnrollment(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, e.CourseID)

	_, err = s.CreateEnrollment(ctx, student.ID, course.ID)
	assert.ErrorIs(t, err, storage.ErrDuplicateEnrollment)

	_, err = s.CreateEnrollment(ctx, student.ID, course.ID+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.FindEnrollment(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	mine, err := s.ListUserCourses(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Algorithms", mine[0].Name)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Users: 2, Teachers: 1, Courses: 1, Enrollments: 1}, st)
}
