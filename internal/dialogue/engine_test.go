package dialogue_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/coursebot/internal/dialogue"
	"github.com/m3rciful/coursebot/internal/models"
	"github.com/m3rciful/coursebot/internal/session"
	"github.com/m3rciful/coursebot/internal/storage"
	"github.com/m3rciful/coursebot/internal/storage/storagetest"
)

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *storage.SQLStore
	sessions *session.MemoryStore
	engine   *dialogue.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := storage.NewSQLStore(storagetest.Open(t))
	sessions := session.NewMemoryStore(0)
	return &harness{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		sessions: sessions,
		engine:   dialogue.NewEngine(store, sessions),
	}
}

func (h *harness) session(userID int64) *session.Session {
	h.t.Helper()
	s, err := h.sessions.Get(h.ctx, userID)
	require.NoError(h.t, err)
	return s
}

// send feeds text to the active session, which must exist.
func (h *harness) send(userID int64, text string) dialogue.Reply {
	h.t.Helper()
	s := h.session(userID)
	require.NotNil(h.t, s, "expected an active session for %d", userID)
	r, err := h.engine.Continue(h.ctx, s, text)
	require.NoError(h.t, err)
	return r
}

func (h *harness) user(externalID int64) *models.User {
	h.t.Helper()
	u, err := h.store.FindUserByExternalID(h.ctx, externalID)
	require.NoError(h.t, err)
	return u
}

func (h *harness) register(externalID int64, teacher bool, first, last, uid string) {
	h.t.Helper()
	_, err := h.engine.SelectRole(h.ctx, externalID, teacher)
	require.NoError(h.t, err)
	h.send(externalID, first)
	h.send(externalID, last)
	h.send(externalID, uid)
	require.Nil(h.t, h.session(externalID))
}

func TestTeacherRegistrationScenario(t *testing.T) {
	h := newHarness(t)

	r, err := h.engine.SelectRole(h.ctx, 1001, true)
	require.NoError(t, err)
	assert.Equal(t, "Please enter your first name.", r.Text)
	assert.Equal(t, dialogue.CancelMenu(), r.Options)

	h.send(1001, "Alice")
	h.send(1001, "Smith")
	r = h.send(1001, "42")

	u := h.user(1001)
	assert.True(t, u.IsTeacher)
	assert.Equal(t, "Alice", u.FirstName.String)
	assert.Equal(t, "Smith", u.LastName.String)
	assert.Equal(t, int64(42), u.UniversityID.Int64)
	assert.Nil(t, h.session(1001))
	assert.Equal(t, dialogue.MenuFor(u), r.Options)
	assert.Contains(t, r.Options[0], dialogue.TriggerAddCourse)
}

func TestSecondRoleSelectionCreatesNothing(t *testing.T) {
	h := newHarness(t)
	h.register(1, false, "Bob", "Jones", "7")

	r, err := h.engine.SelectRole(h.ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "You are already registered.", r.Text)
	assert.Nil(t, h.session(1))
	assert.False(t, h.user(1).IsTeacher)

	st, err := h.store.Stats(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Users)
}

func TestNonNumericUniversityIDKeepsStep(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.SelectRole(h.ctx, 5, false)
	require.NoError(t, err)
	h.send(5, "Alice")
	h.send(5, "Smith")

	for _, bad := range []string{"forty-two", "4 2", "-42", "+42", "42a"} {
		r := h.send(5, bad)
		assert.Equal(t, "University ID must contain digits only. Please try again.", r.Text, bad)
		s := h.session(5)
		require.NotNil(t, s)
		d := s.Dialogue.(session.ProfileDialogue)
		assert.Equal(t, session.ProfileUniversityID, d.Step)
		assert.Equal(t, "Alice", d.FirstName)
		assert.Equal(t, "Smith", d.LastName)
	}
	u := h.user(5)
	assert.False(t, u.FirstName.Valid)
	assert.False(t, u.UniversityID.Valid)

	h.send(5, "  0042 ")
	assert.Equal(t, int64(42), h.user(5).UniversityID.Int64)
}

func TestOverflowingUniversityIDKeepsStep(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.SelectRole(h.ctx, 6, true)
	require.NoError(t, err)
	h.send(6, "Alice")
	h.send(6, "Smith")

	r := h.send(6, "99999999999999999999")
	assert.Equal(t, "That University ID is too large. Please check it and try again.", r.Text)
	d := h.session(6).Dialogue.(session.ProfileDialogue)
	assert.Equal(t, session.ProfileUniversityID, d.Step)
	assert.False(t, h.user(6).UniversityID.Valid)

	h.send(6, "9223372036854775807")
	assert.Equal(t, int64(9223372036854775807), h.user(6).UniversityID.Int64)
}

func TestEmptyAnswerIsRepromptedNotStored(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.SelectRole(h.ctx, 5, false)
	require.NoError(t, err)

	r := h.send(5, "   ")
	assert.Equal(t, "The value cannot be empty. Please try again.", r.Text)
	assert.Equal(t, session.ProfileFirstName, h.session(5).Dialogue.(session.ProfileDialogue).Step)
}

func TestCourseCreationScenario(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")

	r, err := h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Please enter the course name.", r.Text)
	h.send(1, "Algorithms")
	h.send(1, "MIT")
	r = h.send(1, "Fall-2024")
	assert.Equal(t, `Course "Algorithms" has been created.`, r.Text)
	assert.Nil(t, h.session(1))

	courses, err := h.store.ListCourses(h.ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Algorithms", courses[0].Name)
	assert.Equal(t, "MIT", courses[0].University)
	assert.Equal(t, "Fall-2024", courses[0].Semester)
	assert.Equal(t, h.user(1).ID, courses[0].TeacherID)
}

func TestSemesterIsFreeForm(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")
	_, err := h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	h.send(1, "Compilers")
	h.send(1, "ETH")
	h.send(1, "sometime next year?")

	c, err := h.store.FindCourseByName(h.ctx, "Compilers")
	require.NoError(t, err)
	assert.Equal(t, "sometime next year?", c.Semester)
}

func TestLongAnswersAreStoredUnchanged(t *testing.T) {
	h := newHarness(t)
	first := strings.Repeat("A", 129)
	h.register(1, true, first, "Smith", "42")
	assert.Equal(t, first, h.user(1).FirstName.String)

	_, err := h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	name := "Compilers " + strings.Repeat("c", 300)
	semester := "Fall-2024 " + strings.Repeat("x", 490)
	h.send(1, name)
	h.send(1, "ETH")
	r := h.send(1, semester)
	assert.Nil(t, h.session(1))
	assert.Contains(t, r.Text, "has been created")

	c, err := h.store.FindCourseByName(h.ctx, name)
	require.NoError(t, err)
	assert.Equal(t, semester, c.Semester)
	assert.Len(t, c.Semester, 500)
}

func TestStudentCannotStartCourseCreation(t *testing.T) {
	h := newHarness(t)
	h.register(2, false, "Bob", "Jones", "7")

	r, err := h.engine.StartCourse(h.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Only teachers can add courses.", r.Text)
	assert.Nil(t, h.session(2))
}

func TestEnrollmentScenario(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")
	h.register(2, false, "Bob", "Jones", "7")
	_, err := h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	h.send(1, "Algorithms")
	h.send(1, "MIT")
	h.send(1, "Fall-2024")

	r, err := h.engine.StartSelection(h.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Choose a course to enroll in:", r.Text)
	assert.Equal(t, [][]string{{"Algorithms"}, {dialogue.LabelCancel}}, r.Options)

	r = h.send(2, "Algorithms")
	assert.Equal(t, `You have been enrolled in "Algorithms".`, r.Text)
	assert.Nil(t, h.session(2))

	_, err = h.engine.StartSelection(h.ctx, 2)
	require.NoError(t, err)
	r = h.send(2, "Algorithms")
	assert.Equal(t, `You are already enrolled in "Algorithms".`, r.Text)
	assert.Nil(t, h.session(2))

	st, err := h.store.Stats(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Enrollments)
}

func TestSelectionMenuPairsCourses(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")
	h.register(2, false, "Bob", "Jones", "7")
	for _, name := range []string{"Algorithms", "Compilers", "Databases"} {
		_, err := h.engine.StartCourse(h.ctx, 1)
		require.NoError(t, err)
		h.send(1, name)
		h.send(1, "MIT")
		h.send(1, "Fall-2024")
	}

	r, err := h.engine.StartSelection(h.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Algorithms", "Compilers"},
		{"Databases"},
		{dialogue.LabelCancel},
	}, r.Options)
}

func TestSelectionRejectsUnknownCourse(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")
	h.register(2, false, "Bob", "Jones", "7")
	_, err := h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	h.send(1, "Algorithms")
	h.send(1, "MIT")
	h.send(1, "Fall-2024")

	_, err = h.engine.StartSelection(h.ctx, 2)
	require.NoError(t, err)
	r := h.send(2, "algorithms")
	assert.Equal(t, "There is no such course. Please choose one from the list.", r.Text)
	require.NotNil(t, h.session(2))
	assert.Equal(t, session.SelectStep, h.session(2).Dialogue.StepName())
}

func TestSelectionWithoutCourses(t *testing.T) {
	h := newHarness(t)
	h.register(2, false, "Bob", "Jones", "7")

	r, err := h.engine.StartSelection(h.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "No courses available yet.", r.Text)
	assert.Nil(t, h.session(2))
}

func TestTeacherSeesReadOnlyCourseList(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")
	_, err := h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	h.send(1, "Algorithms")
	h.send(1, "MIT")
	h.send(1, "Fall-2024")

	r, err := h.engine.StartSelection(h.ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Algorithms (MIT, Fall-2024)")
	assert.Nil(t, h.session(1))
}

func TestCancelLeavesStoreUnchanged(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")

	before, err := h.store.Stats(h.ctx)
	require.NoError(t, err)

	_, err = h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	h.send(1, "Algorithms")
	h.send(1, "MIT")

	r, err := h.engine.Cancel(h.ctx, h.session(1))
	require.NoError(t, err)
	assert.Equal(t, "Cancelled. Nothing was saved.", r.Text)
	assert.Nil(t, h.session(1))

	after, err := h.store.Stats(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	r, err = h.engine.Start(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Welcome back, Alice! What would you like to do?", r.Text)
	assert.Nil(t, h.session(1))
}

func TestCancelProfileThenResume(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.SelectRole(h.ctx, 3, false)
	require.NoError(t, err)
	h.send(3, "Carol")

	r, err := h.engine.Cancel(h.ctx, h.session(3))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{dialogue.TriggerCompleteProfile}, {dialogue.LabelHelp}}, r.Options)
	assert.False(t, h.user(3).FirstName.Valid)

	r, err = h.engine.Start(h.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Please enter your first name.", r.Text)
	d := h.session(3).Dialogue.(session.ProfileDialogue)
	assert.Equal(t, session.ProfileFirstName, d.Step)
	assert.Empty(t, d.FirstName)
}

func TestProfileCommitForVanishedUser(t *testing.T) {
	h := newHarness(t)
	s := session.New(404, session.ProfileDialogue{Step: session.ProfileUniversityID, FirstName: "A", LastName: "B"}, testTime)
	require.NoError(t, h.sessions.Set(h.ctx, 404, s))

	r, err := h.engine.Continue(h.ctx, s, "12")
	require.NoError(t, err)
	assert.Equal(t, "Something went wrong. Please start again with /start.", r.Text)
	assert.Nil(t, h.session(404))
}

func TestMyCourses(t *testing.T) {
	h := newHarness(t)
	h.register(1, true, "Alice", "Smith", "42")
	h.register(2, false, "Bob", "Jones", "7")

	r, err := h.engine.MyCourses(h.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "You have no courses yet.", r.Text)

	_, err = h.engine.StartCourse(h.ctx, 1)
	require.NoError(t, err)
	h.send(1, "Algorithms")
	h.send(1, "MIT")
	h.send(1, "Fall-2024")
	_, err = h.engine.StartSelection(h.ctx, 2)
	require.NoError(t, err)
	h.send(2, "Algorithms")

	r, err = h.engine.MyCourses(h.ctx, 2)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Your courses:")
	assert.Contains(t, r.Text, "Algorithms")

	r, err = h.engine.MyCourses(h.ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Courses you teach:")
}

func TestUnrecognizedForUnregisteredUser(t *testing.T) {
	h := newHarness(t)
	r, err := h.engine.Unrecognized(h.ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, dialogue.RoleMenu(), r.Options)

	r, err = h.engine.Stats(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Users: 0 (teachers: 0)\nCourses: 0\nEnrollments: 0", r.Text)
}
