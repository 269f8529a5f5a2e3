// Package dialogue implements the registration and enrollment state machine.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/metrics"
	"github.com/m3rciful/coursebot/internal/models"
	"github.com/m3rciful/coursebot/internal/session"
	"github.com/m3rciful/coursebot/internal/storage"
)

const component = "dialogue"

// Transition outcomes recorded in metrics.
const (
	outcomeStarted   = "started"
	outcomeAdvanced  = "advanced"
	outcomeInvalid   = "invalid"
	outcomeCompleted = "completed"
	outcomeCancelled = "cancelled"
	outcomeDuplicate = "duplicate"
	outcomeAnomaly   = "anomaly"
)

// Store is the entity store used by the engine.
type Store interface {
	FindUserByExternalID(ctx context.Context, externalID int64) (*models.User, error)
	CreateUser(ctx context.Context, externalID int64, isTeacher bool) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, p models.Profile) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	FindCourseByName(ctx context.Context, name string) (*models.Course, error)
	CreateCourse(ctx context.Context, in models.NewCourse) (*models.Course, error)
	FindEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error)
	CreateEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error)
	ListUserCourses(ctx context.Context, userID int64) ([]models.Course, error)
	ListTeacherCourses(ctx context.Context, teacherID int64) ([]models.Course, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Engine advances dialogues one message at a time. Callers must serialise
// calls for the same user.
type Engine struct {
	store    Store
	sessions session.Store
	validate *validator.Validate
	now      func() time.Time
}

// NewEngine constructs the engine.
func NewEngine(store Store, sessions session.Store) *Engine {
	return &Engine{
		store:    store,
		sessions: sessions,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// lookupUser returns nil without error for unregistered users.
func (e *Engine) lookupUser(ctx context.Context, externalID int64) (*models.User, error) {
	u, err := e.store.FindUserByExternalID(ctx, externalID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (e *Engine) begin(ctx context.Context, externalID int64, d session.Dialogue) (*session.Session, error) {
	s := session.New(externalID, d, e.now())
	if err := e.sessions.Set(ctx, externalID, s); err != nil {
		return nil, err
	}
	e.logTransition(ctx, s, slog.LevelInfo, "dialogue.start", outcomeStarted)
	return s, nil
}

func (e *Engine) advance(ctx context.Context, s *session.Session, d session.Dialogue) error {
	s.Advance(d, e.now())
	if err := e.sessions.Set(ctx, s.UserID, s); err != nil {
		return err
	}
	e.logTransition(ctx, s, slog.LevelDebug, "dialogue.step", outcomeAdvanced)
	return nil
}

func (e *Engine) finish(ctx context.Context, s *session.Session, event, outcome string) error {
	if err := e.sessions.Clear(ctx, s.UserID); err != nil {
		return err
	}
	level := slog.LevelInfo
	if outcome == outcomeAnomaly {
		level = slog.LevelError
	}
	e.logTransition(ctx, s, level, event, outcome)
	return nil
}

func (e *Engine) invalid(ctx context.Context, s *session.Session) {
	e.logTransition(ctx, s, slog.LevelDebug, "dialogue.invalid", outcomeInvalid)
}

func (e *Engine) logTransition(ctx context.Context, s *session.Session, level slog.Level, event, outcome string) {
	kind := string(s.Dialogue.Kind())
	metrics.ObserveTransition(kind, outcome)
	status := "ok"
	switch outcome {
	case outcomeAnomaly:
		status = "fail"
	case outcomeCancelled:
		status = "cancelled"
	}
	logger.Event(ctx, component, level, event,
		slog.String("status", status),
		slog.String("dialogue", kind),
		slog.String("step", s.Dialogue.StepName()),
		slog.String("session_id", s.ID.String()),
		slog.Int64("user_id", s.UserID),
	)
}

// anomaly clears the session after a commit referenced a record that is gone.
func (e *Engine) anomaly(ctx context.Context, s *session.Session, cause error) (Reply, error) {
	logger.Error(ctx, component, "dialogue.anomaly.cause",
		slog.String("session_id", s.ID.String()),
		slog.String("err", cause.Error()),
	)
	if err := e.finish(ctx, s, "dialogue.anomaly", outcomeAnomaly); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgAnomaly, RemoveOptions: true}, nil
}

// Continue feeds text to the step the session is waiting on.
func (e *Engine) Continue(ctx context.Context, s *session.Session, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	switch d := s.Dialogue.(type) {
	case session.ProfileDialogue:
		return e.continueProfile(ctx, s, d, text)
	case session.CourseDialogue:
		return e.continueCourse(ctx, s, d, text)
	case session.SelectionDialogue:
		return e.continueSelection(ctx, s, d, text)
	}
	return e.anomaly(ctx, s, fmt.Errorf("unsupported dialogue %T", s.Dialogue))
}

// Cancel clears the session without committing anything.
func (e *Engine) Cancel(ctx context.Context, s *session.Session) (Reply, error) {
	if err := e.finish(ctx, s, "dialogue.cancel", outcomeCancelled); err != nil {
		return Reply{}, err
	}
	u, err := e.lookupUser(ctx, s.UserID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgCancelled, Options: MenuFor(u)}, nil
}

// checkText accepts any non-empty trimmed text collected at a step.
func (e *Engine) checkText(text string) (string, bool) {
	if err := e.validate.Var(text, "required"); err != nil {
		return msgEmptyValue, false
	}
	return "", true
}

func courseList(courses []models.Course) string {
	var b strings.Builder
	for i, c := range courses {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %s (%s, %s)", c.Name, c.University, c.Semester)
	}
	return b.String()
}
