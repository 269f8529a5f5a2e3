package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/coursebot/internal/models"
	"github.com/m3rciful/coursebot/internal/session"
	"github.com/m3rciful/coursebot/internal/storage"
)

// StartCourse opens course creation for a teacher. Other users get a refusal
// and no session.
func (e *Engine) StartCourse(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	if u == nil {
		return Reply{Text: msgChooseRole, Options: RoleMenu()}, nil
	}
	if !u.IsTeacher {
		return Reply{Text: msgOnlyTeachers, Options: MenuFor(u)}, nil
	}
	d := session.CourseDialogue{Step: session.CourseName, TeacherID: u.ID}
	if _, err := e.begin(ctx, externalID, d); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgAskCourseName, Options: CancelMenu()}, nil
}

func (e *Engine) continueCourse(ctx context.Context, s *session.Session, d session.CourseDialogue, text string) (Reply, error) {
	switch d.Step {
	case session.CourseName:
		if msg, ok := e.checkText(text); !ok {
			e.invalid(ctx, s)
			return Reply{Text: msg, Options: CancelMenu()}, nil
		}
		d.Name = text
		d.Step = session.CourseUniversity
		if err := e.advance(ctx, s, d); err != nil {
			return Reply{}, err
		}
		return Reply{Text: msgAskUniversity, Options: CancelMenu()}, nil

	case session.CourseUniversity:
		if msg, ok := e.checkText(text); !ok {
			e.invalid(ctx, s)
			return Reply{Text: msg, Options: CancelMenu()}, nil
		}
		d.University = text
		d.Step = session.CourseSemester
		if err := e.advance(ctx, s, d); err != nil {
			return Reply{}, err
		}
		return Reply{Text: msgAskSemester, Options: CancelMenu()}, nil

	case session.CourseSemester:
		// Semester is free-form and stored as typed.
		if msg, ok := e.checkText(text); !ok {
			e.invalid(ctx, s)
			return Reply{Text: msg, Options: CancelMenu()}, nil
		}
		return e.commitCourse(ctx, s, models.NewCourse{
			Name:       d.Name,
			University: d.University,
			Semester:   text,
			TeacherID:  d.TeacherID,
		})
	}
	return e.anomaly(ctx, s, fmt.Errorf("unknown course step %q", d.Step))
}

func (e *Engine) commitCourse(ctx context.Context, s *session.Session, in models.NewCourse) (Reply, error) {
	if err := e.validate.Struct(in); err != nil {
		return e.anomaly(ctx, s, fmt.Errorf("course payload: %w", err))
	}
	c, err := e.store.CreateCourse(ctx, in)
	if errors.Is(err, storage.ErrUnknownTeacher) {
		return e.anomaly(ctx, s, err)
	}
	if err != nil {
		return Reply{}, err
	}
	if err := e.finish(ctx, s, "dialogue.complete", outcomeCompleted); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf(msgCourseCreated, c.Name), Options: copyRows(teacherMenu)}, nil
}
