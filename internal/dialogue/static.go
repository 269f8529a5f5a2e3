package dialogue

import (
	"context"
	"fmt"

	"github.com/m3rciful/coursebot/internal/models"
)

// Start greets the user according to their registration state. Incomplete
// profiles are resumed directly.
func (e *Engine) Start(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	switch {
	case u == nil:
		return Reply{Text: msgChooseRole, Options: RoleMenu()}, nil
	case !u.ProfileComplete():
		return e.StartProfile(ctx, externalID)
	case u.IsTeacher:
		return Reply{Text: fmt.Sprintf(msgGreetTeacher, u.FirstName.String), Options: MenuFor(u)}, nil
	default:
		return Reply{Text: fmt.Sprintf(msgGreetStudent, u.FirstName.String), Options: MenuFor(u)}, nil
	}
}

// Help returns the static help text with the user's menu.
func (e *Engine) Help(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgHelp, Options: MenuFor(u)}, nil
}

// MyCourses lists owned courses for teachers and enrollments for students.
func (e *Engine) MyCourses(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	if u == nil {
		return Reply{Text: msgChooseRole, Options: RoleMenu()}, nil
	}
	var (
		courses []models.Course
		format  = msgMyCoursesStudent
	)
	if u.IsTeacher {
		courses, err = e.store.ListTeacherCourses(ctx, u.ID)
		format = msgMyCoursesTeacher
	} else {
		courses, err = e.store.ListUserCourses(ctx, u.ID)
	}
	if err != nil {
		return Reply{}, err
	}
	if len(courses) == 0 {
		return Reply{Text: msgMyCoursesNone, Options: MenuFor(u)}, nil
	}
	return Reply{Text: fmt.Sprintf(format, courseList(courses)), Options: MenuFor(u)}, nil
}

// Stats returns entity counts for the admin.
func (e *Engine) Stats(ctx context.Context) (Reply, error) {
	st, err := e.store.Stats(ctx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf(msgStats, st.Users, st.Teachers, st.Courses, st.Enrollments)}, nil
}

// Forbidden answers commands the user may not run.
func (e *Engine) Forbidden() Reply {
	return Reply{Text: msgForbidden}
}

// NothingToCancel answers a cancel trigger outside any dialogue.
func (e *Engine) NothingToCancel(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgNothingCancel, Options: MenuFor(u)}, nil
}

// Unrecognized answers text that matched no trigger. Unregistered users are
// shown the role prompt again.
func (e *Engine) Unrecognized(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	switch {
	case u == nil:
		return Reply{Text: msgChooseRole, Options: RoleMenu()}, nil
	case !u.ProfileComplete():
		return Reply{Text: msgIncomplete, Options: MenuFor(u)}, nil
	}
	return Reply{Text: msgUnrecognized, Options: MenuFor(u)}, nil
}

// Failure answers a message that could not be processed because of an
// infrastructure error. Started dialogues are kept so the step can be retried.
func (e *Engine) Failure() Reply {
	return Reply{Text: msgTryAgain}
}
