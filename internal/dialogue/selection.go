package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/coursebot/internal/models"
	"github.com/m3rciful/coursebot/internal/session"
	"github.com/m3rciful/coursebot/internal/storage"
)

// StartSelection lists all courses. Students enter the selection step;
// teachers get a read-only list.
func (e *Engine) StartSelection(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	if u == nil {
		return Reply{Text: msgChooseRole, Options: RoleMenu()}, nil
	}
	courses, err := e.store.ListCourses(ctx)
	if err != nil {
		return Reply{}, err
	}
	if len(courses) == 0 {
		return Reply{Text: msgNoCourses, Options: MenuFor(u)}, nil
	}
	if u.IsTeacher {
		return Reply{Text: fmt.Sprintf(msgAllCourses, courseList(courses)), Options: MenuFor(u)}, nil
	}

	options := courseNames(courses)
	d := session.SelectionDialogue{UserID: u.ID, Options: options}
	if _, err := e.begin(ctx, externalID, d); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgChooseCourse, Options: selectionMenu(options)}, nil
}

func (e *Engine) continueSelection(ctx context.Context, s *session.Session, d session.SelectionDialogue, text string) (Reply, error) {
	course, err := e.store.FindCourseByName(ctx, text)
	if errors.Is(err, storage.ErrNotFound) {
		e.invalid(ctx, s)
		return Reply{Text: msgUnknownCourse, Options: selectionMenu(d.Options)}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	_, err = e.store.FindEnrollment(ctx, d.UserID, course.ID)
	switch {
	case err == nil:
		return e.alreadyEnrolled(ctx, s, course)
	case !errors.Is(err, storage.ErrNotFound):
		return Reply{}, err
	}

	_, err = e.store.CreateEnrollment(ctx, d.UserID, course.ID)
	switch {
	case errors.Is(err, storage.ErrDuplicateEnrollment):
		return e.alreadyEnrolled(ctx, s, course)
	case errors.Is(err, storage.ErrNotFound):
		return e.anomaly(ctx, s, err)
	case err != nil:
		return Reply{}, err
	}
	if err := e.finish(ctx, s, "dialogue.complete", outcomeCompleted); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf(msgEnrolled, course.Name), Options: copyRows(studentMenu)}, nil
}

func (e *Engine) alreadyEnrolled(ctx context.Context, s *session.Session, course *models.Course) (Reply, error) {
	if err := e.finish(ctx, s, "dialogue.complete", outcomeDuplicate); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf(msgAlreadyEnrolled, course.Name), Options: copyRows(studentMenu)}, nil
}

// courseNames returns distinct names in listing order.
func courseNames(courses []models.Course) []string {
	seen := make(map[string]struct{}, len(courses))
	names := make([]string, 0, len(courses))
	for _, c := range courses {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		names = append(names, c.Name)
	}
	return names
}
