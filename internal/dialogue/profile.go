package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/internal/models"
	"github.com/m3rciful/coursebot/internal/session"
	"github.com/m3rciful/coursebot/internal/storage"
)

// SelectRole registers the user and goes straight into profile completion.
// A second attempt for the same id creates nothing.
func (e *Engine) SelectRole(ctx context.Context, externalID int64, isTeacher bool) (Reply, error) {
	u, err := e.store.CreateUser(ctx, externalID, isTeacher)
	if errors.Is(err, storage.ErrDuplicateUser) {
		existing, lookupErr := e.lookupUser(ctx, externalID)
		if lookupErr != nil {
			return Reply{}, lookupErr
		}
		logger.Info(ctx, component, "role.duplicate",
			slog.String("status", "skip"),
			slog.Int64("user_id", externalID),
		)
		return Reply{Text: msgAlreadyRegistered, Options: MenuFor(existing)}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "role.selected",
		slog.String("status", "ok"),
		slog.Int64("user_id", externalID),
		slog.String("mode", u.Role()),
	)
	if _, err := e.begin(ctx, externalID, session.ProfileDialogue{Step: session.ProfileFirstName}); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgAskFirstName, Options: CancelMenu()}, nil
}

// StartProfile resumes profile completion for a registered user.
func (e *Engine) StartProfile(ctx context.Context, externalID int64) (Reply, error) {
	u, err := e.lookupUser(ctx, externalID)
	if err != nil {
		return Reply{}, err
	}
	if u == nil {
		return Reply{Text: msgChooseRole, Options: RoleMenu()}, nil
	}
	if u.ProfileComplete() {
		return Reply{Text: msgProfileDone, Options: MenuFor(u)}, nil
	}
	if _, err := e.begin(ctx, externalID, session.ProfileDialogue{Step: session.ProfileFirstName}); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgAskFirstName, Options: CancelMenu()}, nil
}

func (e *Engine) continueProfile(ctx context.Context, s *session.Session, d session.ProfileDialogue, text string) (Reply, error) {
	switch d.Step {
	case session.ProfileFirstName:
		if msg, ok := e.checkText(text); !ok {
			e.invalid(ctx, s)
			return Reply{Text: msg, Options: CancelMenu()}, nil
		}
		d.FirstName = text
		d.Step = session.ProfileLastName
		if err := e.advance(ctx, s, d); err != nil {
			return Reply{}, err
		}
		return Reply{Text: msgAskLastName, Options: CancelMenu()}, nil

	case session.ProfileLastName:
		if msg, ok := e.checkText(text); !ok {
			e.invalid(ctx, s)
			return Reply{Text: msg, Options: CancelMenu()}, nil
		}
		d.LastName = text
		d.Step = session.ProfileUniversityID
		if err := e.advance(ctx, s, d); err != nil {
			return Reply{}, err
		}
		return Reply{Text: msgAskUniversityID, Options: CancelMenu()}, nil

	case session.ProfileUniversityID:
		uid, msg, ok := e.parseUniversityID(text)
		if !ok {
			e.invalid(ctx, s)
			return Reply{Text: msg, Options: CancelMenu()}, nil
		}
		return e.commitProfile(ctx, s, d, uid)
	}
	return e.anomaly(ctx, s, fmt.Errorf("unknown profile step %q", d.Step))
}

func (e *Engine) commitProfile(ctx context.Context, s *session.Session, d session.ProfileDialogue, uid int64) (Reply, error) {
	profile := models.Profile{FirstName: d.FirstName, LastName: d.LastName, UniversityID: uid}
	if err := e.validate.Struct(profile); err != nil {
		return e.anomaly(ctx, s, fmt.Errorf("profile payload: %w", err))
	}
	u, err := e.lookupUser(ctx, s.UserID)
	if err != nil {
		return Reply{}, err
	}
	if u == nil {
		return e.anomaly(ctx, s, storage.ErrNotFound)
	}
	err = e.store.UpdateProfile(ctx, u.ID, profile)
	if errors.Is(err, storage.ErrNotFound) {
		return e.anomaly(ctx, s, err)
	}
	if err != nil {
		return Reply{}, err
	}
	if err := e.finish(ctx, s, "dialogue.complete", outcomeCompleted); err != nil {
		return Reply{}, err
	}
	u.FirstName.String, u.FirstName.Valid = profile.FirstName, true
	u.LastName.String, u.LastName.Valid = profile.LastName, true
	u.UniversityID.Int64, u.UniversityID.Valid = uid, true
	return Reply{Text: fmt.Sprintf(msgProfileSaved, profile.FirstName), Options: MenuFor(u)}, nil
}

// parseUniversityID accepts ASCII digits only ("number" rejects signs, spaces
// and decimals). On failure it returns the corrective reply text.
func (e *Engine) parseUniversityID(text string) (int64, string, bool) {
	if err := e.validate.Var(text, "required,number"); err != nil {
		return 0, msgBadUniversityID, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, msgUniversityIDRange, false
	}
	return v, "", true
}
