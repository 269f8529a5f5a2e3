package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownKind is returned when decoding a session of an unknown dialogue kind.
var ErrUnknownKind = errors.New("session: unknown dialogue kind")

// Session is the active dialogue of one user, keyed by Telegram user id.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	Dialogue  Dialogue
	StartedAt time.Time
	UpdatedAt time.Time
}

// New starts a session for the user.
func New(userID int64, d Dialogue, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Dialogue:  d,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance replaces the dialogue state and bumps UpdatedAt.
func (s *Session) Advance(d Dialogue, now time.Time) {
	s.Dialogue = d
	s.UpdatedAt = now
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Dialogue = cloneDialogue(s.Dialogue)
	return &cp
}

// Store holds at most one session per user.
type Store interface {
	// Get returns nil without error when the user has no live session.
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, userID int64, s *Session) error
	Clear(ctx context.Context, userID int64) error
}

type envelope struct {
	ID        uuid.UUID       `json:"id"`
	UserID    int64           `json:"user_id"`
	Kind      Kind            `json:"kind"`
	Dialogue  json.RawMessage `json:"dialogue"`
	StartedAt time.Time       `json:"started_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON encodes the dialogue variant together with its kind.
func (s Session) MarshalJSON() ([]byte, error) {
	if s.Dialogue == nil {
		return nil, fmt.Errorf("session: marshal %s: nil dialogue", s.ID)
	}
	raw, err := json.Marshal(s.Dialogue)
	if err != nil {
		return nil, fmt.Errorf("session: marshal dialogue: %w", err)
	}
	return json.Marshal(envelope{
		ID:        s.ID,
		UserID:    s.UserID,
		Kind:      s.Dialogue.Kind(),
		Dialogue:  raw,
		StartedAt: s.StartedAt,
		UpdatedAt: s.UpdatedAt,
	})
}

// UnmarshalJSON restores the dialogue variant named by kind.
func (s *Session) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var (
		d   Dialogue
		err error
	)
	switch env.Kind {
	case KindProfile:
		var v ProfileDialogue
		err = json.Unmarshal(env.Dialogue, &v)
		d = v
	case KindCourse:
		var v CourseDialogue
		err = json.Unmarshal(env.Dialogue, &v)
		d = v
	case KindSelection:
		var v SelectionDialogue
		err = json.Unmarshal(env.Dialogue, &v)
		d = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if err != nil {
		return fmt.Errorf("session: decode %s: %w", env.Kind, err)
	}
	*s = Session{
		ID:        env.ID,
		UserID:    env.UserID,
		Dialogue:  d,
		StartedAt: env.StartedAt,
		UpdatedAt: env.UpdatedAt,
	}
	return nil
}
