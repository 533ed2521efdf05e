package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quickshop-support/internal/models"
)

var (
	ErrBusy         = errors.New("a message is already being sent")
	ErrEmptyMessage = errors.New("message is empty")
)

// Entry is one line of the visible transcript. Pending entries are
// optimistic and carry a temp- id until the server confirms them.
type Entry struct {
	ID        string
	Sender    models.Sender
	Text      string
	Timestamp time.Time
	Pending   bool
}

// View is a copy of the session state for rendering.
type View struct {
	Entries   []Entry
	SessionID string
	Busy      bool
	Err       string
}

// PendingTurn is a staged send that has not reached the server yet.
type PendingTurn struct {
	TempID    string
	Text      string
	sessionID string
	chat      int
}

// Session owns the transcript shown to one customer. All methods are safe for
// concurrent use; at most one turn is in flight at a time.
type Session struct {
	mu        sync.Mutex
	api       API
	state     StateStore
	entries   []Entry
	sessionID string
	busy      bool
	err       string
	seq       int
	now       func() time.Time

	// chat counts NewChat calls so a turn started before one is dropped.
	chat int
}

func NewSession(api API, state StateStore) *Session {
	return &Session{api: api, state: state, now: time.Now}
}

// Resume restores the stored conversation. When the id cannot be loaded the
// stored id is dropped and the session starts empty; resumed reports which
// happened. The error is non-nil only when local state is unusable.
func (s *Session) Resume(ctx context.Context) (resumed bool, err error) {
	id, err := s.state.LoadSessionID()
	if err != nil {
		return false, fmt.Errorf("load session id: %w", err)
	}
	if id == "" {
		return false, nil
	}

	hist, histErr := s.api.GetHistory(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if histErr != nil {
		s.entries = nil
		s.sessionID = ""
		if err := s.state.ClearSessionID(); err != nil {
			return false, fmt.Errorf("clear session id: %w", err)
		}
		return false, nil
	}

	s.entries = make([]Entry, 0, len(hist.Messages))
	for _, m := range hist.Messages {
		s.entries = append(s.entries, Entry{
			ID:        m.ID,
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: parseTimestamp(m.Timestamp),
		})
	}
	s.sessionID = id
	return true, nil
}

// Stage appends an optimistic user entry and marks the session busy.
func (s *Session) Stage(text string) (*PendingTurn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return nil, ErrBusy
	}

	s.seq++
	p := &PendingTurn{
		TempID:    fmt.Sprintf("temp-%d", s.seq),
		Text:      text,
		sessionID: s.sessionID,
		chat:      s.chat,
	}
	s.entries = append(s.entries, Entry{
		ID:        p.TempID,
		Sender:    models.SenderUser,
		Text:      text,
		Timestamp: s.now(),
		Pending:   true,
	})
	s.busy = true
	s.err = ""
	return p, nil
}

// Commit sends a staged turn. On success the optimistic entry is replaced by
// the stored user message followed by the reply. On failure it is removed
// and a user-facing error is recorded. A turn staged before NewChat only
// clears the busy flag; its result belongs to the abandoned conversation.
func (s *Session) Commit(ctx context.Context, p *PendingTurn) error {
	resp, err := s.api.SendMessage(ctx, p.Text, p.sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.busy = false }()

	if p.chat != s.chat {
		return err
	}

	s.removeEntry(p.TempID)

	if err != nil {
		s.err = UserMessage(err, msgSendFailed)
		return err
	}

	userEntry := Entry{ID: p.TempID, Sender: models.SenderUser, Text: p.Text, Timestamp: s.now()}
	if resp.UserMessageID != "" {
		userEntry.ID = resp.UserMessageID
		userEntry.Timestamp = parseTimestamp(resp.UserTimestamp)
	}
	assistantEntry := Entry{
		ID:        resp.MessageID,
		Sender:    models.SenderAssistant,
		Text:      resp.Reply,
		Timestamp: parseTimestamp(resp.Timestamp),
	}
	// A live update may have delivered the pair already.
	for _, e := range []Entry{userEntry, assistantEntry} {
		if !s.hasEntry(e.ID) {
			s.entries = append(s.entries, e)
		}
	}

	// The server starts a new conversation for an unknown id, so any change
	// is persisted, not just the first one.
	if resp.SessionID != "" && resp.SessionID != s.sessionID {
		s.sessionID = resp.SessionID
		if err := s.state.SaveSessionID(resp.SessionID); err != nil {
			return fmt.Errorf("save session id: %w", err)
		}
	}
	return nil
}

// Send stages and commits text in one call.
func (s *Session) Send(ctx context.Context, text string) error {
	p, err := s.Stage(text)
	if err != nil {
		return err
	}
	return s.Commit(ctx, p)
}

// NewChat forgets the current conversation locally. The server keeps it.
func (s *Session) NewChat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat++
	s.entries = nil
	s.sessionID = ""
	s.err = ""
	return s.state.ClearSessionID()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return View{Entries: entries, SessionID: s.sessionID, Busy: s.busy, Err: s.err}
}

// AppendRemote adds messages pushed by the server for the active
// conversation, skipping ids already present.
func (s *Session) AppendRemote(event models.TurnEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.SessionID == "" || event.SessionID != s.sessionID {
		return
	}
	for _, m := range []models.HistoryMessage{event.UserMessage, event.AssistantMessage} {
		if s.hasEntry(m.ID) {
			continue
		}
		s.entries = append(s.entries, Entry{
			ID:        m.ID,
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: parseTimestamp(m.Timestamp),
		})
	}
}

func (s *Session) hasEntry(id string) bool {
	for _, e := range s.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) removeEntry(id string) {
	out := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	s.entries = out
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, models.NormalizeTimestamp(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}
