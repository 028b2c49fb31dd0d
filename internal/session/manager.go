package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/agent"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/metrics"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
)

// IdentitySource resolves the profile identity of a user.
type IdentitySource interface {
	Identity(ctx context.Context, userID uuid.UUID) types.Identity
}

// SnapshotStore persists successful turns.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *db.Snapshot) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithSnapshots persists every successful turn to store.
func WithSnapshots(store SnapshotStore) Option {
	return func(m *Manager) { m.snapshots = store }
}

// WithMetrics records turn and render metrics.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = rec }
}

// WithIdleTimeout lets Sweep close sessions untouched for longer than d.
// Zero, the default, keeps sessions until they are deleted.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// Manager holds the open sessions in memory.
type Manager struct {
	agent       agent.Client
	identities  IdentitySource
	snapshots   SnapshotStore
	metrics     *metrics.Recorder
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a Manager. identities may be nil, in which case every
// session starts with an empty profile identity.
func NewManager(client agent.Client, identities IdentitySource, opts ...Option) *Manager {
	m := &Manager{
		agent:      client,
		identities: identities,
		now:        time.Now,
		sessions:   make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a session for userID. The profile identity is fetched once
// here and reused for every render of the session. A template skips the
// selection step.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, template, jobDescription string) (*Session, error) {
	s := &Session{
		ID:             uuid.New(),
		UserID:         userID,
		State:          StateTemplateSelection,
		JobDescription: jobDescription,
		Messages:       []types.ChatMessage{},
	}
	if template != "" {
		sel, err := types.ParseTemplateSelector(template)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownTemplate, err)
		}
		s.Template = sel
		s.State = StateJobDescription
	}
	if m.identities != nil {
		s.Identity = m.identities.Identity(ctx, userID)
	}
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	s.touched = s.CreatedAt

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.metrics.SessionOpened()
	log.Printf("[session] %s created for user %s (state %s)", s.ID, userID, s.State)
	return s.clone(), nil
}

// Get returns a copy of the session.
func (m *Manager) Get(userID, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// Delete closes the session. A pending turn finishes but its result is dropped.
func (m *Manager) Delete(userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(userID, id); err != nil {
		return err
	}
	delete(m.sessions, id)
	m.metrics.SessionClosed()
	return nil
}

// SelectTemplate sets the layout. Once a resume exists the document is
// re-rendered from the stored resume and identity; nothing is refetched.
func (m *Manager) SelectTemplate(userID, id uuid.UUID, template string) (*Session, error) {
	sel, err := types.ParseTemplateSelector(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTemplate, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}

	s.Template = sel
	switch s.State {
	case StateTemplateSelection:
		s.State = StateJobDescription
	case StateBuilder:
		if err := m.render(s); err != nil {
			return nil, err
		}
	}
	s.UpdatedAt = m.now()
	return s.clone(), nil
}

// SetJobDescription stores the job description sent with later turns.
func (m *Manager) SetJobDescription(userID, id uuid.UUID, jobDescription string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	switch s.State {
	case StateTemplateSelection:
		return nil, stateError("set the job description", s.State)
	case StateGenerating:
		return nil, ErrTurnInFlight
	}
	s.JobDescription = jobDescription
	s.UpdatedAt = m.now()
	return s.clone(), nil
}

// DismissError clears the last turn failure.
func (m *Manager) DismissError(userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(userID, id)
	if err != nil {
		return err
	}
	s.Error = ""
	return nil
}

// Generate runs the first turn. The session moves to the builder whether
// or not the agent answers; a failure is recorded on the session.
func (m *Manager) Generate(ctx context.Context, userID, id uuid.UUID) (*types.TurnResult, error) {
	return m.turn(ctx, userID, id, GenerateMessage, true)
}

// Chat sends one user message to the agent and re-renders the document.
func (m *Manager) Chat(ctx context.Context, userID, id uuid.UUID, message string) (*types.TurnResult, error) {
	return m.turn(ctx, userID, id, message, false)
}

// Preview returns the current document, rendering the not-generated
// placeholder before the first successful turn.
func (m *Manager) Preview(userID, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(userID, id)
	if err != nil {
		return "", err
	}
	if s.HTML != "" {
		return s.HTML, nil
	}
	return rendering.NotGeneratedHTML, nil
}

// Previews renders the session's resume in every layout.
func (m *Manager) Previews(ctx context.Context, userID, id uuid.UUID) ([]rendering.Preview, error) {
	s, err := m.Get(userID, id)
	if err != nil {
		return nil, err
	}
	return rendering.RenderAll(ctx, s.Resume, s.Identity)
}

func (m *Manager) lookup(userID, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	s.touched = m.now()
	return s, nil
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were closed. A session with a pending turn is never closed.
func (m *Manager) Sweep() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTimeout)
	n := 0
	for id, s := range m.sessions {
		if !s.Pending && s.touched.Before(cutoff) {
			delete(m.sessions, id)
			m.metrics.SessionClosed()
			n++
		}
	}
	if n > 0 {
		log.Printf("[session] closed %d idle sessions", n)
	}
	return n
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// render refreshes s.HTML. The caller holds m.mu.
func (m *Manager) render(s *Session) error {
	start := m.now()
	html, err := rendering.Render(s.Resume, s.Identity, s.Template)
	m.metrics.RecordRender(string(s.Template), m.now().Sub(start), err)
	if err != nil {
		return err
	}
	s.HTML = html
	return nil
}

func (m *Manager) turn(ctx context.Context, userID, id uuid.UUID, message string, first bool) (*types.TurnResult, error) {
	m.mu.Lock()
	s, err := m.lookup(userID, id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if s.Pending {
		m.mu.Unlock()
		m.metrics.RecordTurn(metrics.OutcomeRejected, 0)
		return nil, ErrTurnInFlight
	}
	if first && s.State != StateJobDescription {
		m.mu.Unlock()
		return nil, stateError("generate", s.State)
	}
	if !first && s.State != StateBuilder {
		m.mu.Unlock()
		return nil, stateError("chat", s.State)
	}

	s.Pending = true
	if first {
		s.State = StateGenerating
	}
	s.Messages = append(s.Messages, types.ChatMessage{From: types.ChatFromUser, Text: message})
	req := agent.ChatRequest{
		Message:        message,
		UserID:         userID.String(),
		JobDescription: s.JobDescription,
		ConversationID: s.ConversationID,
	}
	m.mu.Unlock()

	start := m.now()
	raw, callErr := m.agent.Chat(ctx, req)
	var reply *parsing.AgentReply
	if callErr == nil {
		reply, callErr = parsing.ParseAgentReply(raw)
	}

	m.mu.Lock()
	if _, open := m.sessions[id]; !open {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	s.Pending = false
	s.State = StateBuilder
	s.UpdatedAt = m.now()
	s.touched = s.UpdatedAt

	if callErr != nil {
		m.fail(s, callErr)
		m.mu.Unlock()
		return nil, callErr
	}
	result, snap, err := m.apply(s, reply, raw, start)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.saveSnapshot(ctx, snap)
	return result, nil
}

// apply folds a successful reply into s. The caller holds m.mu.
func (m *Manager) apply(s *Session, reply *parsing.AgentReply, raw []byte, start time.Time) (*types.TurnResult, *db.Snapshot, error) {
	if reply.Resume != nil {
		s.Resume = reply.Resume
	}
	if reply.ConversationID != "" {
		s.ConversationID = reply.ConversationID
	}
	s.Messages = append(s.Messages, types.ChatMessage{From: types.ChatFromAgent, Text: reply.Message})
	if ats := parsing.LatestATSScore(reply.ATS, s.Messages); ats != nil {
		s.ATS = ats
		if reply.ATS != nil {
			m.metrics.RecordATSScore(ats.Overall)
		}
	}
	s.Warnings = reply.Warnings
	if err := m.render(s); err != nil {
		m.fail(s, err)
		return nil, nil, err
	}
	s.Error = ""
	m.metrics.RecordTurn(metrics.OutcomeSuccess, m.now().Sub(start))

	result := &types.TurnResult{
		Reply:    reply.Message,
		HTML:     s.HTML,
		Warnings: reply.Warnings,
	}
	snap := &db.Snapshot{
		SessionID:      s.ID,
		UserID:         s.UserID,
		Template:       string(s.Template),
		ConversationID: s.ConversationID,
		AgentResponse:  json.RawMessage(raw),
		HTML:           s.HTML,
	}
	if s.ATS != nil {
		ats := *s.ATS
		result.ATS = &ats
		snap.ATSScore = &ats.Overall
	}
	return result, snap, nil
}

// fail records a turn failure. The previous document stays in place.
func (m *Manager) fail(s *Session, err error) {
	s.Error = err.Error()
	s.Messages = append(s.Messages, types.ChatMessage{From: types.ChatFromAgent, Text: FailureMessage})

	var terr *agent.TransportError
	if errors.As(err, &terr) {
		m.metrics.RecordAgentError(terr.StatusCode)
	}
	m.metrics.RecordTurn(metrics.OutcomeTransport, 0)
	log.Printf("[session] %s turn failed: %v", s.ID, err)
}

// saveSnapshot persists a successful turn. A storage failure is logged
// and does not fail the turn.
func (m *Manager) saveSnapshot(ctx context.Context, snap *db.Snapshot) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.SaveSnapshot(context.WithoutCancel(ctx), snap); err != nil {
		log.Printf("[session] %s snapshot not saved: %v", snap.SessionID, err)
	}
}
