package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/agent"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/metrics"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = `{"response":"Here is your resume.","conversation_id":"conv-1","resume_json":{"resume":{"basics":{"name":"Jane Doe","email":"jane@x.com"},"experience":[],"education":[],"skills":{"keywords":["Go"]}}}}`

type fakeAgent struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []agent.ChatRequest
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeAgent) Chat(_ context.Context, req agent.ChatRequest) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block, started := f.block, f.started
	var reply string
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return []byte(reply), nil
}

type staticIdentities struct {
	identity types.Identity
	calls    int
}

func (s *staticIdentities) Identity(context.Context, uuid.UUID) types.Identity {
	s.calls++
	return s.identity
}

type memorySnapshots struct {
	mu    sync.Mutex
	saved []*db.Snapshot
	err   error
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, s *db.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func builderSession(t *testing.T, m *Manager, user uuid.UUID) *Session {
	t.Helper()
	s, err := m.Create(context.Background(), user, "Professional", "Go developer")
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), user, s.ID)
	require.NoError(t, err)
	s, err = m.Get(user, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateBuilder, s.State)
	return s
}

func TestManager_StateMachine(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAgent{replies: []string{scenarioA}}
	ids := &staticIdentities{identity: types.Identity{Phone: "555-1111"}}
	m := NewManager(fa, ids)
	user := uuid.New()

	s, err := m.Create(ctx, user, "", "")
	require.NoError(t, err)
	assert.Equal(t, StateTemplateSelection, s.State)
	assert.Equal(t, "555-1111", s.Identity.Phone)

	_, err = m.SetJobDescription(user, s.ID, "Go developer")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = m.Generate(ctx, user, s.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	s, err = m.SelectTemplate(user, s.ID, "modern sidebar")
	require.NoError(t, err)
	assert.Equal(t, StateJobDescription, s.State)
	assert.Equal(t, types.TemplateModernSidebar, s.Template)

	_, err = m.Chat(ctx, user, s.ID, "hello")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = m.SetJobDescription(user, s.ID, "Go developer")
	require.NoError(t, err)

	res, err := m.Generate(ctx, user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Here is your resume.", res.Reply)
	assert.Contains(t, res.HTML, "Jane Doe")
	assert.Contains(t, res.HTML, "555-1111")

	require.Len(t, fa.requests, 1)
	assert.Equal(t, GenerateMessage, fa.requests[0].Message)
	assert.Equal(t, "Go developer", fa.requests[0].JobDescription)
	assert.Equal(t, user.String(), fa.requests[0].UserID)

	s, err = m.Get(user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBuilder, s.State)
	assert.Equal(t, "conv-1", s.ConversationID)
	assert.False(t, s.Pending)
	assert.Len(t, s.Messages, 2)

	_, err = m.Generate(ctx, user, s.ID)
	assert.ErrorIs(t, err, ErrInvalidState, "generation happens once")
	assert.Equal(t, 1, ids.calls, "identity is fetched once per session")
}

func TestManager_CreateWithUnknownTemplate(t *testing.T) {
	m := NewManager(&fakeAgent{}, nil)
	_, err := m.Create(context.Background(), uuid.New(), "Baroque", "")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestManager_OwnershipAndDelete(t *testing.T) {
	m := NewManager(&fakeAgent{}, nil)
	owner, other := uuid.New(), uuid.New()

	s, err := m.Create(context.Background(), owner, "Creative", "")
	require.NoError(t, err)

	_, err = m.Get(other, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(other, s.ID), ErrNotFound)

	require.NoError(t, m.Delete(owner, s.ID))
	_, err = m.Get(owner, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_ChatLastWriteWins(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAgent{replies: []string{
		scenarioA,
		`{"response":"Renamed.","resume_json":{"resume":{"basics":{"name":"Janet Doe"}}}}`,
		`{"response":"Your ATS Score: 77%"}`,
	}}
	m := NewManager(fa, nil)
	user := uuid.New()
	s := builderSession(t, m, user)

	res, err := m.Chat(ctx, user, s.ID, "rename me")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Janet Doe")
	assert.NotContains(t, res.HTML, "Jane Doe")
	assert.Equal(t, "conv-1", fa.requests[1].ConversationID)

	// No resume in the reply: the document is re-rendered from the stored one.
	res, err = m.Chat(ctx, user, s.ID, "score?")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Janet Doe")
	require.NotNil(t, res.ATS)
	assert.Equal(t, 77.0, res.ATS.Overall)
	assert.Equal(t, parsing.ATSSourceText, res.ATS.Source)
}

func TestManager_TransportFailureKeepsDocument(t *testing.T) {
	ctx := context.Background()
	rec := metrics.New()
	fa := &fakeAgent{
		replies: []string{scenarioA},
		errs:    []error{nil, &agent.TransportError{StatusCode: 503, Message: "agent unavailable"}},
	}
	m := NewManager(fa, nil, WithMetrics(rec))
	user := uuid.New()
	s := builderSession(t, m, user)
	before := s.HTML

	_, err := m.Chat(ctx, user, s.ID, "more")
	var terr *agent.TransportError
	require.ErrorAs(t, err, &terr)

	s, err = m.Get(user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBuilder, s.State)
	assert.Equal(t, before, s.HTML, "stale document stays")
	assert.NotNil(t, s.Resume)
	assert.Contains(t, s.Error, "agent unavailable")
	assert.Equal(t, FailureMessage, s.Messages[len(s.Messages)-1].Text)
	assert.False(t, s.Pending)

	require.NoError(t, m.DismissError(user, s.ID))
	s, _ = m.Get(user, s.ID)
	assert.Empty(t, s.Error)
}

func TestManager_GenerateFailureStillEntersBuilder(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&fakeAgent{errs: []error{errors.New("dial tcp: refused")}}, nil)
	user := uuid.New()

	s, err := m.Create(ctx, user, "Minimalist", "Go developer")
	require.NoError(t, err)

	_, err = m.Generate(ctx, user, s.ID)
	require.Error(t, err)

	s, err = m.Get(user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBuilder, s.State)
	assert.Nil(t, s.Resume)

	html, err := m.Preview(user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, rendering.NotGeneratedHTML, html)
}

func TestManager_ParseFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&fakeAgent{replies: []string{scenarioA, `not json`}}, nil)
	user := uuid.New()
	s := builderSession(t, m, user)

	_, err := m.Chat(ctx, user, s.ID, "hi")
	var perr *parsing.ParseError
	require.ErrorAs(t, err, &perr)

	got, _ := m.Get(user, s.ID)
	assert.Equal(t, s.HTML, got.HTML)
}

func TestManager_MissingResumeRendersPlaceholder(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&fakeAgent{replies: []string{`{}`}}, nil)
	user := uuid.New()

	s, err := m.Create(ctx, user, "Creative", "")
	require.NoError(t, err)
	res, err := m.Generate(ctx, user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, rendering.NotGeneratedHTML, res.HTML)
	assert.Equal(t, parsing.DefaultReplyText, res.Reply)
}

func TestManager_InFlightGate(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAgent{replies: []string{scenarioA, scenarioA}}
	m := NewManager(fa, nil)
	user := uuid.New()
	s := builderSession(t, m, user)

	fa.mu.Lock()
	fa.block = make(chan struct{})
	fa.started = make(chan struct{}, 1)
	fa.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := m.Chat(ctx, user, s.ID, "first")
		done <- err
	}()
	<-fa.started

	got, err := m.Get(user, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending)

	_, err = m.Chat(ctx, user, s.ID, "second")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	_, err = m.SelectTemplate(user, s.ID, "Creative")
	assert.NoError(t, err, "template switch does not wait for the agent")

	close(fa.block)
	require.NoError(t, <-done)

	got, err = m.Get(user, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Pending)
	assert.Len(t, fa.requests, 2)
}

func TestManager_TemplateSwitchReRenders(t *testing.T) {
	ids := &staticIdentities{identity: types.Identity{Location: "Austin, TX"}}
	m := NewManager(&fakeAgent{replies: []string{scenarioA}}, ids)
	user := uuid.New()
	s := builderSession(t, m, user)

	switched, err := m.SelectTemplate(user, s.ID, "Minimalist")
	require.NoError(t, err)
	assert.NotEqual(t, s.HTML, switched.HTML)
	assert.Contains(t, switched.HTML, "resume--minimalist")
	assert.Contains(t, switched.HTML, "Austin, TX")
	assert.Equal(t, 1, ids.calls)

	want, err := rendering.Render(s.Resume, s.Identity, types.TemplateMinimalist)
	require.NoError(t, err)
	assert.Equal(t, want, switched.HTML)

	_, err = m.SelectTemplate(user, s.ID, "Gothic")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestManager_Previews(t *testing.T) {
	m := NewManager(&fakeAgent{replies: []string{scenarioA}}, nil)
	user := uuid.New()
	s := builderSession(t, m, user)

	previews, err := m.Previews(context.Background(), user, s.ID)
	require.NoError(t, err)
	require.Len(t, previews, len(types.Templates))
	for _, p := range previews {
		assert.Contains(t, p.HTML, "Jane Doe")
	}
}

func TestManager_Snapshots(t *testing.T) {
	store := &memorySnapshots{}
	m := NewManager(&fakeAgent{replies: []string{`{"response":"ok","ats_score":{"overall_score":81},"resume_json":{"resume":{"basics":{"name":"Jane"}}}}`}}, nil, WithSnapshots(store))
	user := uuid.New()
	s := builderSession(t, m, user)

	require.Len(t, store.saved, 1)
	snap := store.saved[0]
	assert.Equal(t, s.ID, snap.SessionID)
	assert.Equal(t, user, snap.UserID)
	assert.Equal(t, "Professional", snap.Template)
	assert.Equal(t, s.HTML, snap.HTML)
	require.NotNil(t, snap.ATSScore)
	assert.Equal(t, 81.0, *snap.ATSScore)
	assert.JSONEq(t, `{"response":"ok","ats_score":{"overall_score":81},"resume_json":{"resume":{"basics":{"name":"Jane"}}}}`, string(snap.AgentResponse))
}

func TestManager_SnapshotFailureDoesNotFailTurn(t *testing.T) {
	store := &memorySnapshots{err: errors.New("db down")}
	m := NewManager(&fakeAgent{replies: []string{scenarioA}}, nil, WithSnapshots(store))
	builderSession(t, m, uuid.New())
}

func TestSession_CloneIsIndependent(t *testing.T) {
	m := NewManager(&fakeAgent{replies: []string{scenarioA}}, nil)
	user := uuid.New()
	s := builderSession(t, m, user)

	s.Resume.Skills[0] = "COBOL"
	s.Messages[0].Text = "changed"

	again, err := m.Get(user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", again.Resume.Skills[0])
	assert.Equal(t, GenerateMessage, again.Messages[0].Text)
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(&fakeAgent{}, nil, WithIdleTimeout(time.Hour))
	m.now = func() time.Time { return clock }
	user := uuid.New()

	idle, err := m.Create(context.Background(), user, "", "")
	require.NoError(t, err)
	active, err := m.Create(context.Background(), user, "", "")
	require.NoError(t, err)

	clock = clock.Add(50 * time.Minute)
	_, err = m.Get(user, active.ID)
	require.NoError(t, err)

	clock = clock.Add(20 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(user, idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(user, active.ID)
	assert.NoError(t, err)
}

func TestManager_SweepKeepsPendingTurns(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	fa := &fakeAgent{replies: []string{scenarioA}}
	m := NewManager(fa, nil, WithIdleTimeout(time.Minute))
	m.now = func() time.Time { return clock }
	user := uuid.New()

	s, err := m.Create(ctx, user, "Professional", "Go developer")
	require.NoError(t, err)

	fa.mu.Lock()
	fa.block = make(chan struct{})
	fa.started = make(chan struct{}, 1)
	fa.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := m.Generate(ctx, user, s.ID)
		done <- err
	}()
	<-fa.started

	m.mu.Lock()
	clock = clock.Add(time.Hour)
	m.mu.Unlock()
	assert.Zero(t, m.Sweep())

	close(fa.block)
	require.NoError(t, <-done)
	assert.Zero(t, m.Sweep(), "a finished turn counts as activity")
	assert.Equal(t, 1, m.Len())
}

func TestManager_SweepDisabledByDefault(t *testing.T) {
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(&fakeAgent{}, nil)
	m.now = func() time.Time { return clock }
	_, err := m.Create(context.Background(), uuid.New(), "", "")
	require.NoError(t, err)

	clock = clock.Add(365 * 24 * time.Hour)
	assert.Zero(t, m.Sweep())
	assert.Equal(t, 1, m.Len())
}
