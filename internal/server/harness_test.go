package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/agent"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/metrics"
	"github.com/jonathan/resume-builder/internal/profiles"
	"github.com/jonathan/resume-builder/internal/session"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/require"
)

const generatedReply = `{"response":"Here is your resume. ATS Score: 72%","conversation_id":"conv-1","resume_json":{"resume":{"basics":{"name":"Jane Doe","label":"Backend Engineer","email":"jane@example.com"},"experience":[{"position":"Engineer","company":"Acme","startDate":"2020","endDate":"Present","highlights":["Built APIs"]}],"education":[],"skills":{"keywords":["Go","SQL"]}}}}`

// memoryUsers is an in-memory UserStore.
type memoryUsers struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*db.User
	failPassword bool
	deleted      []uuid.UUID
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[uuid.UUID]*db.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, name, email, phone string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	u := &db.User{ID: uuid.New(), Name: name, Email: strings.ToLower(email), Phone: phone, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memoryUsers) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPassword {
		return errors.New("disk full")
	}
	u, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = hash
	u.PasswordSet = true
	return nil
}

func (m *memoryUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// scriptedAgent answers turns from a queue of replies; an exhausted queue
// behaves like an unreachable agent.
type scriptedAgent struct {
	mu       sync.Mutex
	replies  []string
	requests []agent.ChatRequest
}

func (a *scriptedAgent) push(replies ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies = append(a.replies, replies...)
}

func (a *scriptedAgent) Chat(_ context.Context, req agent.ChatRequest) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	if len(a.replies) == 0 {
		return nil, &agent.TransportError{StatusCode: http.StatusServiceUnavailable, Message: "agent unavailable"}
	}
	reply := a.replies[0]
	a.replies = a.replies[1:]
	return []byte(reply), nil
}

type fakeGitHub struct {
	profile *fetch.GitHubProfile
	err     error
}

func (f *fakeGitHub) Profile(_ context.Context, username string) (*fetch.GitHubProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	p.Username = username
	return &p, nil
}

type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type memorySnapshots struct {
	mu    sync.Mutex
	saved []db.Snapshot
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, s *db.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.saved = append(m.saved, *s)
	return nil
}

func (m *memorySnapshots) ListSnapshots(_ context.Context, userID uuid.UUID, limit int) ([]db.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Snapshot{}
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].UserID == userID {
			out = append(out, m.saved[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type harness struct {
	t         *testing.T
	server    *Server
	users     *memoryUsers
	agent     *scriptedAgent
	github    *fakeGitHub
	pdf       *fakePDF
	snapshots *memorySnapshots
	metrics   *metrics.Recorder
	jobs      map[string]string
}

type harnessOption func(*config.Config, *Deps)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.JWT.Secret = testJWTSecret
	cfg.Password.BcryptCost = 4

	h := &harness{
		t:         t,
		users:     newMemoryUsers(),
		agent:     &scriptedAgent{},
		github:    &fakeGitHub{profile: &fetch.GitHubProfile{Name: "Jane Doe", Bio: "Gopher", Location: "Berlin", Followers: 12}},
		pdf:       &fakePDF{},
		snapshots: &memorySnapshots{},
		metrics:   metrics.New(),
		jobs:      map[string]string{},
	}

	profileSvc := profiles.NewService(profiles.NewMemoryStore(), h.github)
	deps := Deps{
		Users:     h.users,
		Profiles:  profileSvc,
		Sessions:  session.NewManager(h.agent, profileSvc, session.WithSnapshots(h.snapshots), session.WithMetrics(h.metrics)),
		Snapshots: h.snapshots,
		PDF:       h.pdf,
		Metrics:   h.metrics,
		Jobs: func(_ context.Context, url string) (string, error) {
			if text, ok := h.jobs[url]; ok {
				return text, nil
			}
			return "", &fetch.Error{URL: url, StatusCode: http.StatusNotFound, Message: "HTTP status 404"}
		},
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	srv, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)
	h.server = srv
	return h
}

// do sends a request through the full middleware chain. body may be a
// string (sent verbatim) or any value encoded as JSON.
func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token.
func (h *harness) register(email string) (string, uuid.UUID) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Jane Doe",
		"email":    email,
		"password": "password123",
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	var resp types.LoginResponse
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
