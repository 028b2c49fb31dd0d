package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Prompt keys in prompts.AgentFile.
const (
	promptSystem          = "resume-consultant-system"
	promptProfile         = "profile-section"
	promptJob             = "job-section"
	promptResumeAvailable = "resume-available"
	promptResumeMissing   = "resume-missing"
	promptHistory         = "history-section"
	promptUserTurn        = "user-turn"
)

// historyWindow is how many past messages are replayed into the prompt.
const historyWindow = 10

// ProfileLookup returns the stored profile record of a user, if any.
type ProfileLookup func(ctx context.Context, userID string) ([]byte, error)

type conversation struct {
	userID  string
	resume  string // raw resume JSON, empty until generated
	history []string
	// keywords and semantic are the last job keywords and semantic score
	// the model reported; later turns rescore against them.
	keywords []string
	semantic *float64
	lastUsed time.Time
	inFlight int
}

// LLMAgent answers chat turns in-process with Gemini. It keeps the current
// resume of each conversation so later turns can refine it.
type LLMAgent struct {
	client   llm.Client
	profiles ProfileLookup

	mu            sync.Mutex
	conversations map[string]*conversation
	now           func() time.Time
}

// NewLLMAgent creates an agent backed by client. profiles may be nil.
func NewLLMAgent(client llm.Client, profiles ProfileLookup) *LLMAgent {
	return &LLMAgent{
		client:        client,
		profiles:      profiles,
		conversations: make(map[string]*conversation),
		now:           time.Now,
	}
}

// Chat implements Client. The returned body has the same shape as the HTTP
// agent's: {response, resume_json: {resume}, ats_score, conversation_id}.
func (a *LLMAgent) Chat(ctx context.Context, req ChatRequest) ([]byte, error) {
	conv, id := a.conversation(req.UserID, req.ConversationID)
	defer a.release(conv)
	profile := a.profile(ctx, req.UserID)

	a.mu.Lock()
	prompt := buildPrompt(req, profile, conv)
	tier := llm.TierRefine
	if conv.resume == "" {
		tier = llm.TierGenerate
	}
	a.mu.Unlock()

	out, err := a.client.GenerateJSON(ctx, llm.Request{System: prompts.MustGet(prompts.AgentFile, promptSystem), Prompt: prompt, Tier: tier})
	if err != nil {
		return nil, &TransportError{Message: "model call failed", Cause: err}
	}
	if !gjson.Valid(out) {
		return nil, &TransportError{Message: "model returned invalid JSON"}
	}
	result := gjson.Parse(out)

	a.mu.Lock()
	defer a.mu.Unlock()

	updated := false
	if r := result.Get("resume"); r.IsObject() {
		conv.resume = r.Raw
		updated = true
	}
	reply := result.Get("response").String()
	conv.history = append(conv.history, "User: "+req.Message, "Assistant: "+reply)
	if len(conv.history) > historyWindow {
		conv.history = conv.history[len(conv.history)-historyWindow:]
	}
	conv.lastUsed = a.now()

	body, err := buildResponse(id, reply, conv.resume, conv.score(result.Get("ats_score"), updated))
	if err != nil {
		return nil, err
	}
	log.Printf("[agent] conversation %s: reply %d chars, resume %t", id, len(reply), conv.resume != "")
	return body, nil
}

func (a *LLMAgent) conversation(userID, id string) (*conversation, string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id != "" {
		if c, ok := a.conversations[id]; ok && c.userID == userID {
			c.lastUsed = a.now()
			c.inFlight++
			return c, id
		}
	}
	id = uuid.New().String()
	c := &conversation{userID: userID, lastUsed: a.now(), inFlight: 1}
	a.conversations[id] = c
	return c, id
}

func (a *LLMAgent) release(c *conversation) {
	a.mu.Lock()
	c.inFlight--
	a.mu.Unlock()
}

// Sweep forgets conversations unused for longer than maxIdle and returns
// how many were dropped. Conversations with a call in flight are kept. A
// later turn on a dropped id starts over.
func (a *LLMAgent) Sweep(maxIdle time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := a.now().Add(-maxIdle)
	n := 0
	for id, c := range a.conversations {
		if c.inFlight == 0 && c.lastUsed.Before(cutoff) {
			delete(a.conversations, id)
			n++
		}
	}
	return n
}

// score rescores the conversation's resume. The model contributes the job
// keywords and the semantic score; coverage is measured here. It returns
// nil when there is nothing to score.
func (c *conversation) score(ats gjson.Result, resumeUpdated bool) *ATSScore {
	if ats.IsObject() {
		keywords := append(fields.Strings(ats.Get("required_keywords")), fields.Strings(ats.Get("missing_keywords"))...)
		if len(keywords) > 0 {
			c.keywords = normalizeKeywords(keywords)
		}
		if v := ats.Get("semantic_score"); v.Type == gjson.Number {
			semantic := v.Float()
			c.semantic = &semantic
		}
	} else if !resumeUpdated || len(c.keywords) == 0 {
		return nil
	}
	score := ScoreResume(c.resume, c.keywords, c.semantic)
	return &score
}

func (a *LLMAgent) profile(ctx context.Context, userID string) []byte {
	if a.profiles == nil {
		return nil
	}
	raw, err := a.profiles(ctx, userID)
	if err != nil {
		log.Printf("[agent] profile lookup for %s failed: %v", userID, err)
		return nil
	}
	return raw
}

func buildPrompt(req ChatRequest, profile []byte, conv *conversation) string {
	section := func(key string, data map[string]string) string {
		return prompts.Format(prompts.MustGet(prompts.AgentFile, key), data)
	}

	var sb strings.Builder
	if len(profile) > 0 {
		sb.WriteString(section(promptProfile, map[string]string{"Profile": string(profile)}))
	}
	if req.JobDescription != "" {
		sb.WriteString(section(promptJob, map[string]string{"JobDescription": req.JobDescription}))
	}
	if conv.resume != "" {
		sb.WriteString(section(promptResumeAvailable, map[string]string{"Resume": conv.resume}))
	} else {
		sb.WriteString(section(promptResumeMissing, nil))
	}
	if len(conv.history) > 0 {
		sb.WriteString(section(promptHistory, map[string]string{"History": strings.Join(conv.history, "\n")}))
	}
	sb.WriteString(section(promptUserTurn, map[string]string{"Message": req.Message}))
	return sb.String()
}

func buildResponse(id, reply, resume string, ats *ATSScore) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "response", reply); err != nil {
		return nil, fmt.Errorf("failed to build agent response: %w", err)
	}
	if body, err = sjson.SetBytes(body, "conversation_id", id); err != nil {
		return nil, fmt.Errorf("failed to build agent response: %w", err)
	}
	if resume != "" {
		if body, err = sjson.SetRawBytes(body, "resume_json.resume", []byte(resume)); err != nil {
			return nil, fmt.Errorf("failed to build agent response: %w", err)
		}
	}
	if ats != nil {
		if body, err = sjson.SetBytes(body, "ats_score", ats); err != nil {
			return nil, fmt.Errorf("failed to build agent response: %w", err)
		}
	}
	return body, nil
}
