package parsing

import (
	"math"
	"regexp"
	"strconv"

	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
)

// DefaultReplyText is shown when the agent returns resume content without any chat text.
const DefaultReplyText = "Resume updated successfully!"

// ATS score sources.
const (
	ATSSourceStructured = "structured"
	ATSSourceText       = "text"
)

// ATSMessageWindow is how many trailing agent messages are searched for a textual score.
const ATSMessageWindow = 10

var atsScorePattern = regexp.MustCompile(`(?i)(?:Updated\s+)?ATS\s+Score:\s*(\d+(?:\.\d+)?)%`)

// AgentReply is everything a chat turn extracts from one agent response.
type AgentReply struct {
	Message        string
	ConversationID string
	// Resume is nil when the response carried no resume content.
	Resume   *types.Resume
	ATS      *types.ATSScore
	Warnings []string
}

// ParseAgentReply extracts the chat text, conversation id, resume and ATS
// score from raw. Only a body that is not a JSON object is an error; every
// missing piece degrades to its default.
func ParseAgentReply(raw []byte) (*AgentReply, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ParseError{Message: "agent response is not valid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, &ParseError{Message: "agent response is not a JSON object"}
	}

	reply := &AgentReply{
		Message:        fields.Resolve(DefaultReplyText, fields.FromPaths(root, "response", "agent_response")...),
		ConversationID: fields.Resolve("", fields.FromPaths(root, "conversation_id")...),
	}

	if src, ok := ResumeSource(raw); ok {
		resume := MapResume(src)
		reply.Resume = &resume
		reply.Warnings = schemas.ValidateResume([]byte(src.Raw))
	}

	reply.ATS = StructuredATSScore(root.Get("ats_score"))
	if reply.ATS == nil {
		reply.ATS = ExtractATSScoreFromText(reply.Message)
	}
	return reply, nil
}

// StructuredATSScore reads an ats_score object. overall_score is taken as a
// percentage; final_score and its components are fractions in [0,1].
func StructuredATSScore(r gjson.Result) *types.ATSScore {
	if r.Type == gjson.Number {
		return &types.ATSScore{Overall: r.Float(), Source: ATSSourceStructured}
	}
	if !r.IsObject() {
		return nil
	}

	score := &types.ATSScore{
		Source:          ATSSourceStructured,
		Recommendations: nonEmpty(fields.Strings(r.Get("recommendations"))),
		MissingKeywords: nonEmpty(fields.Strings(r.Get("missing_keywords"))),
	}

	switch overall, final := r.Get("overall_score"), r.Get("final_score"); {
	case overall.Type == gjson.Number:
		score.Overall = overall.Float()
	case final.Type == gjson.Number:
		score.Overall = percent(final.Float())
	default:
		return nil
	}

	breakdown := map[string]float64{}
	r.Get("breakdown").ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Number {
			breakdown[k.String()] = v.Float()
		}
		return true
	})
	for key, name := range map[string]string{"semantic_score": "semantic", "keyword_score": "keyword"} {
		if v := r.Get(key); v.Type == gjson.Number {
			breakdown[name] = percent(v.Float())
		}
	}
	if len(breakdown) > 0 {
		score.Breakdown = breakdown
	}
	return score
}

// ExtractATSScoreFromText finds an "ATS Score: NN%" mention in text.
func ExtractATSScoreFromText(text string) *types.ATSScore {
	m := atsScorePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &types.ATSScore{Overall: v, Source: ATSSourceText}
}

// LatestATSScore prefers the structured score and otherwise searches the
// last ATSMessageWindow agent messages, newest first.
func LatestATSScore(structured *types.ATSScore, history []types.ChatMessage) *types.ATSScore {
	if structured != nil {
		return structured
	}
	start := len(history) - ATSMessageWindow
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		msg := history[i]
		if msg.From != types.ChatFromAgent {
			continue
		}
		if score := ExtractATSScoreFromText(msg.Text); score != nil {
			return score
		}
	}
	return nil
}

func percent(fraction float64) float64 {
	return math.Round(fraction*1000) / 10
}
