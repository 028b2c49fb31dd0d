package agent

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Composite ATS weights: the model's semantic judgment and the keyword
// coverage measured against the resume text.
const (
	semanticWeight = 0.4
	keywordWeight  = 0.6
)

// ATSScore is the score attached to in-process agent replies. Keyword
// coverage is always measured here; only SemanticScore comes from the model.
type ATSScore struct {
	FinalScore       float64  `json:"final_score"`
	SemanticScore    float64  `json:"semantic_score"`
	KeywordScore     float64  `json:"keyword_score"`
	MissingKeywords  []string `json:"missing_keywords"`
	RequiredKeywords []string `json:"required_keywords,omitempty"`
}

// ResumeText flattens every string and number in a resume JSON document
// into one lowercase blob for keyword matching.
func ResumeText(resume string) string {
	var sb strings.Builder
	var walk func(r gjson.Result)
	walk = func(r gjson.Result) {
		switch {
		case r.IsObject(), r.IsArray():
			r.ForEach(func(_, v gjson.Result) bool {
				walk(v)
				return true
			})
		case r.Type == gjson.String, r.Type == gjson.Number:
			sb.WriteString(strings.ToLower(r.String()))
			sb.WriteByte('\n')
		}
	}
	walk(gjson.Parse(resume))
	return sb.String()
}

// MissingKeywords returns the required keywords that do not occur in
// resumeText, matching case-insensitively on substrings. Blank and
// repeated keywords are dropped.
func MissingKeywords(required []string, resumeText string) []string {
	text := strings.ToLower(resumeText)
	missing := []string{}
	for _, kw := range normalizeKeywords(required) {
		if !strings.Contains(text, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	return missing
}

// ScoreResume computes the composite score of resume against required.
// Without keywords the keyword score is 1. Without a semantic score from
// the model the keyword score stands alone.
func ScoreResume(resume string, required []string, semantic *float64) ATSScore {
	required = normalizeKeywords(required)
	score := ATSScore{KeywordScore: 1, MissingKeywords: []string{}, RequiredKeywords: required}
	if len(required) > 0 {
		score.MissingKeywords = MissingKeywords(required, ResumeText(resume))
		score.KeywordScore = float64(len(required)-len(score.MissingKeywords)) / float64(len(required))
	}

	if semantic == nil {
		score.SemanticScore = score.KeywordScore
	} else {
		score.SemanticScore = clamp01(*semantic)
	}
	score.FinalScore = round3(semanticWeight*score.SemanticScore + keywordWeight*score.KeywordScore)
	score.SemanticScore = round3(score.SemanticScore)
	score.KeywordScore = round3(score.KeywordScore)
	return score
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
