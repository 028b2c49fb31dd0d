// Package llm wraps the Gemini API behind a small JSON-generation client.
package llm

// ModelTier picks a model by the kind of agent turn.
type ModelTier string

const (
	// TierGenerate writes a complete resume from the profile and job description.
	TierGenerate ModelTier = "generate"
	// TierRefine edits an existing resume in response to a chat message.
	TierRefine ModelTier = "refine"
)

// Config holds the model settings of a GeminiClient.
type Config struct {
	Models      map[ModelTier]string
	Temperature float32
	// MaxOutputTokens caps a reply; zero keeps the model default.
	MaxOutputTokens int32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierGenerate: "gemini-2.5-pro",
			TierRefine:   "gemini-2.5-flash",
		},
		Temperature:     0.3,
		MaxOutputTokens: 8192,
	}
}

// GetModel returns the model for tier, falling back to the refine model.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierRefine]
}

// WithModel returns a copy of c with model set for tier. An empty model
// returns c unchanged.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	if model == "" {
		return c
	}
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return &out
}
