package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierGenerate))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierRefine))
	assert.Positive(t, config.MaxOutputTokens)
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{Models: map[ModelTier]string{TierRefine: "fallback-model"}}

	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
	assert.Equal(t, "fallback-model", config.GetModel(TierGenerate))
	assert.Empty(t, (&Config{}).GetModel(TierRefine))
}

func TestWithModel(t *testing.T) {
	base := DefaultConfig()
	custom := base.WithModel(TierGenerate, "custom-model")

	assert.Equal(t, "custom-model", custom.GetModel(TierGenerate))
	assert.Equal(t, "gemini-2.5-pro", base.GetModel(TierGenerate), "original config is not modified")
	assert.Equal(t, base.Temperature, custom.Temperature)
	assert.Same(t, base, base.WithModel(TierRefine, ""))
}
