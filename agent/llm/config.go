package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	openaix "github.com/tualang-ai/tualang/pkg/openai"
)

// Role selects per-component model overrides.
type Role string

const (
	RoleExtractor   Role = "extractor"
	RoleSynthesizer Role = "synthesizer"
	RoleAnswer      Role = "answer"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	EmbeddingModel     string        `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`

	ExtractorModel         string  `envconfig:"EXTRACTOR_MODEL" split_words:"true"`
	SynthesizerModel       string  `envconfig:"SYNTHESIZER_MODEL" split_words:"true"`
	AnswerModel            string  `envconfig:"ANSWER_MODEL" split_words:"true"`
	ExtractorTemperature   float32 `envconfig:"EXTRACTOR_TEMPERATURE" split_words:"true" default:"-1"`
	SynthesizerTemperature float32 `envconfig:"SYNTHESIZER_TEMPERATURE" split_words:"true" default:"-1"`
	AnswerTemperature      float32 `envconfig:"ANSWER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenAIFor resolves the provider config for a role, applying overrides.
func (c Config) OpenAIFor(role Role) openaix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case RoleExtractor:
		if v := strings.TrimSpace(c.ExtractorModel); v != "" {
			modelName = v
		}
		if c.ExtractorTemperature >= 0 {
			temp = c.ExtractorTemperature
		}
	case RoleSynthesizer:
		if v := strings.TrimSpace(c.SynthesizerModel); v != "" {
			modelName = v
		}
		if c.SynthesizerTemperature >= 0 {
			temp = c.SynthesizerTemperature
		}
	case RoleAnswer:
		if v := strings.TrimSpace(c.AnswerModel); v != "" {
			modelName = v
		}
		if c.AnswerTemperature >= 0 {
			temp = c.AnswerTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		EmbeddingModel:     strings.TrimSpace(c.EmbeddingModel),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
