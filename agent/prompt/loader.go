package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/extractor.txt
	extractorRaw string

	//go:embed template/synthesizer.txt
	synthesizerRaw string

	//go:embed template/answer.txt
	answerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Extractor   string
	Synthesizer string
	Answer      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Extractor:   strings.TrimSpace(extractorRaw),
		Synthesizer: strings.TrimSpace(synthesizerRaw),
		Answer:      strings.TrimSpace(answerRaw),
	}
}
