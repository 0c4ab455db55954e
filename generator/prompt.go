package generator

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// ModulePrompt is the registry name of the prompt content module.
const ModulePrompt = "prompt"

// PromptConfig contains prompt module parameters.
type PromptConfig struct {
	// Text is the prompt used to seed each generated record.
	Text string
}

// promptRecord is one prompt-derived content record.
type promptRecord struct {
	Generator string `json:"generator"`
	Sequence  uint64 `json:"sequence"`
	Prompt    string `json:"prompt"`
	Timestamp int64  `json:"timestamp"`
}

// PromptInstance emits records derived from a configured prompt, with
// a per-variant sequence number.
type PromptInstance struct {
	variant  int
	id       string
	text     string
	sequence uint64

	now func() time.Time
}

// NewPromptInstances creates one prompt instance per variant.
func NewPromptInstances(cfg Config) ([]Instance, error) {
	if cfg.Variants < 1 {
		return nil, fmt.Errorf("variants must be 1 or greater, got %d", cfg.Variants)
	}
	if cfg.Prompt.Text == "" {
		return nil, fmt.Errorf("prompt text cannot be empty")
	}

	instances := make([]Instance, 0, cfg.Variants)
	for i := 0; i < cfg.Variants; i++ {
		instances = append(instances, &PromptInstance{
			variant: i,
			id:      fmt.Sprintf("PROMPT%d", i),
			text:    cfg.Prompt.Text,
			now:     time.Now,
		})
	}

	return instances, nil
}

// Generate emits the next prompt record in sequence.
func (p *PromptInstance) Generate() (Record, error) {
	p.sequence++

	payload, err := json.Marshal(promptRecord{
		Generator: p.id,
		Sequence:  p.sequence,
		Prompt:    p.text,
		Timestamp: p.now().Unix(),
	})
	if err != nil {
		return Record{}, fmt.Errorf("marshal prompt record: %w", err)
	}

	return Record{Module: ModulePrompt, Variant: p.variant, Payload: payload}, nil
}

// Dump reports the prompt and the number of records emitted so far.
func (p *PromptInstance) Dump() Snapshot {
	return Snapshot{
		Variant: p.variant,
		Columns: []string{"id", "prompt", "records"},
		Values:  []string{p.id, p.text, fmt.Sprintf("%d", p.sequence)},
	}
}
