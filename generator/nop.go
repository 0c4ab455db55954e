package generator

import "fmt"

// ModuleNop is the registry name of the no-operation module.
const ModuleNop = "nop"

// NopInstance produces empty records. It is the default module and is
// useful for exercising the pipeline without module-specific content.
type NopInstance struct {
	variant int
	count   uint64
}

// NewNopInstances creates one nop instance per variant.
func NewNopInstances(cfg Config) ([]Instance, error) {
	if cfg.Variants < 1 {
		return nil, fmt.Errorf("variants must be 1 or greater, got %d", cfg.Variants)
	}

	instances := make([]Instance, 0, cfg.Variants)
	for i := 0; i < cfg.Variants; i++ {
		instances = append(instances, &NopInstance{variant: i})
	}

	return instances, nil
}

// Generate returns an empty JSON record.
func (n *NopInstance) Generate() (Record, error) {
	n.count++
	return Record{Module: ModuleNop, Variant: n.variant, Payload: []byte("{}")}, nil
}

// Dump reports the number of records produced.
func (n *NopInstance) Dump() Snapshot {
	return Snapshot{
		Variant: n.variant,
		Columns: []string{"id", "records"},
		Values:  []string{fmt.Sprintf("NOP%d", n.variant), fmt.Sprintf("%d", n.count)},
	}
}
