// Package generator defines the generator abstraction shared by every
// data module and the registry used to construct configured instances.
package generator

// Record is the serialized output of a single Generate call. A record
// is immutable once produced.
type Record struct {
	// Module is the name of the module that produced the record.
	Module string

	// Variant is the index of the instance that produced the record.
	// Variant indices are unique within a run and stable for its
	// duration.
	Variant int

	// Payload is the serialized record body, one self-contained JSON
	// object per record.
	Payload []byte
}

// Snapshot is a point-in-time serialization of an instance's state,
// produced by Dump. One snapshot renders as one tabular row.
type Snapshot struct {
	// Variant is the index of the instance the snapshot belongs to.
	Variant int

	// Columns names the module-specific fields in dump column order.
	Columns []string

	// Values holds one rendered value per column.
	Values []string
}

// Instance is a single stateful producer of synthetic records for one
// variant. Instances are owned by the engine for the duration of a run
// and are never accessed concurrently for the same variant.
type Instance interface {
	// Generate advances the instance state by one simulation step and
	// returns a freshly serialized record. Generate must not block on
	// I/O and must be deterministic for a fixed seed and call count.
	Generate() (Record, error)

	// Dump returns a serialization of the current state without
	// mutating it. Dump must succeed even if Generate has never been
	// called.
	Dump() Snapshot
}

// Config holds the module-facing run parameters. It is created once at
// startup and read-only afterwards.
type Config struct {
	// Variants is the number of independent instances to create.
	Variants int

	// Seed is the base seed for the per-variant random streams. Each
	// instance derives its own stream from Seed plus its variant index.
	Seed int64

	// Stock contains stock module parameters.
	Stock StockConfig

	// Prompt contains prompt module parameters.
	Prompt PromptConfig
}
