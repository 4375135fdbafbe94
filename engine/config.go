package engine

import "log/slog"

// maxBatchGetSize is the provider limit on keys per BatchGetItem call.
const maxBatchGetSize = 100

// IndexSchema names the key attributes of a secondary index.
type IndexSchema struct {
	// PartitionAttr is the index's partition key attribute name.
	PartitionAttr string

	// SortAttr is the index's sort key attribute name. Empty for
	// partition-only indexes.
	SortAttr string
}

// Config holds configuration for an Engine. TableName is required;
// everything else has defaults.
type Config struct {
	// TableName is the DynamoDB table this engine addresses.
	TableName string

	// PartitionAttr is the table's partition key attribute name.
	// Default: "PK"
	PartitionAttr string

	// SortAttr is the table's sort key attribute name.
	// Default: "SK"
	SortAttr string

	// Indexes maps secondary index names to their key schemas. Queries
	// naming an index not listed here fail with a ValidationError.
	Indexes map[string]IndexSchema

	// BatchSize caps keys per backend batch call. Values outside
	// (0, 100] are clamped to the provider limit of 100.
	BatchSize int

	// Logger receives debug and warning logs. Default: slog.Default().
	Logger *slog.Logger
}

// validate applies defaults and rejects unusable configuration.
func (c *Config) validate() error {
	if c.TableName == "" {
		return &ValidationError{Field: "TableName", Reason: "must not be empty"}
	}
	if c.PartitionAttr == "" {
		c.PartitionAttr = "PK"
	}
	if c.SortAttr == "" {
		c.SortAttr = "SK"
	}
	if c.BatchSize <= 0 || c.BatchSize > maxBatchGetSize {
		c.BatchSize = maxBatchGetSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
