package segment

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrEmptyDocument indicates the document is empty after trimming whitespace.
	ErrEmptyDocument = errors.New("segment: empty document")

	// ErrInvalidConfig indicates a segmentation config that cannot be honoured.
	ErrInvalidConfig = errors.New("segment: invalid config")
)

// ConfigError reports which config field is invalid. It matches ErrInvalidConfig with errors.Is.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("segment: invalid config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
