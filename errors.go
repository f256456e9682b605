package cellar

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates the key is absent or its entry has expired.
	ErrNotFound = errors.New("cellar: key not found")

	// ErrInvalidPolicy indicates an unsupported eviction policy.
	ErrInvalidPolicy = errors.New("cellar: invalid eviction policy")

	// ErrListenerType indicates a listener whose key or value type does not
	// match the cache.
	ErrListenerType = errors.New("cellar: listener type does not match cache")

	// ErrNilLoader indicates GetOrLoad was called without a loader.
	ErrNilLoader = errors.New("cellar: nil loader")
)

// ConfigurationError reports an unusable configuration value.
// Err is the matching sentinel, such as ErrInvalidPolicy.
type ConfigurationError struct {
	Option string
	Value  string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cellar: invalid %s %q", e.Option, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// OperationError reports an unexpected failure inside a cache operation.
// Key and Value hold the operation's arguments when it has them.
type OperationError struct {
	Op    string
	Key   any
	Value any
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("cellar: %s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
