package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("lattice: invalid mapping configuration")

	// ErrTypeConversion is matched by every *TypeConversionError.
	ErrTypeConversion = errors.New("lattice: type conversion failed")

	// ErrMissingKey is matched by every *MissingKeyError.
	ErrMissingKey = errors.New("lattice: mapping has no key columns")

	// ErrAlreadyResolved is returned when a definition is registered for a type
	// whose mapping has already been published.
	ErrAlreadyResolved = errors.New("lattice: mapping already resolved")

	// ErrNotStruct is returned when a mapping is requested for a non-struct type.
	ErrNotStruct = errors.New("lattice: mapped type must be a struct")

	// ErrInstanceType is returned when a value passed to the binder does not
	// belong to the mapping's type.
	ErrInstanceType = errors.New("lattice: instance does not match mapped type")
)

// ConfigurationError reports a structural conflict in a type's mapping, such as
// an ignored key property or a reference to an unknown property.
// Resolution never publishes a mapping that failed with this error.
type ConfigurationError struct {
	Type     string
	Property string
	Reason   string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("lattice: mapping %s: property %q: %s", e.Type, e.Property, e.Reason)
	}
	return fmt.Sprintf("lattice: mapping %s: %s", e.Type, e.Reason)
}

// Is reports whether the target error matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// TypeConversionError reports a value that could not be converted between its
// Go representation and its storage representation.
type TypeConversionError struct {
	Property string
	Value    any
	Target   string
	Err      error
}

// Error returns the error string.
func (e *TypeConversionError) Error() string {
	msg := fmt.Sprintf("lattice: property %q: cannot convert %s to %s", e.Property, describeValue(e.Value), e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether the target error matches ErrTypeConversion.
func (e *TypeConversionError) Is(err error) bool {
	return err == ErrTypeConversion
}

// Unwrap returns the underlying parse or decode error, if any.
func (e *TypeConversionError) Unwrap() error {
	return e.Err
}

// MissingKeyError is returned by operations that need a key when the mapping
// resolved with no partition key columns.
type MissingKeyError struct {
	Type      string
	Operation string
}

// Error returns the error string.
func (e *MissingKeyError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("lattice: %s on %s requires a partition key", e.Operation, e.Type)
	}
	return fmt.Sprintf("lattice: mapping %s has no partition key", e.Type)
}

// Is reports whether the target error matches ErrMissingKey.
func (e *MissingKeyError) Is(err error) bool {
	return err == ErrMissingKey
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsTypeConversionError returns true if err is or wraps a TypeConversionError.
func IsTypeConversionError(err error) bool {
	var e *TypeConversionError
	return errors.As(err, &e)
}

// IsMissingKeyError returns true if err is or wraps a MissingKeyError.
func IsMissingKeyError(err error) bool {
	var e *MissingKeyError
	return errors.As(err, &e)
}

func describeValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
