package config

import "fmt"

// FieldError reports an invalid or missing configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// NewFieldError creates a new field error
func NewFieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// LoadError reports a failure reading or parsing a settings file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading settings from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new load error
func NewLoadError(path string, err error) error {
	return &LoadError{Path: path, Err: err}
}
