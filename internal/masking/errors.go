package masking

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLanguage indicates the language has no pattern table entry
	ErrUnsupportedLanguage = errors.New("language not supported")

	// ErrUnknownMatcher indicates a pass references a matcher missing from its pattern set
	ErrUnknownMatcher = errors.New("unknown matcher")
)

// UnsupportedLanguageError is returned by Mask when the requested language has no patterns.
// It matches ErrUnsupportedLanguage with errors.Is.
type UnsupportedLanguageError struct {
	Language string
}

// Error returns formatted error message
func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("%s not supported", e.Language)
}

// Is reports whether target is ErrUnsupportedLanguage
func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// IsUnsupportedLanguage checks if an error is an unsupported language error
func IsUnsupportedLanguage(err error) bool {
	var langErr *UnsupportedLanguageError
	return errors.As(err, &langErr)
}
