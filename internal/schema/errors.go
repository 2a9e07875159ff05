package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSchema is returned by Parse when the document is not a JSON
	// object.
	ErrInvalidSchema = errors.New("invalid plugin schema")

	// ErrUnknownNode is returned by Walk for a Node type it does not know.
	ErrUnknownNode = errors.New("unknown schema node")
)

// ValidationError describes one value that does not fit the schema.
type ValidationError struct {
	// Path is the dotted option path, e.g. "extractor.max_tokens".
	Path string

	// Message says what is wrong.
	Message string
}

// Error implements error.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is the list returned by Coerce.
type ValidationErrors []ValidationError

// Error joins the messages, one per line.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}
