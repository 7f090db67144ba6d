package message

import (
	"errors"
	"fmt"
)

// UnexpectedStructureError reports a message structure that violates the
// shape the assembler depends on. These are raised immediately rather
// than defaulted: silently guessing here risks classifying content as
// the wrong body type.
type UnexpectedStructureError struct {
	// Key is the positional key of the offending part, "" when the
	// violation concerns the message as a whole.
	Key    string
	Reason string
}

func (e *UnexpectedStructureError) Error() string {
	if e.Key == "" {
		return "unexpected message structure: " + e.Reason
	}
	return fmt.Sprintf("unexpected message structure at part %s: %s", e.Key, e.Reason)
}

// IsUnexpectedStructure reports whether err (or any error in its chain)
// is an UnexpectedStructureError.
func IsUnexpectedStructure(err error) bool {
	var serr *UnexpectedStructureError
	return errors.As(err, &serr)
}
