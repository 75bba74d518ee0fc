package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig signals missing or malformed configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrNetwork signals that a request could not be sent or its response not received.
	ErrNetwork = errors.New("network error")
	// ErrQuery signals a non-success status returned by the search engine.
	ErrQuery = errors.New("query error")
	// ErrParse signals a response body that does not match the engine contract.
	ErrParse = errors.New("parse error")
	// ErrInvalidQuery signals a query the engine refuses to run.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmptyBatch signals an insert request without documents.
	ErrEmptyBatch = errors.New("empty document batch")
	// ErrBatchTooLarge signals an insert request above the configured batch size.
	ErrBatchTooLarge = errors.New("document batch too large")
	// ErrInvalidDocument signals a document that fails validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// QueryError is returned when the engine answers with a non-success status.
// Body holds the raw response text.
type QueryError struct {
	Status int
	Body   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrQuery.Error(), e.Status, e.Body)
}

func (e *QueryError) Unwrap() error { return ErrQuery }

// NetworkError wraps a transport failure for the named operation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork.Error(), e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// ParseError wraps a decoding failure of an engine response.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrParse.Error(), e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// Message returns the text shown to a user for err.
// A QueryError renders as the raw engine body, anything else as its error string.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Body
	}
	return err.Error()
}
