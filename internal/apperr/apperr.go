package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAcquisition
	KindExtraction
	KindTranscription
	KindAnalysis
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAcquisition:
		return "acquisition"
	case KindExtraction:
		return "extraction"
	case KindTranscription:
		return "transcription"
	case KindAnalysis:
		return "analysis"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error carries a failure kind plus the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func Validation(op, message string) *Error {
	return E(KindValidation, op, nil, message)
}

func Acquisition(op string, err error, message string) *Error {
	return E(KindAcquisition, op, err, message)
}

func Extraction(op string, err error, message string) *Error {
	return E(KindExtraction, op, err, message)
}

func Transcription(op string, err error, message string) *Error {
	return E(KindTranscription, op, err, message)
}

func Analysis(op string, err error, message string) *Error {
	return E(KindAnalysis, op, err, message)
}

func NotFound(op string, err error, message string) *Error {
	return E(KindNotFound, op, err, message)
}

func Internal(op string, err error, message string) *Error {
	return E(KindInternal, op, err, message)
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Classify keeps already-typed errors and wraps everything else in kind.
func Classify(err error, kind Kind, op, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return E(kind, op, err, message)
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAcquisition:
		return http.StatusUnprocessableEntity
	case KindTranscription, KindAnalysis:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to HTTP clients.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	switch e.Kind {
	case KindValidation, KindNotFound, KindAcquisition:
		return e.Message
	case KindInternal:
		return "internal server error"
	default:
		return e.Kind.String() + " failed: " + e.Message
	}
}
