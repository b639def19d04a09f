// Package protocol is the wire codec shared by every room kind. Inbound
// text frames decode into a closed set of command structs per kind;
// server events are tagged structs encoded as single JSON text frames.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidFormat is returned for frames that are not a JSON object
	// of the expected shape
	ErrInvalidFormat = errors.New("Invalid message format")
	// ErrUnknownType is returned for a well-formed frame with an unknown tag
	ErrUnknownType = errors.New("unknown message type")
)

// ValidationError carries a user-facing reason a command was rejected
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type envelope struct {
	Type string `json:"type"`
}

// TypeOf extracts the type tag of a frame. A frame that is not an object
// carrying a type is malformed.
func TypeOf(data []byte) (string, error) {
	var env *envelope
	if err := json.Unmarshal(data, &env); err != nil || env == nil || env.Type == "" {
		return "", ErrInvalidFormat
	}
	return env.Type, nil
}

// as decodes and validates a frame into the concrete command C and
// returns it as the kind's command interface I
func as[C any, I any](tag string, data []byte) (I, error) {
	var zero I
	var cmd C
	if err := json.Unmarshal(data, &cmd); err != nil {
		return zero, ErrInvalidFormat
	}
	if err := check(tag, &cmd); err != nil {
		return zero, err
	}
	return any(cmd).(I), nil
}

func check(tag string, cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return Invalid("Invalid %s", tag)
	}
	return Invalid("Invalid %s: %s", tag, describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s needs at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s needs exactly %s items", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	}
	return field + " is invalid"
}

// Encode serializes a server event into one text frame
func Encode(event any) ([]byte, error) {
	return json.Marshal(event)
}

// Common server message types
const (
	TypeError           = "error"
	TypeConnectionCount = "connection_count"
)

// ErrorEvent is sent point-to-point to the connection whose command failed
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error builds an error event
func Error(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}

// ConnectionCountEvent reports the number of live connections of a room
type ConnectionCountEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ConnectionCount builds a presence event
func ConnectionCount(n int) ConnectionCountEvent {
	return ConnectionCountEvent{Type: TypeConnectionCount, Count: n}
}
