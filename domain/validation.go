// domain/validation.go
package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidationFailed matches every *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// fieldValidator checks the `validate` tags of domain structs. Field names in
// messages come from the json tag.
var fieldValidator = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var plainString = reflect.TypeOf("")

// fieldMessage renders a failed tag the way the rest of the notifications
// read. Free text is "empty" when missing, enumerations are "null".
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Type() == plainString {
			return fmt.Sprintf("'%s' should not be empty", fe.Field())
		}
		return fmt.Sprintf("'%s' should not be null", fe.Field())
	case "max":
		return fmt.Sprintf("'%s' must be between 1 and %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("'%s' should not be null", fe.Field())
	case "gte":
		return fmt.Sprintf("'%s' should not be negative", fe.Field())
	case "oneof":
		return fmt.Sprintf("'%s' is invalid: %q", fe.Field(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("'%s' failed the %q rule", fe.Field(), fe.Tag())
	}
}

// Error is a single validation problem.
type Error struct {
	Message string `json:"message"`
}

func (e Error) Error() string { return e.Message }

// Notification accumulates validation errors so that a request can report
// every violation at once instead of stopping at the first one.
type Notification struct {
	errors []Error
}

func NewNotification() *Notification {
	return &Notification{}
}

// Append records err. A nested *ValidationError is flattened into its
// individual errors.
func (n *Notification) Append(err error) *Notification {
	if err == nil {
		return n
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		n.errors = append(n.errors, verr.Errors...)
		return n
	}
	var e Error
	if errors.As(err, &e) {
		n.errors = append(n.errors, e)
		return n
	}
	n.errors = append(n.errors, Error{Message: err.Error()})
	return n
}

func (n *Notification) AppendMessage(message string) *Notification {
	n.errors = append(n.errors, Error{Message: message})
	return n
}

func (n *Notification) Merge(other *Notification) *Notification {
	if other != nil {
		n.errors = append(n.errors, other.errors...)
	}
	return n
}

func (n *Notification) HasErrors() bool {
	return len(n.errors) > 0
}

// FirstError returns the first recorded error, or nil.
func (n *Notification) FirstError() *Error {
	if len(n.errors) == 0 {
		return nil
	}
	e := n.errors[0]
	return &e
}

// Errors returns a copy of the recorded errors in insertion order.
func (n *Notification) Errors() []Error {
	out := make([]Error, len(n.errors))
	copy(out, n.errors)
	return out
}

// Err returns nil when nothing was recorded, otherwise a *ValidationError
// carrying the whole list.
func (n *Notification) Err(message string) error {
	if !n.HasErrors() {
		return nil
	}
	return &ValidationError{Message: message, Errors: n.Errors()}
}

// ValidationError is the rejected-request outcome of a construction or
// mutation. It is not retryable.
type ValidationError struct {
	Message string
	Errors  []Error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Message
	}
	if e.Message == "" {
		return strings.Join(msgs, "; ")
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
