package mpijob

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"mpijobctl/internal/resources"
)

// ValidationError reports an invalid input combination or a structurally
// invalid job document. Errs is empty for contract violations that are not
// tied to a document field.
type ValidationError struct {
	Message string
	Errs    field.ErrorList
}

func (e *ValidationError) Error() string {
	if len(e.Errs) == 0 {
		return "invalid MPIJob: " + e.Message
	}
	return "invalid MPIJob: " + e.Errs.ToAggregate().Error()
}

// ErrValidation constructs a ValidationError with a plain message.
func ErrValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError names a job that does not exist.
type NotFoundError struct {
	Name      string
	Namespace string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("MPIJob %s not found in namespace %s", e.Name, e.Namespace)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsParse reports whether err is (or wraps) a resource quantity ParseError.
func IsParse(err error) bool {
	var pe *resources.ParseError
	return errors.As(err, &pe)
}
