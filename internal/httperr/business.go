package httperr

import "errors"

type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindReferential Kind = "referential"
	KindTransport   Kind = "transport"
	KindPermission  Kind = "permission"
	KindNotFound    Kind = "not_found"
)

type BusinessError struct {
	Kind       Kind
	Code       string
	Suggestion string
	Err        error
}

func (e BusinessError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e BusinessError) Unwrap() error {
	return e.Err
}

// ErrValidation is a rule violation detected before anything is persisted.
func ErrValidation(code string) error {
	return BusinessError{Kind: KindValidation, Code: code}
}

func ErrConflict(code string) error {
	return BusinessError{Kind: KindConflict, Code: code}
}

func ErrReferential(code, suggestion string) error {
	return BusinessError{Kind: KindReferential, Code: code, Suggestion: suggestion}
}

func ErrTransport(code string, cause error) error {
	return BusinessError{Kind: KindTransport, Code: code, Err: cause}
}

func ErrPermission(code string) error {
	return BusinessError{Kind: KindPermission, Code: code}
}

func ErrNotFound(code string) error {
	return BusinessError{Kind: KindNotFound, Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func IsKind(err error, kind Kind) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

func As(err error) (BusinessError, bool) {
	var be BusinessError
	ok := errors.As(err, &be)
	return be, ok
}
