// Package apperr описывает ошибки бизнес-уровня с категорией,
// по которой HTTP-слой выбирает код ответа.
package apperr

import "errors"

// Kind — категория ошибки.
type Kind int

const (
	// KindInternal — непредвиденная ошибка, отдаётся как 500.
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error — ошибка с категорией и сообщением, безопасным для клиента.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation возвращает ошибку некорректного запроса.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Unauthorized возвращает ошибку аутентификации.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden возвращает ошибку авторизации.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound возвращает ошибку отсутствующего ресурса.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict возвращает ошибку конфликта состояния.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Wrap оборачивает err в ошибку заданной категории.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf возвращает категорию ошибки; для посторонних ошибок — KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is сообщает, относится ли err к категории kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message возвращает сообщение для клиента.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
