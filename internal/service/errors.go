package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/stores_api/internal/hash"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrInternal    = errors.New("internal error")
)

const (
	MsgItemNotFound    = "Item not found"
	MsgItemDeleted     = "Item deleted."
	MsgItemInsertError = "An error occurred while inserting the item."
	MsgStoreNotFound   = "Store not found."
	MsgStoreDeleted    = "Store deleted."
	MsgStoreInsertErr  = "An error occurred while creating the store."
	MsgUserCreated     = "User created successfully."
	MsgUserNotFound    = "User not found."
	MsgUserDeleted     = "User deleted."
	MsgLoggedOut       = "Successfully logged out."
	MsgSearchDisabled  = "Search is not available."
	MsgInternal        = "Internal server error."
)

// Error carries a client-facing message next to one of the sentinel kinds
// above; errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func blank(field string) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf("'%s' cannot be left blank.", field)}
}

func tooLongPassword(err error) *Error {
	return &Error{
		Kind:    ErrValidation,
		Message: fmt.Sprintf("'password' cannot be longer than %d bytes.", hash.MaxPasswordBytes),
		Err:     err,
	}
}

func unknownStore(id uint, err error) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf("'store_id' %d does not reference an existing store.", id), Err: err}
}

func notFound(msg string, err error) *Error {
	return &Error{Kind: ErrNotFound, Message: msg, Err: err}
}

func conflict(msg string, err error) *Error {
	return &Error{Kind: ErrConflict, Message: msg, Err: err}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}
