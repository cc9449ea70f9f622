package ledger

import (
	"fmt"
)

type ErrorCode string

const (
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrSupplyCapReached ErrorCode = "SUPPLY_CAP_REACHED"
	ErrAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	ErrInvalidRecipient ErrorCode = "INVALID_RECIPIENT"
	ErrTooOld           ErrorCode = "TOO_OLD"
	ErrCreatedInFuture  ErrorCode = "CREATED_IN_FUTURE"
	ErrDuplicate        ErrorCode = "DUPLICATE"
	ErrPayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrGeneric          ErrorCode = "GENERIC"
)

// Error is a recoverable, caller-visible operation result. Only store
// failures are returned as plain wrapped errors and abort the call.
type Error struct {
	Code    ErrorCode
	Message string

	// payload fields, set per code
	TokenIDs    []uint64
	DuplicateOf uint64
	LedgerTime  int64
	Cap         uint64
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrUnauthorized, ErrAlreadyExists:
		return fmt.Sprintf("%s %v", e.Code, e.TokenIDs)
	case ErrDuplicate:
		return fmt.Sprintf("%s duplicate of %d", e.Code, e.DuplicateOf)
	case ErrCreatedInFuture:
		return fmt.Sprintf("%s ledger time %d", e.Code, e.LedgerTime)
	case ErrSupplyCapReached:
		return fmt.Sprintf("%s cap %d", e.Code, e.Cap)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

func ErrorUnauthorized(ids []uint64) *Error {
	return &Error{Code: ErrUnauthorized, TokenIDs: ids}
}

func ErrorNotFound(id uint64) *Error {
	return &Error{Code: ErrNotFound, TokenIDs: []uint64{id}}
}

func ErrorSupplyCapReached(cap uint64) *Error {
	return &Error{Code: ErrSupplyCapReached, Cap: cap}
}

func ErrorAlreadyExists(ids []uint64) *Error {
	return &Error{Code: ErrAlreadyExists, TokenIDs: ids}
}

func ErrorInvalidRecipient(msg string) *Error {
	return &Error{Code: ErrInvalidRecipient, Message: msg}
}

func ErrorTooOld() *Error {
	return &Error{Code: ErrTooOld}
}

func ErrorCreatedInFuture(ledgerTime int64) *Error {
	return &Error{Code: ErrCreatedInFuture, LedgerTime: ledgerTime}
}

func ErrorDuplicate(of uint64) *Error {
	return &Error{Code: ErrDuplicate, DuplicateOf: of}
}

func ErrorPayloadTooLarge(msg string) *Error {
	return &Error{Code: ErrPayloadTooLarge, Message: msg}
}

func ErrorGeneric(msg string) *Error {
	return &Error{Code: ErrGeneric, Message: msg}
}
