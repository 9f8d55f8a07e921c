package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotificationUnavailable dikembalikan Publish saat channel notifikasi belum terhubung.
// Mutasi order tidak boleh gagal karena error ini.
var ErrNotificationUnavailable = errors.New("notification channel not connected")

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// InvalidTransitionError: order sudah tidak pending (completed / cancelled).
type InvalidTransitionError struct {
	OrderID uint
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("order %d is %s and can no longer be modified", e.OrderID, e.From)
	}
	return fmt.Sprintf("order %d cannot transition from %s to %s", e.OrderID, e.From, e.To)
}

func NewInvalidTransitionError(orderID uint, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{OrderID: orderID, From: from, To: to}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	var it *InvalidTransitionError
	if errors.As(err, &it) {
		return it, true
	}
	return nil, false
}

// ConflictError: versi order sudah berubah sejak dibaca oleh pemanggil.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// StoreError membungkus kegagalan data store. Err adalah penyebab utama;
// Compensation diisi kalau langkah rollback kompensasi juga gagal.
type StoreError struct {
	Op           string
	Err          error
	Compensation error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Compensation != nil {
		msg += fmt.Sprintf(" (compensation failed: %v)", e.Compensation)
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func IsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
