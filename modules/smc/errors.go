package smc

import "errors"

var (
	// ErrHandleInvalid is returned once the controller handle is nil or a
	// previous open/close on it failed. It never becomes valid again.
	ErrHandleInvalid = errors.New("smc: controller handle invalid")

	// ErrTransactionFailed is returned when the structured call itself fails.
	ErrTransactionFailed = errors.New("smc: transaction failed")

	ErrKeyAbsent       = errors.New("smc: key absent")
	ErrUnknownEncoding = errors.New("smc: unknown data type")
	ErrShortValue      = errors.New("smc: value shorter than its data type")
)
