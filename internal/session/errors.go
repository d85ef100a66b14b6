package session

import "errors"

var (
	// ErrOffline rejects a mutation locally before any network call is made.
	ErrOffline = errors.New("terminal is offline")

	// ErrBusy means another mutation already holds the single in-flight slot.
	ErrBusy = errors.New("another operation is in progress")

	ErrNoCart              = errors.New("no active cart")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProductNotFound     = errors.New("product not found")
	ErrOutOfStock          = errors.New("product is out of stock")
	ErrInsufficientPayment = errors.New("insufficient payment amount")
	ErrMissingCustomerInfo = errors.New("customer name and mobile number are required")
	ErrInvalidPayment      = errors.New("unsupported payment method")
	ErrNotAwaitingPayment  = errors.New("checkout is not awaiting payment details")
	ErrCheckoutActive      = errors.New("checkout already in progress")
)
