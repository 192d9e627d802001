package entity

import (
	"errors"
	"fmt"
)

var (
	ErrDataNotFound = errors.New("data not found")
	ErrInvalidData  = errors.New("invalid data")

	ErrEmptyCart            = fmt.Errorf("%w: cart is empty", ErrInvalidData)
	ErrUnknownMenuItem      = fmt.Errorf("%w: unknown menu item", ErrInvalidData)
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrProviderTransport    = errors.New("payment provider request failed")
	ErrOrderCreationFailed  = errors.New("order creation failed")
	ErrTooManyPendingOrders = errors.New("too many pending orders")
	ErrOrderNotFound        = fmt.Errorf("pending order %w", ErrDataNotFound)
	ErrSignatureMismatch    = errors.New("signature mismatch")
	ErrPaymentIncomplete    = errors.New("payment not completed")
	ErrPaymentMismatch      = errors.New("payment does not match pending order")
	ErrMissingSignature     = errors.New("missing signature header")
	ErrMalformedEvent       = fmt.Errorf("%w: malformed webhook event", ErrInvalidData)
)
