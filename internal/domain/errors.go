package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrPriceNotConfigured indicates no price source knows the product.
	ErrPriceNotConfigured = errors.New("price not configured")
	// ErrInvalidVariant indicates a malformed variant selector.
	ErrInvalidVariant = errors.New("invalid variant selector")
	// ErrInvalidContentKey indicates a content key that does not follow the product key schema.
	ErrInvalidContentKey = errors.New("invalid content key")
	// ErrNoSession indicates an operation that needs a remote session was called without one.
	ErrNoSession = errors.New("no session")
)
