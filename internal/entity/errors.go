package entity

import "errors"

// Error kinds shared across the store, the assistant client and the HTTP layer.
var (
	ErrNotFound  = errors.New("not found")
	ErrDecode    = errors.New("response shape mismatch")
	ErrStore     = errors.New("store operation failed")
	ErrTransport = errors.New("transport failure")
)
