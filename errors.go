package authkit

import "errors"

var (
	ErrUnknownStore = errors.New("authkit.unknown_store")
	ErrStoreOpen    = errors.New("authkit.store_open")
	ErrRoutes       = errors.New("authkit.routes")
)
