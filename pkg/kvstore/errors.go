package kvstore

import "errors"

var (
	ErrEmptyKey      = errors.New("kvstore.empty_key")
	ErrEmptyPath     = errors.New("kvstore.empty_path")
	ErrCorruptFile   = errors.New("kvstore.corrupt_file")
	ErrRedisURL      = errors.New("kvstore.invalid_redis_url")
	ErrRedisNotReady = errors.New("kvstore.redis_not_ready")
	ErrSQLiteOpen    = errors.New("kvstore.sqlite_open")
	ErrHealthcheck   = errors.New("kvstore.healthcheck_failed")
)
