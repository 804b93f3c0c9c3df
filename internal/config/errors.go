package config

import "errors"

var (
	ErrUnknownCacheDriver = errors.New("unknown cache driver")
	ErrInvalidPageSize    = errors.New("page size must be between 1 and 100")
	ErrInvalidExpiry      = errors.New("cache expiry must be positive")
	ErrInvalidRepository  = errors.New("repository must be owner/name")
)
