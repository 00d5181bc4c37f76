package repositories

import (
	"errors"
)

var (
	ErrServerNotFound = errors.New("the requested server was not found")
)
