package store

import "github.com/YuminosukeSato/rulconform/pkg/errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
)
