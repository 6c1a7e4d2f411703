package service

import "errors"

var (
	ErrNotConnected     = errors.New("not connected to a database")
	ErrAlreadyConnected = errors.New("already connected")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotFound         = errors.New("not found")
	ErrUnsafeInstall    = errors.New("dependencies are not verified")
)
