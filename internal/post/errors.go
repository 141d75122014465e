package post

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("post not found")
	ErrExpired         = errors.New("post expired")
	ErrSelfInteraction = errors.New("owner cannot react to their own post")
	// ErrVersionConflict is returned by Store.Save when the stored version moved on.
	ErrVersionConflict = errors.New("post version conflict")
)
