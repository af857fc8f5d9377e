package project

import "errors"

var (
	// ErrProjectNotFound indicates the project exists neither remotely nor
	// in the local cache.
	ErrProjectNotFound = errors.New("project not found")
)
