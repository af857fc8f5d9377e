package timeline

import "errors"

var (
	// ErrUnknownEventType indicates a tag outside the recognized vocabulary.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrPayloadMismatch indicates the payload does not carry the item the
	// event type calls for.
	ErrPayloadMismatch = errors.New("payload does not match event type")

	// ErrEntryNotFound indicates the entry is not in the local cache.
	ErrEntryNotFound = errors.New("timeline entry not found")
)
