package repo

import "errors"

var (
	ErrNotFound        = errors.New("key not found")
	ErrVersionConflict = errors.New("version conflict")
)

// Versions start at 1 for a freshly created key. Passing expected=0 to Put
// means "create only" and fails with ErrVersionConflict if the key exists.
