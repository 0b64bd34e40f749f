// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrValidation indicates the caller supplied an unusable value.
var ErrValidation = errors.New("validation error")

// ErrNotReady is returned by session operations invoked before the session was opened.
var ErrNotReady = errors.New("invoice session not ready")

// ErrExport indicates the rendering engine failed to produce a document.
var ErrExport = errors.New("export failed")
