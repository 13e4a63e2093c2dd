// Package errors provides the structured error type shared by the navigation
// core and its collaborators. Every error carries a Kind so HTTP handlers, the
// CLI and MCP tools can classify failures without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Kind classifies a NavError.
type Kind string

const (
	KindUnknownCatalogEntry   Kind = "unknown_catalog_entry"
	KindNoContentForSelection Kind = "no_content_for_selection"
	KindInvalidSubTopic       Kind = "invalid_sub_topic"
	KindReentrantNavigation   Kind = "reentrant_navigation"
	KindContentNotFound       Kind = "content_not_found"
	KindRenderFailed          Kind = "render_failed"
	KindMalformedURL          Kind = "malformed_url"
	KindInvalidManifest       Kind = "invalid_manifest"
	KindInternal              Kind = "internal"
)

// Sentinels for errors.Is. Any NavError of the same Kind matches.
var (
	ErrUnknownCatalogEntry   = &NavError{Kind: KindUnknownCatalogEntry, Message: "unknown catalog entry"}
	ErrNoContentForSelection = &NavError{Kind: KindNoContentForSelection, Message: "no content for selection"}
	ErrInvalidSubTopic       = &NavError{Kind: KindInvalidSubTopic, Message: "invalid sub-topic"}
	ErrReentrantNavigation   = &NavError{Kind: KindReentrantNavigation, Message: "navigation during broadcast"}
	ErrContentNotFound       = &NavError{Kind: KindContentNotFound, Message: "content not found"}
	ErrRenderFailed          = &NavError{Kind: KindRenderFailed, Message: "render failed"}
	ErrMalformedURL          = &NavError{Kind: KindMalformedURL, Message: "malformed url"}
	ErrInvalidManifest       = &NavError{Kind: KindInvalidManifest, Message: "invalid manifest"}
)

// ContextFields carries structured context for a NavError.
type ContextFields map[string]any

// NavError is a structured error with a kind, a message and optional context.
type NavError struct {
	Kind    Kind          `json:"kind"`
	Message string        `json:"message"`
	Cause   error         `json:"-"`
	Context ContextFields `json:"context,omitempty"`
}

func (e *NavError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if len(e.Context) > 0 {
		b.WriteString(" [")
		for i, k := range slices.Sorted(maps.Keys(e.Context)) {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteByte(']')
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *NavError) Unwrap() error {
	return e.Cause
}

// Is reports kind equality so callers can test against the sentinels.
func (e *NavError) Is(target error) bool {
	t, ok := target.(*NavError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithContext adds a context field and returns the receiver.
func (e *NavError) WithContext(key string, value any) *NavError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a NavError of the given kind.
func New(kind Kind, message string) *NavError {
	return &NavError{Kind: kind, Message: message}
}

// Wrap creates a NavError that wraps cause.
func Wrap(cause error, kind Kind, message string) *NavError {
	return &NavError{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err, or anything it wraps, is a NavError of kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// GetKind extracts the kind from err, or KindInternal when err carries none.
func GetKind(err error) Kind {
	var ne *NavError
	if stderrors.As(err, &ne) {
		return ne.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response status used by the HTTP layer.
func HTTPStatus(err error) int {
	switch GetKind(err) {
	case KindUnknownCatalogEntry, KindContentNotFound, KindMalformedURL:
		return http.StatusNotFound
	case KindNoContentForSelection, KindInvalidSubTopic:
		return http.StatusUnprocessableEntity
	case KindReentrantNavigation:
		return http.StatusConflict
	case KindInvalidManifest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
