// Package editoradapter talks to an optional editor plugin over HTTP,
// exposing it as a scoped ambient: tools running within an active scope
// see the adapter's EditorContextV1 via CurrentContext; tools outside the
// scope see none. It also implements the HTTP client used to query the
// adapter for definitions, references, hover, symbols, diagnostics, and
// buffer state. net/http is the client transport here: no HTTP client
// library appears anywhere across the retrieved example repos, so the
// standard library is the only grounded choice, matching the original's
// reqwest usage 1:1 in behavior.
package editoradapter

import "errors"

// Sentinel errors identify why a Client call or context validation failed.
var (
	// ErrUnreachableEndpoint means the adapter's base_url did not respond.
	ErrUnreachableEndpoint = errors.New("editoradapter: endpoint unreachable")
	// ErrUnsupportedAPIVersion means the context's api_version isn't v1.
	ErrUnsupportedAPIVersion = errors.New("editoradapter: unsupported api_version")
	// ErrBadResponse means the adapter returned a non-2xx status or a body
	// that didn't parse as the expected shape.
	ErrBadResponse = errors.New("editoradapter: bad response")
	// ErrNoEndpoint means the context's base_url is empty, so no client
	// can be built from it.
	ErrNoEndpoint = errors.New("editoradapter: no endpoint configured")
)
