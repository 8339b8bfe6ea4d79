// Package sw implements the cache-first offline asset service behind the
// generated service worker: generation-tagged durable stores populated by an
// all-or-nothing install, and a fetch dispatcher that answers from the active
// generation or passes through to the network.
package sw

import "errors"

var (
	// ErrManifestAssetUnavailable aborts an install when any manifest URL
	// cannot be fetched with a success status.
	ErrManifestAssetUnavailable = errors.New("manifest asset unavailable")

	// ErrNetworkUnavailable is reported when a cache-miss passthrough fetch
	// fails at the transport level.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrInvalidState is returned when a lifecycle transition is requested
	// out of order (e.g. Activate before a successful Install).
	ErrInvalidState = errors.New("invalid lifecycle state")
)
