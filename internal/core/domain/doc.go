// Package domain defines the core business entities for Launchdeck.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Token: Stored OAuth credentials with expiry
//   - OAuthState: Ephemeral CSRF state for a pending login
//   - ConfigSnapshot: The launcher pages/appearance/advanced document
//   - SyncMetadata: Provenance of the local snapshot
//   - DeviceIdentity: This install's identity stamped into sync metadata
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
