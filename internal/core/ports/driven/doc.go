// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - TokenStore: Durable token persistence (atomic writes)
//   - OAuthStateStore: Pending login state for CSRF protection
//   - SnapshotStore: The local launcher config document and its sync metadata
//   - ConfigStore: Application configuration
//   - AuthAPI: Token exchange/refresh and profile fetch
//   - SettingsAPI: Remote settings upload/download
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SyncHistoryStore: Persisted sync attempt history
//   - Notifier: Status events surfaced to the presentation layer
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
