// Package services implements the driving port interfaces.
// Services contain the core business logic: token lifecycle management,
// the OAuth login flow, the sync engine, and the sync scheduler. They
// orchestrate calls to driven ports (adapters) and own all timing and
// concurrency coordination.
package services
