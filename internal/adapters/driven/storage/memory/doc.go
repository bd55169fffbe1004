// Package memory provides in-memory implementations of the driven
// storage ports. The OAuth state store here is the production
// implementation (login state is ephemeral by design and cleared on
// restart); the remaining stores are used in tests.
package memory
