package driven

// Notifier surfaces status events to the presentation layer.
// A failed background sync never interrupts the user session; it only
// emits an event here.
type Notifier interface {
	// Send emits an event with an optional payload. Send must not block.
	Send(event string, payload any)
}
