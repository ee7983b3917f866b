package mailer

// Notifier delivers a message to an address. Delivery is best-effort: the
// caller's business outcome never depends on it succeeding.
type Notifier interface {
	Send(to, subject, body string) error
}
