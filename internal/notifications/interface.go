package notifications

// Notifier receives out-of-band alerts for position closes and rotation
// batches. Levels are "info", "warning", "error" and "success".
type Notifier interface {
	SendAlert(level, message string) error
}

// Nop is a Notifier that discards every alert.
type Nop struct{}

func (Nop) SendAlert(level, message string) error { return nil }
