package notifier

import "context"

// DeliveryResult is the outcome of one best-effort message. Failures are
// values, not errors: FallbackLink is always populated so a human can send
// the message by hand.
type DeliveryResult struct {
	Delivered    bool   `json:"delivered"`
	MessageID    string `json:"message_id,omitempty"`
	FallbackLink string `json:"fallback_link"`
	Error        string `json:"error,omitempty"`
}

// Notifier delivers a message to a recipient handle. Implementations must not
// block past their own timeout and must never fail: transport problems are
// captured into the returned DeliveryResult.
type Notifier interface {
	Notify(ctx context.Context, recipientHandle, body string) DeliveryResult
}
