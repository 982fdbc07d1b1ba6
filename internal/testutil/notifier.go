package testutil

import (
	"context"
	"sync"

	portnotifier "github.com/alanyang/prodline/internal/port/notifier"
)

// NotifyCall records a single message handed to CaptureNotifier.
type NotifyCall struct {
	Handle string
	Body   string
}

// CaptureNotifier is a test double for port/notifier.Notifier. It records
// every call and reports delivery according to Fail. Safe for concurrent use.
type CaptureNotifier struct {
	mu    sync.Mutex
	Calls []NotifyCall
	// Fail makes every Notify report a failed delivery.
	Fail bool
}

var _ portnotifier.Notifier = (*CaptureNotifier)(nil)

func (c *CaptureNotifier) Notify(_ context.Context, handle, body string) portnotifier.DeliveryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, NotifyCall{Handle: handle, Body: body})

	res := portnotifier.DeliveryResult{FallbackLink: "https://wa.me/" + handle}
	if c.Fail {
		res.Error = "capture: forced failure"
		return res
	}
	res.Delivered = true
	res.MessageID = "captured"
	return res
}

// For returns every call made to handle.
func (c *CaptureNotifier) For(handle string) []NotifyCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []NotifyCall
	for _, call := range c.Calls {
		if call.Handle == handle {
			out = append(out, call)
		}
	}
	return out
}

func (c *CaptureNotifier) Reset() {
	c.mu.Lock()
	c.Calls = nil
	c.mu.Unlock()
}
