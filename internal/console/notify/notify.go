// Package notify delivers one-line operator notices and best-effort
// desktop notifications for incoming calls.
package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
)

// Notices fans operator notices out to subscribers over a bounded
// buffer. A slow subscriber drops notices rather than blocking call
// handling; drops are counted.
type Notices struct {
	mu      sync.Mutex
	subs    []chan string
	size    int
	dropped int
	closed  bool
}

// NewNotices creates a notice publisher with the given per-subscriber
// buffer size.
func NewNotices(size int) *Notices {
	if size <= 0 {
		size = 16
	}
	return &Notices{size: size}
}

// Publish delivers a notice to every subscriber.
func (n *Notices) Publish(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	for _, ch := range n.subs {
		select {
		case ch <- message:
		default:
			n.dropped++
		}
	}
	slog.Info("[Notify] Notice", "message", message)
}

// Subscribe returns a channel of notices and an unsubscribe function.
func (n *Notices) Subscribe() (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan string, n.size)
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	n.subs = append(n.subs, ch)

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, sub := range n.subs {
			if sub == ch {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

// DroppedCount returns how many notices were dropped on full buffers.
func (n *Notices) DroppedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// Close closes all subscriber channels.
func (n *Notices) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}

// DesktopNotifier raises an OS notification for incoming calls.
// Environment failures (no notification daemon, permission denied)
// degrade to a debug log; call handling is never affected.
type DesktopNotifier struct {
	Title string
}

// NewDesktopNotifier creates a desktop notifier with the given title.
func NewDesktopNotifier(title string) *DesktopNotifier {
	if title == "" {
		title = "Lineboard"
	}
	return &DesktopNotifier{Title: title}
}

// IncomingCall raises a notification naming the caller.
func (d *DesktopNotifier) IncomingCall(caller string) {
	if err := beeep.Notify(d.Title, "Caller: "+caller, ""); err != nil {
		slog.Debug("[Notify] Desktop notification unavailable", "error", err)
	}
}

// NopNotifier discards incoming-call notifications.
type NopNotifier struct{}

// IncomingCall implements the notifier surface as a no-op.
func (NopNotifier) IncomingCall(string) {}
