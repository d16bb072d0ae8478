package notify

import "testing"

func TestPublishReachesEverySubscriber(t *testing.T) {
	n := NewNotices(4)

	a, unsubA := n.Subscribe()
	b, unsubB := n.Subscribe()
	defer unsubA()
	defer unsubB()

	n.Publish("line busy")

	for name, ch := range map[string]<-chan string{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got != "line busy" {
				t.Errorf("subscriber %s got %q, want %q", name, got, "line busy")
			}
		default:
			t.Errorf("subscriber %s received nothing", name)
		}
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	n := NewNotices(1)

	_, unsub := n.Subscribe()
	defer unsub()

	n.Publish("first")
	n.Publish("second")

	if got := n.DroppedCount(); got != 1 {
		t.Errorf("DroppedCount() = %d, want 1", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	n := NewNotices(4)

	ch, unsub := n.Subscribe()
	unsub()

	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}

	// Publishing after unsubscribe must not panic or deliver.
	n.Publish("late")
}

func TestCloseEndsSubscriptions(t *testing.T) {
	n := NewNotices(4)

	ch, _ := n.Subscribe()
	n.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}

	// Subscribe after close yields a closed channel.
	late, _ := n.Subscribe()
	if _, ok := <-late; ok {
		t.Error("post-close subscription not closed")
	}

	n.Publish("ignored")
	if got := n.DroppedCount(); got != 0 {
		t.Errorf("DroppedCount() = %d after close, want 0", got)
	}
}
