package highlight

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestActivityWaitSeesRecordedActivity(t *testing.T) {
	activity := NewActivity(&fakeClock{})
	since := time.Unix(100, 0)

	done := make(chan bool)
	go func() {
		done <- activity.Wait(context.Background(), "c1", "u1", since, time.Minute)
	}()

	activity.Record("c1", "u2", since.Add(time.Second))
	activity.Record("c2", "u1", since.Add(time.Second))
	activity.Record("c1", "u1", since.Add(time.Second))

	select {
	case seen := <-done:
		if !seen {
			t.Fatalf("expected activity to be seen")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("wait did not return after activity")
	}
}

func TestActivityWaitTimesOut(t *testing.T) {
	activity := NewActivity(&fakeClock{expire: true})
	if activity.Wait(context.Background(), "c1", "u1", time.Unix(100, 0), time.Second) {
		t.Fatalf("expected timeout without activity")
	}
}

func TestActivityWaitUsesEarlierRecord(t *testing.T) {
	activity := NewActivity(&fakeClock{})
	since := time.Unix(100, 0)
	activity.Record("c1", "u1", since)

	if !activity.Wait(context.Background(), "c1", "u1", since, time.Minute) {
		t.Fatalf("expected activity recorded at arrival time to count")
	}
}

func TestActivityWaitHonoursContext(t *testing.T) {
	activity := NewActivity(&fakeClock{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if activity.Wait(ctx, "c1", "u1", time.Unix(100, 0), time.Minute) {
		t.Fatalf("expected cancelled wait to report no activity")
	}
}

func TestActivityPrunesStaleEntries(t *testing.T) {
	activity := NewActivity(&fakeClock{})
	old := time.Unix(0, 0)
	for i := 0; i < 1100; i++ {
		activity.Record("c1", fmt.Sprintf("u%d", i), old)
	}
	activity.Record("c1", "fresh", old.Add(time.Hour))

	activity.mu.Lock()
	remaining := len(activity.last)
	activity.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("expected stale entries pruned, %d left", remaining)
	}
}
