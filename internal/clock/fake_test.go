package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresInDeadlineOrder(t *testing.T) {
	c := Fake(epoch)
	var order []string
	c.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })

	c.Advance(250 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order after 250ms = %v, want [a b]", order)
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}

	c.Advance(50 * time.Millisecond)
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("order after 300ms = %v, want [a b c]", order)
	}
	if got := c.Now(); !got.Equal(epoch.Add(300 * time.Millisecond)) {
		t.Errorf("Now() = %v, want %v", got, epoch.Add(300*time.Millisecond))
	}
}

func TestFakeStop(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() on pending timer = false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeNowInsideCallback(t *testing.T) {
	c := Fake(epoch)
	var seen time.Time
	c.AfterFunc(time.Second, func() { seen = c.Now() })
	c.Advance(5 * time.Second)
	if !seen.Equal(epoch.Add(time.Second)) {
		t.Errorf("Now() inside callback = %v, want %v", seen, epoch.Add(time.Second))
	}
}

func TestFakeChainedCallbacks(t *testing.T) {
	c := Fake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.AfterFunc(time.Second, func() { close(done) })
	}()

	c.WaitForTimers(1)
	c.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire")
	}
}
