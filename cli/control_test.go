package cli

import (
	"testing"
	"time"
)

func TestControl_PauseResume(t *testing.T) {
	c := NewControl()
	stepped := make(chan bool)
	go func() {
		for c.CheckPause() {
			select {
			case stepped <- true:
			default:
			}
			time.Sleep(time.Millisecond)
		}
		close(stepped)
	}()

	c.RequestPause()
	if !c.IsPaused() {
		t.Fatal("expected paused after RequestPause returns")
	}
	c.RequestResume()
	if c.IsPaused() {
		t.Error("expected running after resume")
	}
	c.Stop()
	for range stepped {
	}
	if !c.Stopped() {
		t.Error("expected stopped")
	}
}

func TestControl_Toggle(t *testing.T) {
	c := NewControl()
	go func() {
		for c.CheckPause() {
			time.Sleep(time.Millisecond)
		}
	}()
	defer c.Stop()

	if !c.Toggle() {
		t.Error("expected first toggle to pause")
	}
	if c.Toggle() {
		t.Error("expected second toggle to resume")
	}
}

func TestControl_StopReleasesPendingPause(t *testing.T) {
	c := NewControl()
	done := make(chan struct{})
	go func() {
		c.RequestPause()
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected RequestPause to return after Stop")
	}
	if c.CheckPause() {
		t.Error("expected CheckPause false after Stop")
	}
}

func TestControl_PauseAfterStop(t *testing.T) {
	c := NewControl()
	c.Stop()
	c.RequestPause()
	if c.IsPaused() {
		t.Error("expected no pause after stop")
	}
}
