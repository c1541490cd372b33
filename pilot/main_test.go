package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollStopCancelsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tripped atomic.Bool
	go pollStop(ctx, cancel, tripped.Load, time.Millisecond)

	tripped.Store(true)
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("tripped stop check did not cancel the context")
	}
}

func TestPollStopExitsOnExternalCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		pollStop(ctx, cancel, func() bool { return false }, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not exit after cancellation")
	}
}
