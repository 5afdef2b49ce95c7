//go:build !windows

package main

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestSignalContext_CancelledBySignal(t *testing.T) {
	ctx, stop := signalContext(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}

func TestSignalContext_Stop(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()

	ctx, stop := signalContext(parent)
	if ctx.Err() != nil {
		t.Fatal("context cancelled before stop")
	}
	stop()
	if ctx.Err() == nil {
		t.Error("context not cancelled by stop")
	}
	if parent.Err() != nil {
		t.Error("stop cancelled the parent context")
	}
	// stop is idempotent
	stop()
}
