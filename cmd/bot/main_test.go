package main

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchShutdown_OneSignalReleasesAllWaiters(t *testing.T) {
	sig := make(chan os.Signal, 1)
	done := watchShutdown(sig)

	var wg sync.WaitGroup
	released := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-done
			released <- struct{}{}
		}()
	}

	sig <- syscall.SIGTERM
	wg.Wait()
	require.Len(t, released, 3)
}

func TestWatchShutdown_NoSignalKeepsWaiting(t *testing.T) {
	done := watchShutdown(make(chan os.Signal, 1))

	select {
	case <-done:
		t.Fatal("shutdown channel closed without a signal")
	case <-time.After(50 * time.Millisecond):
	}
}
