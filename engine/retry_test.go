package engine

import (
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// TestClientReadRetryBudgetExhausted verifies the retry contract of
// defaultOnTimeout: a silent peer gets exactly Retries+1 transmissions of
// the request before the Operation fails with CommunicationError.
func TestClientReadRetryBudgetExhausted(t *testing.T) {
	deaf, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer deaf.Close()

	var received int32
	stop := make(chan struct{})
	go func() {
		buf := make([]byte, 65535)
		for {
			select {
			case <-stop:
				return
			default:
			}
			deaf.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
			if _, _, err := deaf.ReadFromUDP(buf); err == nil {
				atomic.AddInt32(&received, 1)
			}
		}
	}()

	cfg := DefaultConfiguration()
	cfg.Timeout = 40 * time.Millisecond
	cfg.Retries = 2

	sink := newMemSink()
	op, err := NewClientRead(cfg).
		Remote(deaf.LocalAddr().(*net.UDPAddr)).
		Filename("nowhere").
		DataSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := op.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	status, info := op.Wait()
	close(stop)

	if status != CommunicationError {
		t.Fatalf("status = %v, want CommunicationError", status)
	}
	if info == nil || info.Message == "" {
		t.Fatalf("expected non-empty error info")
	}
	if got, want := atomic.LoadInt32(&received), int32(cfg.Retries+1); got != want {
		t.Fatalf("peer observed %d transmissions, want %d", got, want)
	}
}
