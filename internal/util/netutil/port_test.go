package netutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

func listenLocal(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start listener: %v", err)
	}
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to split host/port: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return ln, port
}

func TestCheckPort_Open(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	if err := CheckPort(context.Background(), "127.0.0.1", port, time.Second); err != nil {
		t.Errorf("CheckPort failed for open port: %v", err)
	}
}

func TestCheckPort_Closed(t *testing.T) {
	ln, port := listenLocal(t)
	ln.Close() // release it so nothing listens

	err := CheckPort(context.Background(), "127.0.0.1", port, 200*time.Millisecond)
	if err == nil {
		t.Fatal("Expected error for closed port, got nil")
	}
}

func TestCheckPort_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := CheckPort(ctx, "127.0.0.1", 1, 0); err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}
