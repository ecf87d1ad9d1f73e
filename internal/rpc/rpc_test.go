package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nrkernel/corekernel/internal/fileio"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	backend := fileio.NewMemoryBackend()
	handler := fileio.NewHandler(backend)
	srv := NewServer(handler, 6970, nil)
	if err := srv.Init("127.0.0.1:0"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	go func() { _ = srv.RunServer() }()
	t.Cleanup(func() { _ = srv.Close() })
	return srv, srv.Addr().String()
}

func TestRegistrationHandshake(t *testing.T) {
	_, addr := startTestServer(t)

	client := NewClient(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.JoinCluster(ctx, addr); err != nil {
		t.Fatalf("JoinCluster failed: %v", err)
	}
	if client.ClientID() != 6970 {
		t.Errorf("ClientID() = %d, want 6970", client.ClientID())
	}
}

func TestReadAfterWriteRPC(t *testing.T) {
	_, addr := startTestServer(t)

	client := NewClient(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.JoinCluster(ctx, addr); err != nil {
		t.Fatalf("JoinCluster failed: %v", err)
	}

	fd, err := client.Create(1, "/greeting", 0, 0o644)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := client.WriteAt(1, fd, 0, []byte("hello"))
	if err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if n != 5 {
		t.Errorf("WriteAt returned n=%d, want 5", n)
	}

	data, err := client.ReadAt(1, fd, 0, 5)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("ReadAt = %q, want %q", string(data), "hello")
	}
}

func TestMalformedResponseRejected(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Drain the client's Registration request, then reply with a
		// header claiming msg_len=10 but only 4 payload bytes before
		// closing the connection.
		headerBuf := make([]byte, 25)
		_, _ = conn.Read(headerBuf)

		badHeader := make([]byte, 25)
		badHeader[16] = 1 // msg_type = Registration
		badHeader[17] = 10
		_, _ = conn.Write(badHeader)
		_, _ = conn.Write([]byte{1, 2, 3, 4})
	}()

	client := NewClient(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = client.JoinCluster(ctx, l.Addr().String())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("JoinCluster error = %v, want ErrMalformedResponse", err)
	}
}
