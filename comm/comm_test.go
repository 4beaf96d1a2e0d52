package comm_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/candelalabs/gencam/comm"
)

// startEcho runs a TCP echo server on an ephemeral port and returns its
// address.
func startEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go io.Copy(conn, conn)
		}
	}()
	return ln.Addr().String()
}

func TestRemoteDeviceSendRecv(t *testing.T) {
	addr := startEcho(t)
	rd := comm.NewRemoteDevice(addr, false, nil, nil)
	if err := rd.Open(); err != nil {
		t.Fatal(err)
	}
	defer rd.Close()
	resp, err := rd.SendRecv([]byte("*IDN?"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "*IDN?" {
		t.Errorf("expected echo of *IDN?, got %q", resp)
	}
}

func TestRemoteDeviceCustomTerminators(t *testing.T) {
	addr := startEcho(t)
	terms := comm.Terminators{Rx: '\n', Tx: '\n'}
	rd := comm.NewRemoteDevice(addr, false, &terms, nil)
	if rd.TxTerminator() != '\n' || rd.RxTerminator() != '\n' {
		t.Fatal("expected newline terminators")
	}
	if err := rd.Open(); err != nil {
		t.Fatal(err)
	}
	defer rd.Close()
	resp, err := rd.SendRecv([]byte("PULSE 5"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "PULSE 5" {
		t.Errorf("expected echo of PULSE 5, got %q", resp)
	}
}

func TestRemoteDeviceNotConnected(t *testing.T) {
	rd := comm.NewRemoteDevice("127.0.0.1:1", false, nil, nil)
	if err := rd.Send([]byte("x")); err != comm.ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := rd.Recv(); err != comm.ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestRemoteDeviceSerialWithoutConf(t *testing.T) {
	rd := comm.NewRemoteDevice("/dev/ttyUSB9", true, nil, nil)
	err := rd.Open()
	if err == nil {
		t.Fatal("expected error opening serial device without config, got nil")
	}
}

func TestCloseEventually(t *testing.T) {
	addr := startEcho(t)
	rd := comm.NewRemoteDevice(addr, false, nil, nil)
	rd.Timeout = 50 * time.Millisecond
	if err := rd.Open(); err != nil {
		t.Fatal(err)
	}
	rd.CloseEventually()
	time.Sleep(200 * time.Millisecond)
	rd.Lock()
	conn := rd.Conn
	rd.Unlock()
	if conn != nil {
		t.Error("expected connection freed after the grace period")
	}
	// reopening must work
	if err := rd.Open(); err != nil {
		t.Fatal(err)
	}
	rd.Close()
}

func TestPoolToCapacity(t *testing.T) {
	addr := startEcho(t)
	pool := comm.NewPool(3, time.Minute, comm.BackingOffTCPConnMaker(addr, time.Second))
	for i := 0; i < 3; i++ {
		if _, err := pool.Get(); err != nil {
			t.Fatalf("connection %d: %v", i+1, err)
		}
	}
	if pool.Size() != 3 {
		t.Errorf("expected size 3, got %d", pool.Size())
	}
	if pool.Active() != 3 {
		t.Errorf("expected 3 active, got %d", pool.Active())
	}
}

func TestPoolReusesConnections(t *testing.T) {
	addr := startEcho(t)
	pool := comm.NewPool(3, time.Minute, comm.BackingOffTCPConnMaker(addr, time.Second))
	for i := 0; i < 3; i++ {
		conn, err := pool.Get()
		if err != nil {
			t.Fatalf("connection %d: %v", i+1, err)
		}
		pool.Put(conn)
	}
	// serialized get/put reuses one underlying connection
	if pool.Size() != 1 {
		t.Errorf("expected size 1, got %d", pool.Size())
	}
}

func TestPoolExpiresIdleConnections(t *testing.T) {
	addr := startEcho(t)
	pool := comm.NewPool(2, 50*time.Millisecond, comm.BackingOffTCPConnMaker(addr, time.Second))
	conn, err := pool.Get()
	if err != nil {
		t.Fatal(err)
	}
	pool.Put(conn)
	time.Sleep(300 * time.Millisecond)
	if pool.Size() != 0 {
		t.Errorf("expected idle pool drained, size %d", pool.Size())
	}
}

func TestPoolBlocksAtCapacity(t *testing.T) {
	addr := startEcho(t)
	pool := comm.NewPool(1, time.Minute, comm.BackingOffTCPConnMaker(addr, time.Second))
	first, err := pool.Get()
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan io.ReadWriter, 1)
	go func() {
		rw, _ := pool.Get()
		got <- rw
	}()
	select {
	case <-got:
		t.Fatal("expected Get to block while the pool is exhausted")
	case <-time.After(200 * time.Millisecond):
	}
	pool.Put(first)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Get to complete after Put")
	}
}

func TestPoolDestroy(t *testing.T) {
	addr := startEcho(t)
	pool := comm.NewPool(2, time.Minute, comm.BackingOffTCPConnMaker(addr, time.Second))
	conn, err := pool.Get()
	if err != nil {
		t.Fatal(err)
	}
	pool.Destroy(conn)
	if pool.Size() != 0 {
		t.Errorf("expected size 0 after destroy, got %d", pool.Size())
	}
}
