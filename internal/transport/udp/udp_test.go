// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"visualizer/internal/transport"
)

func TestPacketLayout(t *testing.T) {
	t.Parallel()
	f := &transport.Frame{
		Seq:       0x01020304,
		Timestamp: time.Unix(0, 0x0A0B0C0D0E0F1011),
		Bands:     []float32{1, -2.5},
	}
	b, err := AppendPacket(nil, f)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11,
		0x00, 0x02,
		0x3F, 0x80, 0x00, 0x00,
		0xC0, 0x20, 0x00, 0x00,
	}
	if !reflect.DeepEqual(b, want) {
		t.Errorf("packet = % x\nexpected % x", b, want)
	}

	p, err := DecodePacket(b)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if p.Seq != f.Seq || p.Timestamp != f.Timestamp.UnixNano() || !reflect.DeepEqual(p.Bands, f.Bands) {
		t.Errorf("decoded %+v", p)
	}
}

func TestDecodePacket_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		b    []byte
	}{
		{"Empty", nil},
		{"Header cut", make([]byte, HeaderSize-1)},
		{"Payload shorter than count", append(make([]byte, 12), 0x00, 0x02, 0, 0, 0, 0)},
		{"Payload longer than count", append(make([]byte, 12), 0x00, 0x00, 0, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePacket(tt.b); !errors.Is(err, ErrShortPacket) {
				t.Errorf("error = %v; expected ErrShortPacket", err)
			}
		})
	}
}

func TestAppendPacket_TooManyBands(t *testing.T) {
	t.Parallel()
	if _, err := AppendPacket(nil, &transport.Frame{Bands: make([]float32, MaxBands+1)}); err == nil {
		t.Error("expected error for an oversized frame")
	}
}

func TestUDPSender(t *testing.T) {
	t.Parallel()
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	s, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}

	f := &transport.Frame{Seq: 3, Timestamp: time.Unix(1700000000, 5), Bands: []float32{0, 20, 80}}
	if err := s.Send(f); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 1500)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	p, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatal(err)
	}
	if p.Seq != 3 || p.Timestamp != f.Timestamp.UnixNano() || !reflect.DeepEqual(p.Bands, f.Bands) {
		t.Errorf("received %+v", p)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Send(f); err == nil {
		t.Error("expected error sending on a closed sender")
	}
}

func TestNewUDPSender_BadAddress(t *testing.T) {
	t.Parallel()
	if _, err := NewUDPSender("not an address"); err == nil {
		t.Error("expected error")
	}
}

func TestAppendPacket_NoAllocs(t *testing.T) {
	f := &transport.Frame{Bands: make([]float32, 64)}
	buf := make([]byte, 0, HeaderSize+4*64)
	allocs := testing.AllocsPerRun(100, func() {
		buf, _ = AppendPacket(buf[:0], f)
	})
	if allocs > 0 {
		t.Errorf("AppendPacket allocated: got %.1f allocs, want 0", allocs)
	}
}
