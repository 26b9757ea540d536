// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"visualizer/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Band Count        | uint16         | 2            | Number of floats (N)    |
| Bar Heights       | []float32      | N * 4        | Smoothed band values    |
+-----------------------------------------------------------------------------+

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |  Band Count   |       Bar Heights       |
|      (uint32)     |        (int64)        |    (uint16)   |      (N * float32)      |
+-------------------+-----------------------+---------------+-------------------------+
*/

// HeaderSize is the size of the fixed part of a packet.
const HeaderSize = 4 + 8 + 2

// MaxBands is the largest band count a packet can carry.
const MaxBands = math.MaxUint16

var ErrShortPacket = errors.New("short packet")

// Packet is a decoded datagram.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Bands     []float32
}

// AppendPacket encodes f onto dst and returns the extended slice.
func AppendPacket(dst []byte, f *transport.Frame) ([]byte, error) {
	if len(f.Bands) > MaxBands {
		return dst, fmt.Errorf("%d bands do not fit in a packet", len(f.Bands))
	}
	dst = binary.BigEndian.AppendUint32(dst, f.Seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(f.Timestamp.UnixNano()))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(f.Bands)))
	for _, v := range f.Bands {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst, nil
}

// DecodePacket parses a datagram. The band count must match the payload.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	p := Packet{
		Seq:       binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	payload := b[HeaderSize:]
	if len(payload) != n*4 {
		return Packet{}, fmt.Errorf("%w: %d bands announced, %d payload bytes", ErrShortPacket, n, len(payload))
	}
	p.Bands = make([]float32, n)
	for i := range p.Bands {
		p.Bands[i] = math.Float32frombits(binary.BigEndian.Uint32(payload[i*4:]))
	}
	return p, nil
}
