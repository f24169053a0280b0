// Package transport implements the framed request/reply wire format used
// between the daemon and its clients: a byte response is split into
// fixed-capacity chunks on the server and reassembled on the client.
package transport

import (
	"encoding/binary"
	"fmt"
)

// MaxPayloadSize bounds a single chunk frame, metadata included.
const MaxPayloadSize = 4096

// metadataSize accounts for the sequence number, last-chunk flag and
// used-payload-size fields that accompany every chunk's payload.
const metadataSize = 9 // uint32 + bool + uint32

// CAP is the usable payload capacity of a single chunk.
const CAP = MaxPayloadSize - metadataSize

// MessageChunk is one fixed-capacity unit of a framed reply.
type MessageChunk struct {
	SequenceNumber  uint32
	IsLast          bool
	UsedPayloadSize uint32
	Payload         [CAP]byte
}

// Bytes returns the chunk's used portion of the payload.
func (c MessageChunk) Bytes() []byte {
	return c.Payload[:c.UsedPayloadSize]
}

// Split partitions body into chunks of up to CAP payload bytes each,
// numbered from 0 in transmission order, with IsLast set on exactly the
// final chunk. An empty body yields one chunk with UsedPayloadSize 0 and
// IsLast true.
func Split(body []byte) []MessageChunk {
	if len(body) == 0 {
		return []MessageChunk{{SequenceNumber: 0, IsLast: true}}
	}

	n := (len(body) + CAP - 1) / CAP
	chunks := make([]MessageChunk, 0, n)
	for i := 0; i < n; i++ {
		start := i * CAP
		end := start + CAP
		if end > len(body) {
			end = len(body)
		}
		var c MessageChunk
		c.SequenceNumber = uint32(i)
		c.UsedPayloadSize = uint32(end - start)
		copy(c.Payload[:], body[start:end])
		c.IsLast = i == n-1
		chunks = append(chunks, c)
	}
	return chunks
}

// Reassemble orders chunks by SequenceNumber and concatenates their used
// payload slices, regardless of the order they were collected in. It
// returns an error if no chunk with IsLast is present, or if the sequence
// numbers have a gap.
func Reassemble(chunks []MessageChunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("transport: no chunks to reassemble")
	}

	ordered := make([]MessageChunk, len(chunks))
	copy(ordered, chunks)
	sortChunks(ordered)

	haveLast := false
	var out []byte
	for i, c := range ordered {
		if uint32(i) != c.SequenceNumber {
			return nil, fmt.Errorf("transport: missing chunk at sequence %d", i)
		}
		out = append(out, c.Bytes()...)
		if c.IsLast {
			haveLast = true
		}
	}
	if !haveLast {
		return nil, fmt.Errorf("transport: reassembly missing final chunk")
	}
	return out, nil
}

// MarshalBinary encodes c as a fixed MaxPayloadSize-byte frame: the
// sequence number and used-payload-size as big-endian uint32s, the
// is-last flag as one byte, followed by the full payload array.
func (c MessageChunk) MarshalBinary() [MaxPayloadSize]byte {
	var out [MaxPayloadSize]byte
	binary.BigEndian.PutUint32(out[0:4], c.SequenceNumber)
	if c.IsLast {
		out[4] = 1
	}
	binary.BigEndian.PutUint32(out[5:9], c.UsedPayloadSize)
	copy(out[metadataSize:], c.Payload[:])
	return out
}

// UnmarshalChunkBinary decodes a frame produced by MarshalBinary.
func UnmarshalChunkBinary(b [MaxPayloadSize]byte) MessageChunk {
	var c MessageChunk
	c.SequenceNumber = binary.BigEndian.Uint32(b[0:4])
	c.IsLast = b[4] == 1
	c.UsedPayloadSize = binary.BigEndian.Uint32(b[5:9])
	copy(c.Payload[:], b[metadataSize:])
	return c
}

func sortChunks(c []MessageChunk) {
	// Small fixed-size slices per reply; insertion sort avoids pulling in
	// sort.Slice's reflection overhead for the common single-digit case.
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j-1].SequenceNumber > c[j].SequenceNumber; j-- {
			c[j-1], c[j] = c[j], c[j-1]
		}
	}
}
