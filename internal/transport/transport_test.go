package transport

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitReassembleRoundTrip(t *testing.T) {
	sizes := []int{0, 1, CAP - 1, CAP, CAP + 1, 10000, 3*CAP + 7}
	for _, n := range sizes {
		body := make([]byte, n)
		rand.New(rand.NewSource(int64(n))).Read(body)

		chunks := Split(body)
		wantChunks := (n + CAP - 1) / CAP
		if n == 0 {
			wantChunks = 1
		}
		if len(chunks) != wantChunks {
			t.Fatalf("len=%d: got %d chunks, want %d", n, len(chunks), wantChunks)
		}

		last := 0
		for i, c := range chunks {
			if c.IsLast {
				last++
			}
			if int(c.SequenceNumber) != i {
				t.Fatalf("len=%d: chunk %d has sequence %d", n, i, c.SequenceNumber)
			}
		}
		if last != 1 {
			t.Fatalf("len=%d: expected exactly one IsLast chunk, got %d", n, last)
		}

		got, err := Reassemble(chunks)
		if err != nil {
			t.Fatalf("len=%d: Reassemble: %v", n, err)
		}
		if !bytes.Equal(got, body) {
			t.Fatalf("len=%d: round trip mismatch", n)
		}
	}
}

func TestReassembleOutOfOrder(t *testing.T) {
	body := make([]byte, 10000)
	rand.New(rand.NewSource(1)).Read(body)
	chunks := Split(body)

	shuffled := make([]MessageChunk, len(chunks))
	copy(shuffled, chunks)
	rand.New(rand.NewSource(2)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	got, err := Reassemble(shuffled)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("out-of-order reassembly mismatch")
	}
}

func TestReassembleMissingLast(t *testing.T) {
	chunks := Split(make([]byte, 10000))
	_, err := Reassemble(chunks[:len(chunks)-1])
	if err == nil {
		t.Fatalf("expected error when final chunk is missing")
	}
}

func TestEmptyBodyChunk(t *testing.T) {
	chunks := Split(nil)
	if len(chunks) != 1 || !chunks[0].IsLast || chunks[0].UsedPayloadSize != 0 {
		t.Fatalf("empty body must yield one IsLast chunk with zero payload, got %+v", chunks[0])
	}
}

func TestArgEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{"", "a", "hello-world", "t:20:false"}
	for _, s := range cases {
		enc, err := EncodeArg(s)
		require.NoErrorf(t, err, "EncodeArg(%q)", s)
		require.Equal(t, s, DecodeArg(enc))
	}
}

func TestEncodeArgTooLong(t *testing.T) {
	_, err := EncodeArg(string(make([]byte, CAP)))
	if err == nil {
		t.Fatalf("expected error for an argument at CAP length")
	}
}

func TestChunkBinaryRoundTrip(t *testing.T) {
	body := make([]byte, 10000)
	rand.New(rand.NewSource(7)).Read(body)
	for _, c := range Split(body) {
		wire := c.MarshalBinary()
		got := UnmarshalChunkBinary(wire)
		if got.SequenceNumber != c.SequenceNumber || got.IsLast != c.IsLast || got.UsedPayloadSize != c.UsedPayloadSize {
			t.Fatalf("metadata mismatch: got %+v, want %+v", got, c)
		}
		if !bytes.Equal(got.Bytes(), c.Bytes()) {
			t.Fatalf("payload mismatch for chunk %d", c.SequenceNumber)
		}
	}
}

func TestCommandWireRoundTrip(t *testing.T) {
	cmd, err := NewCommand(KindStop, "myapp")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	wire, err := cmd.MarshalWire()
	if err != nil {
		t.Fatalf("MarshalWire: %v", err)
	}
	got := UnmarshalCommandWire(wire)
	if got != cmd {
		t.Fatalf("round trip: got %+v, want %+v", got, cmd)
	}
}

func TestCommandWireRoundTripArglessKind(t *testing.T) {
	cmd, err := NewCommand(KindList, "")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	wire, err := cmd.MarshalWire()
	if err != nil {
		t.Fatalf("MarshalWire: %v", err)
	}
	got := UnmarshalCommandWire(wire)
	if got.Kind != KindList {
		t.Fatalf("expected KindList, got %v", got.Kind)
	}
}

func TestNewCommandValidatesArgCarryingKinds(t *testing.T) {
	if _, err := NewCommand(KindList, "ignored but must not fail"); err != nil {
		t.Fatalf("List should not validate its (ignored) arg: %v", err)
	}
	if _, err := NewCommand(KindStop, string(make([]byte, CAP))); err == nil {
		t.Fatalf("Stop should reject an overlong argument")
	}
}
