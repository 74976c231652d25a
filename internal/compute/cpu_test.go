package compute

import (
	"bytes"
	"context"
	"crypto/sha1"
	"testing"
)

func TestCPUBackendDevices(t *testing.T) {
	infos, err := cpuBackend{}.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 CPU device, got %d", len(infos))
	}
	if infos[0].Class != ClassCPU {
		t.Errorf("expected class %q, got %q", ClassCPU, infos[0].Class)
	}
}

func TestCPUSessionDispatch(t *testing.T) {
	msgs := [][]byte{
		[]byte("first message"),
		{},
		[]byte("a considerably longer third message that spans more than one SHA-1 block of sixty-four bytes"),
		bytes.Repeat([]byte{0xAB}, 64),
	}

	var packed []byte
	var spans []Span
	for _, m := range msgs {
		spans = append(spans, Span{Offset: uint64(len(packed)), Length: uint64(len(m))})
		packed = append(packed, m...)
	}

	s, err := cpuBackend{}.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	digests, err := s.Dispatch(context.Background(), packed, spans)
	if err != nil {
		t.Fatal(err)
	}
	if len(digests) != len(msgs) {
		t.Fatalf("expected %d digests, got %d", len(msgs), len(digests))
	}
	for i, m := range msgs {
		if want := sha1.Sum(m); digests[i] != want {
			t.Errorf("span %d: got %x, want %x", i, digests[i], want)
		}
	}
}

func TestCPUSessionSpanOutOfRange(t *testing.T) {
	s := &cpuSession{}
	_, err := s.Dispatch(context.Background(), []byte("short"), []Span{{Offset: 0, Length: 99}})
	if err == nil {
		t.Fatal("expected an error for an out-of-range span")
	}
}

func TestCPUSessionCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &cpuSession{}
	_, err := s.Dispatch(ctx, []byte("abc"), []Span{{Offset: 0, Length: 3}})
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
