//go:build cgo

package compute

import (
	"context"
	"testing"
)

// Exercises the real OpenCL pipeline when a device is present; the CPU
// reference logic is the oracle.
func TestOpenCLDispatchMatchesReference(t *testing.T) {
	backend := openclBackend{}
	infos, err := backend.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) == 0 {
		t.Skip("no OpenCL device available")
	}

	session, err := backend.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	msgs := [][]byte{
		[]byte("abc"),
		{},
		make([]byte, 65),
		make([]byte, 3000),
	}
	var packed []byte
	var spans []Span
	for _, m := range msgs {
		spans = append(spans, Span{Offset: uint64(len(packed)), Length: uint64(len(m))})
		packed = append(packed, m...)
	}

	digests, err := session.Dispatch(context.Background(), packed, spans)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range msgs {
		if want := SumSHA1(m); digests[i] != want {
			t.Errorf("span %d (len %d): got %x, want %x", i, len(m), digests[i], want)
		}
	}
}
