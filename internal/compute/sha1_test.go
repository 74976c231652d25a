package compute

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"math/rand"
	"testing"
)

func TestSumSHA1KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
		want string
	}{
		{
			name: "empty",
			msg:  nil,
			want: "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		},
		{
			name: "abc",
			msg:  []byte("abc"),
			want: "a9993e364706816aba3e25717850c26c9cd0d89d",
		},
		{
			name: "rfc3174 two-block",
			msg:  []byte("abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq"),
			want: "84983e441c3bd26ebaae4aa1f95129e5e54670f1",
		},
		{
			name: "quick brown fox",
			msg:  []byte("The quick brown fox jumps over the lazy dog"),
			want: "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SumSHA1(tt.msg)
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("SumSHA1(%q) = %x, want %s", tt.msg, got, tt.want)
			}
		})
	}
}

// Lengths around the padding boundaries: 55 is the largest message fitting
// in one block, 56..63 need an extra all-padding block, 64 is an exact
// multiple, 65 spans two blocks of content.
func TestSumSHA1PaddingBoundaries(t *testing.T) {
	for _, n := range []int{1, 54, 55, 56, 57, 63, 64, 65, 119, 120, 127, 128, 129} {
		msg := bytes.Repeat([]byte{'x'}, n)
		got := SumSHA1(msg)
		want := sha1.Sum(msg)
		if got != want {
			t.Errorf("length %d: got %x, want %x", n, got, want)
		}
	}
}

func TestSumSHA1MatchesCryptoSHA1(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n <= 300; n++ {
		msg := make([]byte, n)
		rng.Read(msg)
		got := SumSHA1(msg)
		want := sha1.Sum(msg)
		if got != want {
			t.Fatalf("length %d: got %x, want %x", n, got, want)
		}
	}

	big := make([]byte, 1<<20+17)
	rng.Read(big)
	got := SumSHA1(big)
	want := sha1.Sum(big)
	if got != want {
		t.Fatalf("large message: got %x, want %x", got, want)
	}
}

func TestSumSHA1Deterministic(t *testing.T) {
	msg := []byte("same bytes, same digest")
	if SumSHA1(msg) != SumSHA1(msg) {
		t.Fatal("digest is not deterministic")
	}
}
