package compute

import (
	"encoding/binary"
	"math/bits"
)

// SHA-1 digest and block sizes in bytes.
const (
	DigestSize = 20
	BlockSize  = 64
)

const (
	init0 = 0x67452301
	init1 = 0xEFCDAB89
	init2 = 0x98BADCFE
	init3 = 0x10325476
	init4 = 0xC3D2E1F0
)

// SumSHA1 returns the SHA-1 digest of msg, computed from scratch per
// FIPS-180. This is the reference form of the kernel: the OpenCL source in
// the accelerator backend runs the identical block loop, and the CPU
// backend calls this function directly, one work-item per span.
//
// The bit length in the final block is a full 64-bit value; messages at or
// beyond 2^32 bits hash correctly.
func SumSHA1(msg []byte) [DigestSize]byte {
	h := [5]uint32{init0, init1, init2, init3, init4}
	bitLen := uint64(len(msg)) * 8

	// The last block must hold the 0x80 marker plus the 8-byte length
	// field, so messages with 56..63 trailing bytes spill into an extra
	// all-padding block.
	blocks := (len(msg)+8)/BlockSize + 1

	var block [BlockSize]byte
	for bi := 0; bi < blocks; bi++ {
		for i := 0; i < BlockSize; i++ {
			pos := bi*BlockSize + i
			switch {
			case pos < len(msg):
				block[i] = msg[pos]
			case pos == len(msg):
				block[i] = 0x80
			default:
				block[i] = 0
			}
		}
		if bi == blocks-1 {
			binary.BigEndian.PutUint64(block[BlockSize-8:], bitLen)
		}
		compress(&h, &block)
	}

	var digest [DigestSize]byte
	for i, v := range h {
		binary.BigEndian.PutUint32(digest[i*4:], v)
	}
	return digest
}

// compress runs the 80-round SHA-1 compression over one 64-byte block and
// adds the result back into the running state.
func compress(h *[5]uint32, block *[BlockSize]byte) {
	var w [80]uint32
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	for i := 16; i < 80; i++ {
		w[i] = bits.RotateLeft32(w[i-3]^w[i-8]^w[i-14]^w[i-16], 1)
	}

	a, b, c, d, e := h[0], h[1], h[2], h[3], h[4]
	for i := 0; i < 80; i++ {
		var f, k uint32
		switch {
		case i < 20:
			f = (b & c) | (^b & d)
			k = 0x5A827999
		case i < 40:
			f = b ^ c ^ d
			k = 0x6ED9EBA1
		case i < 60:
			f = (b & c) | (b & d) | (c & d)
			k = 0x8F1BBCDC
		default:
			f = b ^ c ^ d
			k = 0xCA62C1D6
		}
		t := bits.RotateLeft32(a, 5) + f + e + k + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	h[0] += a
	h[1] += b
	h[2] += c
	h[3] += d
	h[4] += e
}
