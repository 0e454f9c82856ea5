package ctcp

import "math"

// seqIncrement advances a sequence number by one, wrapping at 2^32.
func seqIncrement(seq uint32) uint32 {
	return uint32(uint64(seq) + 1)
}

// seqAdd advances a sequence number by n bytes, wrapping at 2^32.
func seqAdd(seq uint32, n uint32) uint32 {
	return uint32(uint64(seq) + uint64(n))
}

// seqGreater reports whether seq1 is ahead of seq2 on the sequence-number
// circle, accounting for wraparound.
func seqGreater(seq1, seq2 uint32) bool {
	if seq1 == seq2 {
		return false
	}

	diff := int64(seq1) - int64(seq2)
	if diff < 0 {
		diff = -diff
	}
	wrapdiff := int64(math.MaxUint32 + 1 - diff)

	distance := diff
	if wrapdiff < distance {
		distance = wrapdiff
	}

	return (distance+int64(seq2))%(math.MaxUint32+1) == int64(seq1)
}

func seqGreaterOrEqual(seq1, seq2 uint32) bool {
	return seqGreater(seq1, seq2) || seq1 == seq2
}

func seqLess(seq1, seq2 uint32) bool {
	return !seqGreaterOrEqual(seq1, seq2)
}
