package protocol

// checksumBits adds successive big-endian groups of width bits over the
// first nbits bits of data, modulo 2^width. A trailing partial group is
// left-aligned with its missing low bits zero.
func checksumBits(data []byte, nbits, width int) uint32 {
	full, tail, tailBits := split(data, nbits)
	group := width / 8

	var sum, acc uint32
	n := 0
	add := func(b byte) {
		acc = acc<<8 | uint32(b)
		n++
		if n == group {
			sum += acc
			acc, n = 0, 0
		}
	}
	for _, b := range full {
		add(b)
	}
	if tailBits > 0 {
		add(tail)
	}
	if n > 0 {
		sum += acc << (8 * (group - n))
	}

	if width < 32 {
		sum &= 1<<width - 1
	}
	return sum
}
