package protocol

import (
	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

var (
	crc8Table  = crc8.MakeTable(crc8.CRC8)
	crc16Table = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)
	crc32Table = makeCRC32Table(0x04C11DB7)
)

// split returns the whole bytes of the first nbits bits of data and the
// trailing partial byte masked to its leading bits.
func split(data []byte, nbits int) (full []byte, tail byte, tailBits int) {
	full = data[:nbits/8]
	tailBits = nbits % 8
	if tailBits > 0 {
		tail = data[nbits/8] & (0xFF << (8 - tailBits))
	}
	return full, tail, tailBits
}

// crc8Bits is CRC-8 (poly 0x07, init 0x00, no final XOR) over the first
// nbits bits of data.
func crc8Bits(data []byte, nbits int) uint8 {
	full, tail, tailBits := split(data, nbits)
	crc := crc8.Update(crc8.Init(crc8Table), full, crc8Table)
	if tailBits > 0 {
		crc ^= tail
		for i := 0; i < tailBits; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc8.Complete(crc, crc8Table)
}

// crc16Bits is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF, no final XOR).
func crc16Bits(data []byte, nbits int) uint16 {
	full, tail, tailBits := split(data, nbits)
	crc := crc16.Update(crc16.Init(crc16Table), full, crc16Table)
	if tailBits > 0 {
		crc ^= uint16(tail) << 8
		for i := 0; i < tailBits; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc16.Complete(crc, crc16Table)
}

// hash/crc32 only implements the reflected form, so the MSB-first table
// lives here.
func makeCRC32Table(poly uint32) *[256]uint32 {
	t := new([256]uint32)
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// crc32Bits is CRC-32/BZIP2 (poly 0x04C11DB7, init 0xFFFFFFFF, MSB first,
// complemented result).
func crc32Bits(data []byte, nbits int) uint32 {
	full, tail, tailBits := split(data, nbits)
	crc := uint32(0xFFFFFFFF)
	for _, b := range full {
		crc = crc<<8 ^ crc32Table[byte(crc>>24)^b]
	}
	if tailBits > 0 {
		crc ^= uint32(tail) << 24
		for i := 0; i < tailBits; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
	}
	return ^crc
}
