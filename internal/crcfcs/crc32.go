// Package crcfcs computes the Ethernet Frame Check Sequence used by the
// fronthaul frame builder.
package crcfcs

import (
	"errors"
	"hash/crc32"
)

// ErrInputEmpty is returned by FCS when called with zero octets; the
// assembler never does so, the check exists for direct callers and tests.
var ErrInputEmpty = errors.New("crcfcs: input is empty")

// FCS computes the 32-bit Ethernet CRC (reflected polynomial 0xEDB88320,
// init/xor 0xFFFFFFFF) over data and returns it as four octets in
// most-significant-octet-first order. This is a fixed property of the wire
// format this generator emits: callers porting this logic to another
// context must not substitute the canonical little-endian Ethernet FCS
// serialization without an explicit compatibility flag.
func FCS(data []byte) ([4]byte, error) {
	var out [4]byte
	if len(data) == 0 {
		return out, ErrInputEmpty
	}
	sum := crc32.Checksum(data, crc32.IEEETable)
	out[0] = byte(sum >> 24)
	out[1] = byte(sum >> 16)
	out[2] = byte(sum >> 8)
	out[3] = byte(sum)
	return out, nil
}

// Checksum returns the raw 32-bit CRC value (register state), for callers
// that need the integer rather than its wire-ordered octets.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32.IEEETable)
}
