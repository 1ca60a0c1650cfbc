// Package eth builds Ethernet II frames around an eCPRI/O-RAN payload: the
// preamble and addresses, the trailing FCS, and the inter-frame-gap tail.
package eth

import (
	"errors"
	"fmt"

	"example.com/fhgen/internal/crcfcs"
)

// ErrFrameTooLarge is returned when a built frame exceeds the caller's
// configured maximum packet size.
var ErrFrameTooLarge = errors.New("ethernet frame exceeds configured max packet size")

// IFGOctet is the inter-frame-gap filler octet this emitter uses.
const IFGOctet = 0x07

// preamble is the 7-octet Ethernet preamble plus 1-octet SFD this emitter
// writes ahead of every frame. The canonical Ethernet preamble starts
// with 0x55; this emitter's first octet is 0xFB, and that exact sequence
// is part of its output format.
var preamble = [8]byte{0xFB, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0xD5}

// PreambleLen is the length, in octets, of the preamble+SFD this package
// prepends to every frame.
const PreambleLen = len(preamble)

// addrAndSizeLen is the combined length of destination MAC, source MAC,
// and the ether-size field that precede the payload within the
// FCS-covered region.
const addrAndSizeLen = 6 + 6 + 2

// Frame holds the inputs needed to build one Ethernet II frame.
type Frame struct {
	DestMAC          [6]byte
	SrcMAC           [6]byte
	EtherSize        [2]byte // network order, as provided by the caller
	Payload          []byte
	MinIFGsPerPacket uint8
	MaxPacketSize    int // 0 disables the bound check
}

// Build assembles one Ethernet frame: preamble+SFD, destination MAC, source
// MAC, ether-size field, payload, FCS, minimum IFG tail, and 4-octet
// alignment padding. The FCS is computed over the octets starting at the
// destination MAC through the end of the payload; the preamble is excluded
// from CRC coverage.
func Build(f Frame) ([]byte, error) {
	covered := make([]byte, 0, addrAndSizeLen+len(f.Payload))
	covered = append(covered, f.DestMAC[:]...)
	covered = append(covered, f.SrcMAC[:]...)
	covered = append(covered, f.EtherSize[:]...)
	covered = append(covered, f.Payload...)

	fcs, err := crcfcs.FCS(covered)
	if err != nil {
		return nil, fmt.Errorf("eth: compute fcs: %w", err)
	}

	frame := make([]byte, 0, len(preamble)+len(covered)+len(fcs)+int(f.MinIFGsPerPacket)+3)
	frame = append(frame, preamble[:]...)
	frame = append(frame, covered...)
	frame = append(frame, fcs[:]...)
	for i := uint8(0); i < f.MinIFGsPerPacket; i++ {
		frame = append(frame, IFGOctet)
	}
	for len(frame)%4 != 0 {
		frame = append(frame, IFGOctet)
	}

	if f.MaxPacketSize > 0 && len(frame) > f.MaxPacketSize {
		return nil, fmt.Errorf("%w: %d octets > max %d", ErrFrameTooLarge, len(frame), f.MaxPacketSize)
	}
	return frame, nil
}

// VerifyFCS recomputes the FCS of a frame built by Build and reports
// whether it matches the FCS octets embedded in the frame.
// payloadLen must be the length of the eCPRI payload the
// frame was built with; the FCS-covered region is unambiguous only with
// that length, since IFG padding (0x07) is not distinguishable from
// payload content by value alone.
func VerifyFCS(frame []byte, payloadLen int) (bool, error) {
	coveredLen := addrAndSizeLen + payloadLen
	if payloadLen < 0 || len(frame) < PreambleLen+coveredLen+4 {
		return false, fmt.Errorf("eth: frame too short for payload length %d (%d bytes)", payloadLen, len(frame))
	}
	body := frame[PreambleLen:]
	covered := body[:coveredLen]
	want := body[coveredLen : coveredLen+4]
	got, err := crcfcs.FCS(covered)
	if err != nil {
		return false, err
	}
	return got[0] == want[0] && got[1] == want[1] && got[2] == want[2] && got[3] == want[3], nil
}
