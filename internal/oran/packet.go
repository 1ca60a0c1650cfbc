// Package oran builds O-RAN fronthaul User-Plane packets: an 8-octet
// combined common+section header followed by an IQ sample payload.
package oran

import "fmt"

// HeaderSize is the on-the-wire length of the combined common+section
// header, in octets.
const HeaderSize = 8

// fixedSectionID is the section identifier this emitter always uses (the
// O-RAN "all PRBs in this section" convention), 0xFFF.
const fixedSectionID = 0xFFF

// ErrFieldOverflow is returned when a header field is supplied a value that
// does not fit its bit width. The assembler's own arithmetic never
// triggers this; it exists as a defensive boundary check.
var ErrFieldOverflow = fmt.Errorf("oran: field exceeds its bit width")

// Header holds the unpacked fields of a U-Plane common+section header.
type Header struct {
	FrameID    uint8
	SubframeID uint8  // 4 bits
	SlotID     uint8  // 6 bits
	SymbolID   uint8  // 6 bits
	StartPrbu  uint16 // 10 bits
	NumPrbu    uint16 // 1..273; value 273 is rewritten to 0 on the wire octet
}

func overflow(field string, value, max uint64) error {
	return fmt.Errorf("%w: %s=%d exceeds max %d", ErrFieldOverflow, field, value, max)
}

// BuildPacket renders the 8-octet header followed by iqPayload (the signed
// IQ samples reinterpreted as unsigned octets) into a single packet.
func BuildPacket(h Header, iqPayload []int8) ([]byte, error) {
	hdr, err := buildHeader(h)
	if err != nil {
		return nil, err
	}
	pkt := make([]byte, HeaderSize+len(iqPayload))
	copy(pkt, hdr[:])
	for i, s := range iqPayload {
		pkt[HeaderSize+i] = byte(s)
	}
	return pkt, nil
}

func buildHeader(h Header) ([HeaderSize]byte, error) {
	var hdr [HeaderSize]byte
	if h.SubframeID > 0x0F {
		return hdr, overflow("subframe_id", uint64(h.SubframeID), 0x0F)
	}
	if h.SlotID > 0x3F {
		return hdr, overflow("slot_id", uint64(h.SlotID), 0x3F)
	}
	if h.SymbolID > 0x3F {
		return hdr, overflow("symbol_id", uint64(h.SymbolID), 0x3F)
	}
	if h.StartPrbu > 0x3FF {
		return hdr, overflow("start_prbu", uint64(h.StartPrbu), 0x3FF)
	}
	// 273 is the one legal value above the octet's range; it is rewritten
	// to 0 on the wire (the "all 273 PRBs" convention).
	if h.NumPrbu != 273 && h.NumPrbu > 0xFF {
		return hdr, overflow("num_prbu", uint64(h.NumPrbu), 273)
	}

	hdr[0] = 0x00 // data_direction(1) | payload_version(3) | filter_index(4), all zero
	hdr[1] = h.FrameID
	hdr[2] = (h.SubframeID << 4) | ((h.SlotID >> 2) & 0x0F)
	hdr[3] = ((h.SlotID & 0x03) << 6) | (h.SymbolID & 0x3F)
	hdr[4] = byte(fixedSectionID >> 4) // high 8 bits of the 12-bit section_id
	hdr[5] = byte((fixedSectionID&0x0F)<<4) | byte((h.StartPrbu>>8)&0x03)
	hdr[6] = byte(h.StartPrbu & 0xFF)
	if h.NumPrbu == 273 {
		hdr[7] = 0
	} else {
		hdr[7] = byte(h.NumPrbu)
	}
	return hdr, nil
}

// ParseHeader unpacks the 8-octet combined header back into its fields,
// reversing BuildPacket's bit-packing. It is used by tests and by the
// post-generation validator: a parsed num_prbu of 0 is reported as 0,
// matching the wire convention, not rewritten back to 273.
func ParseHeader(hdr [HeaderSize]byte) Header {
	return Header{
		FrameID:    hdr[1],
		SubframeID: hdr[2] >> 4,
		SlotID:     ((hdr[2] & 0x0F) << 2) | (hdr[3] >> 6),
		SymbolID:   hdr[3] & 0x3F,
		StartPrbu:  (uint16(hdr[5]&0x03) << 8) | uint16(hdr[6]),
		NumPrbu:    uint16(hdr[7]),
	}
}
