// Package stream drives the stream assembler: the per-packet identifier
// state machine, O-RAN/eCPRI/Ethernet layering, and trailing IFG padding
// that together produce the final byte-exact output buffer.
package stream

import (
	"fmt"

	"example.com/fhgen/internal/capacity"
	"example.com/fhgen/internal/common"
	"example.com/fhgen/internal/ecpri"
	"example.com/fhgen/internal/eth"
	"example.com/fhgen/internal/iqpool"
	"example.com/fhgen/internal/oran"
)

// ErrInfeasible is returned when the trailing IFG budget computed after
// emitting every frame is negative — the plan promised more bytes than
// the configured line rate can carry in the capture window. It wraps
// capacity.ErrInfeasible, so errors.Is matches either sentinel.
var ErrInfeasible = fmt.Errorf("stream: byte budget exceeded: %w", capacity.ErrInfeasible)

// Params holds everything the assembler needs beyond the derived Plan:
// the Ethernet addressing and IFG/size constraints, and the IQ pool to
// draw samples from.
type Params struct {
	DestMAC          [6]byte
	SrcMAC           [6]byte
	MinIFGsPerPacket uint8
	MaxPacketSize    int
	Pool             iqpool.Pool
	Metrics          *common.Metrics // optional
}

// identifierState is the per-packet counter state machine. All fields
// start at zero and do not advance until after the first packet has been
// emitted; downstream consumers depend on packet 0 carrying all-zero
// identifiers.
type identifierState struct {
	frameID    uint8
	subframeID uint8
	slotID     uint8
	symbolID   uint8
	startPrbu  uint16
}

// advance mutates the state ahead of emitting packet packetNo: the caller
// passes the index of the packet about to be built, and each identifier
// increments when that index lands on its period boundary. Packet 0 never
// advances — identifiers stay at zero through the first packet and only
// begin moving from the second.
func (s *identifierState) advance(packetNo uint64, plan capacity.Plan) {
	if packetNo == 0 {
		return
	}
	if packetNo%plan.PacketsPerFrame == 0 {
		s.frameID = uint8((uint64(s.frameID) + 1) % 256)
	}
	if packetNo%plan.PacketsPerSubframe == 0 {
		s.subframeID = uint8((uint64(s.subframeID) + 1) % 10)
	}
	if packetNo%plan.PacketsPerSlot == 0 {
		s.slotID = uint8((uint64(s.slotID) + 1) % plan.SlotsPerSubframe)
	}
	if packetNo%plan.PacketsPerSymbol == 0 {
		s.symbolID = uint8((uint64(s.symbolID) + 1) % 14)
	}
}

// Generate builds the full byte stream for plan/params and returns it. The
// output buffer is sized upfront to plan.TotalBytes; a single IQ scratch
// slice of length plan.IQSamplesPerPacket is reused across the hot loop.
func Generate(plan capacity.Plan, params Params) ([]byte, error) {
	if plan.TotalBytes < 0 {
		return nil, fmt.Errorf("%w: negative total_bytes", ErrInfeasible)
	}
	out := make([]byte, 0, plan.TotalBytes)

	scratch := make([]int8, plan.IQSamplesPerPacket)
	var st identifierState

	for packetNo := uint64(0); packetNo < plan.TotalPackets; packetNo++ {
		// ecpri_seq_id = packet_no mod 255. The wrap at 255 rather than
		// 256 is what consumers of this stream expect; it has a closed
		// form and needs no running state.
		ecpriSeqID := uint16(packetNo % 255)

		cursor := int64(packetNo) * int64(plan.IQSamplesPerPacket)
		params.Pool.Slice(cursor, scratch)

		oranPkt, err := oran.BuildPacket(oran.Header{
			FrameID:    st.frameID,
			SubframeID: st.subframeID,
			SlotID:     st.slotID,
			SymbolID:   st.symbolID,
			StartPrbu:  st.startPrbu,
			NumPrbu:    plan.NrbPerPacket,
		}, scratch)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", packetNo, err)
		}

		ecpriPkt, err := ecpri.BuildPacket(ecpriSeqID, oranPkt)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", packetNo, err)
		}

		etherSize := [2]byte{byte(len(ecpriPkt) >> 8), byte(len(ecpriPkt))}
		frame, err := eth.Build(eth.Frame{
			DestMAC:          params.DestMAC,
			SrcMAC:           params.SrcMAC,
			EtherSize:        etherSize,
			Payload:          ecpriPkt,
			MinIFGsPerPacket: params.MinIFGsPerPacket,
			MaxPacketSize:    params.MaxPacketSize,
		})
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", packetNo, err)
		}

		out = append(out, frame...)
		if params.Metrics != nil {
			params.Metrics.AddFrame(int64(len(frame)))
		}

		st.advance(packetNo+1, plan)
		st.startPrbu += plan.NrbPerPacket
		if st.startPrbu >= plan.MaxNrb {
			st.startPrbu = 0
		}
	}

	remaining := plan.TotalBytes - int64(len(out))
	if remaining < 0 {
		return nil, fmt.Errorf("%w: emitted %d octets > total_bytes %d", ErrInfeasible, len(out), plan.TotalBytes)
	}
	for i := int64(0); i < remaining; i++ {
		out = append(out, eth.IFGOctet)
	}
	if params.Metrics != nil {
		params.Metrics.AddTrailingIFG(remaining)
	}
	return out, nil
}
