// Package validate re-checks a freshly generated stream — total length,
// frame count and sizing, FCS integrity, header fields, and identifier
// periods — and yields a pass/fail acceptance report. It recomputes
// expected geometry independently of the internal/stream assembler rather
// than re-using its code, so that a bug in the assembler does not also
// hide from its own validator.
package validate

import (
	"fmt"

	"example.com/fhgen/internal/capacity"
	"example.com/fhgen/internal/ecpri"
	"example.com/fhgen/internal/eth"
	"example.com/fhgen/internal/oran"
)

// Severity classifies a Finding.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
)

// Finding is one check's outcome.
type Finding struct {
	RuleID   string
	Severity Severity
	Message  string
}

// Summary tallies a Report's findings.
type Summary struct {
	Total    int
	Errors   int
	Warnings int
	Pass     bool
}

// Report is the outcome of a full validation run.
type Report struct {
	Summary  Summary
	Findings []Finding
}

// Input is what Run needs to re-derive and check a stream's geometry.
type Input struct {
	Stream           []byte
	Plan             capacity.Plan
	MinIFGsPerPacket uint8
	MaxPacketSize    int // 0 means unbounded
}

// sampleLimit caps how many frames the identifier/FCS/header checks walk,
// so validation of a multi-gigabyte stream stays proportional to a sample
// rather than re-parsing every packet.
const sampleLimit = 64

// Run executes the fixed battery of checks against the stream. IQ payload
// content is not re-derived here — that needs the pre-slice sample pool,
// which the validator does not retain; see internal/iqpool and
// internal/stream's own tests.
func Run(in Input) Report {
	var findings []Finding
	add := func(ruleID string, sev Severity, format string, args ...interface{}) {
		findings = append(findings, Finding{RuleID: ruleID, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	frameLen, ecpriPayloadLen := expectedFrameLen(in.Plan, in.MinIFGsPerPacket)

	// Total emitted length must equal the plan's byte budget exactly.
	if int64(len(in.Stream)) != in.Plan.TotalBytes {
		add("STREAM-LENGTH", SeverityError, "stream length %d != total_bytes %d", len(in.Stream), in.Plan.TotalBytes)
	}

	// Frame length must be a multiple of 4 and within bound.
	if frameLen%4 != 0 {
		add("FRAME-SIZE", SeverityError, "computed frame length %d is not a multiple of 4", frameLen)
	}
	if in.MaxPacketSize > 0 && frameLen > in.MaxPacketSize {
		add("FRAME-SIZE", SeverityError, "computed frame length %d exceeds max_packet_size %d", frameLen, in.MaxPacketSize)
	}

	framesRegionLen := int64(frameLen) * int64(in.Plan.TotalPackets)
	trailing := int64(len(in.Stream)) - framesRegionLen

	// Frame count must equal total_packets, with only IFG filler after.
	if trailing < 0 {
		add("FRAME-COUNT", SeverityError, "stream too short for %d frames of %d octets each", in.Plan.TotalPackets, frameLen)
		summary := summarize(findings)
		return Report{Summary: summary, Findings: findings}
	}
	add("FRAME-COUNT", SeverityInfo, "%d frames of %d octets, %d octets trailing IFG", in.Plan.TotalPackets, frameLen, trailing)
	for i := framesRegionLen; i < int64(len(in.Stream)); i++ {
		if in.Stream[i] != eth.IFGOctet {
			add("FRAME-COUNT", SeverityWarn, "trailing octet %d is 0x%02X, not the IFG filler 0x%02X", i, in.Stream[i], eth.IFGOctet)
			break
		}
	}

	limit := in.Plan.TotalPackets
	if limit > sampleLimit {
		limit = sampleLimit
	}

	var st sampleState
	for i := uint64(0); i < limit; i++ {
		off := int(i) * frameLen
		frame := in.Stream[off : off+frameLen]

		ok, err := eth.VerifyFCS(frame, ecpriPayloadLen)
		if err != nil {
			add("FCS", SeverityError, "packet %d: %v", i, err)
		} else if !ok {
			add("FCS", SeverityError, "packet %d: FCS mismatch", i)
		}

		ecpriHdr := frame[eth.PreambleLen+14 : eth.PreambleLen+14+ecpri.HeaderSize]
		oranHdr := frame[eth.PreambleLen+14+ecpri.HeaderSize : eth.PreambleLen+14+ecpri.HeaderSize+oran.HeaderSize]

		if l, err := ecpri.PayloadLength(ecpriHdr); err != nil {
			add("ECPRI-LENGTH", SeverityError, "packet %d: %v", i, err)
		} else if int(l) != ecpriPayloadLen-ecpri.HeaderSize {
			add("ECPRI-LENGTH", SeverityError, "packet %d: payload_length=%d, want %d", i, l, ecpriPayloadLen-ecpri.HeaderSize)
		}

		// ecpri_seq_id == packet_no mod 255 (255, not 256).
		if seq, err := ecpri.SeqID(ecpriHdr); err != nil {
			add("IDENTIFIERS", SeverityError, "packet %d: %v", i, err)
		} else if want := uint16(i % 255); seq != want {
			add("IDENTIFIERS", SeverityError, "packet %d: ecpri_seq_id=%d, want %d", i, seq, want)
		}

		// Re-derive the expected frame/subframe/slot/symbol/PRB state and
		// compare against the wire header.
		var raw [oran.HeaderSize]byte
		copy(raw[:], oranHdr)
		got := oran.ParseHeader(raw)
		want := st.expect(i, in.Plan)
		if got.FrameID != want.FrameID || got.SubframeID != want.SubframeID ||
			got.SlotID != want.SlotID || got.SymbolID != want.SymbolID ||
			got.StartPrbu != want.StartPrbu {
			add("IDENTIFIERS", SeverityError, "packet %d: identifiers = %+v, want %+v", i, got, want)
		}
		wantNumPrbu := in.Plan.NrbPerPacket
		if wantNumPrbu == 273 {
			wantNumPrbu = 0
		}
		if got.NumPrbu != wantNumPrbu {
			add("ORAN-HEADER", SeverityError, "packet %d: num_prbu wire value = %d, want %d", i, got.NumPrbu, wantNumPrbu)
		}

		st.advance(i+1, in.Plan)
		st.startPrbu += in.Plan.NrbPerPacket
		if st.startPrbu >= in.Plan.MaxNrb {
			st.startPrbu = 0
		}
	}

	return Report{Summary: summarize(findings), Findings: findings}
}

// expectedFrameLen recomputes the fixed per-packet frame length (and the
// eCPRI-leg payload length eth.VerifyFCS needs) directly from the plan,
// independent of internal/stream's own arithmetic.
func expectedFrameLen(plan capacity.Plan, minIFGsPerPacket uint8) (frameLen, ecpriPayloadLen int) {
	oranPktLen := oran.HeaderSize + int(plan.IQSamplesPerPacket)
	ecpriPktLen := ecpri.HeaderSize + oranPktLen
	covered := 14 + ecpriPktLen // dest MAC + src MAC + ether-size + eCPRI packet
	base := eth.PreambleLen + covered + 4 + int(minIFGsPerPacket)
	for base%4 != 0 {
		base++
	}
	return base, ecpriPktLen
}

// sampleState mirrors internal/stream's identifierState so validate can
// predict the expected identifiers at a sampled packet index without
// importing that (unexported) state machine.
type sampleState struct {
	frameID, subframeID, slotID, symbolID uint8
	startPrbu                             uint16
}

func (s sampleState) expect(packetNo uint64, plan capacity.Plan) oran.Header {
	return oran.Header{
		FrameID:    s.frameID,
		SubframeID: s.subframeID,
		SlotID:     s.slotID,
		SymbolID:   s.symbolID,
		StartPrbu:  s.startPrbu,
	}
}

// advance mirrors internal/stream's identifierState.advance exactly: it is
// called with the index of the packet about to be checked, and does
// nothing for packet 0.
func (s *sampleState) advance(packetNo uint64, plan capacity.Plan) {
	if packetNo == 0 {
		return
	}
	if plan.PacketsPerFrame != 0 && packetNo%plan.PacketsPerFrame == 0 {
		s.frameID = uint8((uint64(s.frameID) + 1) % 256)
	}
	if plan.PacketsPerSubframe != 0 && packetNo%plan.PacketsPerSubframe == 0 {
		s.subframeID = uint8((uint64(s.subframeID) + 1) % 10)
	}
	if plan.PacketsPerSlot != 0 && plan.SlotsPerSubframe != 0 && packetNo%plan.PacketsPerSlot == 0 {
		s.slotID = uint8((uint64(s.slotID) + 1) % plan.SlotsPerSubframe)
	}
	if plan.PacketsPerSymbol != 0 && packetNo%plan.PacketsPerSymbol == 0 {
		s.symbolID = uint8((uint64(s.symbolID) + 1) % 14)
	}
}

func summarize(findings []Finding) Summary {
	s := Summary{Pass: true}
	for _, f := range findings {
		s.Total++
		switch f.Severity {
		case SeverityError:
			s.Errors++
			s.Pass = false
		case SeverityWarn:
			s.Warnings++
		}
	}
	return s
}
