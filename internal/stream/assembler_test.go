package stream

import (
	"testing"

	"example.com/fhgen/internal/capacity"
	"example.com/fhgen/internal/common"
	"example.com/fhgen/internal/ecpri"
	"example.com/fhgen/internal/iqpool"
	"example.com/fhgen/internal/oran"
)

// TestIdentifierAdvanceGuard confirms identifiers do not move until after
// packet 0 has been emitted.
func TestIdentifierAdvanceGuard(t *testing.T) {
	plan := capacity.Plan{
		PacketsPerSymbol:   1,
		PacketsPerSlot:     1,
		SlotsPerSubframe:   2,
		PacketsPerSubframe: 3,
		PacketsPerFrame:    6,
	}
	var st identifierState
	st.advance(0, plan)
	if st != (identifierState{}) {
		t.Fatalf("advance(0) moved state: %+v", st)
	}
}

// TestIdentifierAdvancePeriods walks the state machine by hand across two
// subframe boundaries and one frame boundary with small, exact periods.
func TestIdentifierAdvancePeriods(t *testing.T) {
	plan := capacity.Plan{
		PacketsPerSymbol:   1,
		PacketsPerSlot:     1,
		SlotsPerSubframe:   2,
		PacketsPerSubframe: 3,
		PacketsPerFrame:    6,
	}
	var st identifierState
	want := []identifierState{
		{symbolID: 1, slotID: 1},
		{symbolID: 2, slotID: 0},
		{symbolID: 3, slotID: 1, subframeID: 1},
		{symbolID: 4, slotID: 0, subframeID: 1},
		{symbolID: 5, slotID: 1, subframeID: 1},
		{symbolID: 6, slotID: 0, subframeID: 2, frameID: 1},
	}
	for i, w := range want {
		st.advance(uint64(i+1), plan)
		if st != w {
			t.Fatalf("after advance(%d): got %+v, want %+v", i+1, st, w)
		}
	}
}

// TestIdentifierAdvanceWrapsAtFieldBoundaries exercises the modulus on every
// field, not just the first wrap.
func TestIdentifierAdvanceWrapsAtFieldBoundaries(t *testing.T) {
	plan := capacity.Plan{
		PacketsPerSymbol:   1,
		PacketsPerSlot:     1,
		SlotsPerSubframe:   1,
		PacketsPerSubframe: 1,
		PacketsPerFrame:    1,
	}
	st := identifierState{frameID: 255, subframeID: 9, slotID: 0, symbolID: 13}
	st.advance(1, plan)
	want := identifierState{frameID: 0, subframeID: 0, slotID: 0, symbolID: 0}
	if st != want {
		t.Fatalf("wrap-around: got %+v, want %+v", st, want)
	}
}

func poolOf(values ...int8) iqpool.Pool {
	p, err := iqpool.NewPool(values)
	if err != nil {
		panic(err)
	}
	return p
}

func smallPlanParams(t *testing.T) (capacity.Plan, Params) {
	t.Helper()
	plan, err := capacity.Derive(capacity.Config{
		LineRateGbps:  1,
		CaptureSizeMs: 10,
		ScsKHz:        15,
		MaxNrb:        1,
		NrbPerPacket:  1,
	})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	samples := make([]int8, 10)
	for i := range samples {
		samples[i] = int8(i)
	}
	params := Params{
		DestMAC:          [6]byte{0x01, 0x01, 0x01, 0x01, 0x01, 0x01},
		SrcMAC:           [6]byte{0x33, 0x33, 0x33, 0x33, 0x33, 0x33},
		MinIFGsPerPacket: 0,
		MaxPacketSize:    0,
		Pool:             poolOf(samples...),
	}
	return plan, params
}

// TestGenerateTotalLengthMatchesPlan confirms the emitted stream's total
// length equals the plan's byte budget exactly, trailing IFG padding
// included.
func TestGenerateTotalLengthMatchesPlan(t *testing.T) {
	plan, params := smallPlanParams(t)
	out, err := Generate(plan, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if int64(len(out)) != plan.TotalBytes {
		t.Fatalf("len(out) = %d, want %d", len(out), plan.TotalBytes)
	}
}

// TestGenerateFirstFrameLayout checks the first emitted frame's preamble,
// addressing, and header fields, and that its IQ payload is drawn from
// pool cursor 0.
func TestGenerateFirstFrameLayout(t *testing.T) {
	plan, params := smallPlanParams(t)
	out, err := Generate(plan, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	wantPreamble := []byte{0xFB, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0xD5}
	if got := out[:8]; string(got) != string(wantPreamble) {
		t.Fatalf("preamble = %x, want %x", got, wantPreamble)
	}
	if got := out[8:14]; string(got) != string(params.DestMAC[:]) {
		t.Fatalf("dest mac = %x, want %x", got, params.DestMAC[:])
	}
	if got := out[14:20]; string(got) != string(params.SrcMAC[:]) {
		t.Fatalf("src mac = %x, want %x", got, params.SrcMAC[:])
	}

	ecpriHdr := out[22:30]
	seqID, err := ecpri.SeqID(ecpriHdr)
	if err != nil {
		t.Fatalf("SeqID: %v", err)
	}
	if seqID != 0 {
		t.Fatalf("first packet ecpri seq_id = %d, want 0", seqID)
	}

	oranHdr := out[30:38]
	if oranHdr[1] != 0 {
		t.Fatalf("first packet frame_id = %d, want 0 (identifiers stay zero through packet 0)", oranHdr[1])
	}
	if oranHdr[7] != 1 {
		t.Fatalf("num_prbu octet = %d, want 1", oranHdr[7])
	}

	iq := out[38:66]
	for i, got := range iq {
		want := int8(i % 10) // pool has 10 samples, 0..9, cursor starts at 0
		if int8(got) != want {
			t.Fatalf("iq[%d] = %d, want %d", i, int8(got), want)
		}
	}
}

// TestGenerateEcpriSeqIDWrapsModulo255 exercises the sequence id across
// its wrap boundary (255, not 256), using a plan with more than 255
// packets so the wrap is actually reached.
func TestGenerateEcpriSeqIDWrapsModulo255(t *testing.T) {
	plan, err := capacity.Derive(capacity.Config{
		LineRateGbps:  1,
		CaptureSizeMs: 10,
		ScsKHz:        30,
		MaxNrb:        2,
		NrbPerPacket:  1,
	})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if plan.TotalPackets <= 255 {
		t.Fatalf("need more than 255 packets to exercise the wrap, got %d", plan.TotalPackets)
	}

	samples := make([]int8, 4)
	params := Params{
		DestMAC: [6]byte{1, 1, 1, 1, 1, 1},
		SrcMAC:  [6]byte{2, 2, 2, 2, 2, 2},
		Pool:    poolOf(samples...),
	}
	out, err := Generate(plan, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Every packet here carries the same sized payload (28 IQ octets), so
	// each Ethernet frame has the same fixed length; locate frames by
	// simple multiplication instead of re-parsing the eth layer.
	const frameLen = 72
	seqIDAt := func(frameIdx int) uint16 {
		off := frameIdx * frameLen
		hdr := out[off+22 : off+30]
		id, err := ecpri.SeqID(hdr)
		if err != nil {
			t.Fatalf("SeqID(frame %d): %v", frameIdx, err)
		}
		return id
	}

	cases := []struct {
		frameIdx int
		want     uint16
	}{
		{0, 0},
		{254, 254},
		{255, 0},
		{256, 1},
	}
	for _, c := range cases {
		if got := seqIDAt(c.frameIdx); got != c.want {
			t.Fatalf("frame %d seq_id = %d, want %d", c.frameIdx, got, c.want)
		}
	}
}

// TestGenerateIdentifiersAdvanceFromSecondPacket pins down the
// advancement phase: packet 0 carries all-zero identifiers, and with one
// packet per symbol, packet 1 already carries symbol_id 1.
func TestGenerateIdentifiersAdvanceFromSecondPacket(t *testing.T) {
	plan, params := smallPlanParams(t)
	if plan.PacketsPerSymbol != 1 {
		t.Fatalf("test plan needs packets_per_symbol=1, got %d", plan.PacketsPerSymbol)
	}
	out, err := Generate(plan, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	const frameLen = 72
	oranHeaderAt := func(frameIdx int) oran.Header {
		off := frameIdx*frameLen + 30
		var hdr [oran.HeaderSize]byte
		copy(hdr[:], out[off:off+oran.HeaderSize])
		return oran.ParseHeader(hdr)
	}
	if h := oranHeaderAt(0); h.SymbolID != 0 {
		t.Fatalf("packet 0 symbol_id = %d, want 0", h.SymbolID)
	}
	if h := oranHeaderAt(1); h.SymbolID != 1 {
		t.Fatalf("packet 1 symbol_id = %d, want 1", h.SymbolID)
	}
}

// TestGenerateStartPrbuCycle walks a 273-PRB carrier split into 51-PRB
// packets across one full symbol and into the next: 0, 51, ..., 255, then
// back to 0 once the next start (306) would reach or pass max_nrb (273).
func TestGenerateStartPrbuCycle(t *testing.T) {
	plan, err := capacity.Derive(capacity.Config{
		LineRateGbps:  1,
		CaptureSizeMs: 10,
		ScsKHz:        15,
		MaxNrb:        273,
		NrbPerPacket:  51,
	})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	samples := make([]int8, 8)
	params := Params{
		DestMAC: [6]byte{1, 1, 1, 1, 1, 1},
		SrcMAC:  [6]byte{2, 2, 2, 2, 2, 2},
		Pool:    poolOf(samples...),
	}
	out, err := Generate(plan, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 8 preamble + 14 addressing/size + 16 eCPRI/O-RAN headers +
	// 1428 IQ octets + 4 FCS = 1470, padded to the next multiple of 4.
	const frameLen = 1472
	wantPrbu := []uint16{0, 51, 102, 153, 204, 255, 0, 51}
	for idx, want := range wantPrbu {
		off := idx*frameLen + 30
		var hdr [oran.HeaderSize]byte
		copy(hdr[:], out[off:off+oran.HeaderSize])
		h := oran.ParseHeader(hdr)
		if h.StartPrbu != want {
			t.Fatalf("packet %d start_prbu = %d, want %d", idx, h.StartPrbu, want)
		}
		wantSymbol := uint8(0)
		if idx >= 6 {
			wantSymbol = 1
		}
		if h.SymbolID != wantSymbol {
			t.Fatalf("packet %d symbol_id = %d, want %d", idx, h.SymbolID, wantSymbol)
		}
	}
}

// TestGenerateTracksMetrics confirms the optional Metrics hook observes the
// same totals the returned buffer does.
func TestGenerateTracksMetrics(t *testing.T) {
	plan, params := smallPlanParams(t)
	m := common.NewMetrics()
	m.SetTotalBytes(plan.TotalBytes)
	params.Metrics = m

	out, err := Generate(plan, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	snap := m.Snapshot()
	if snap.Frames != int64(plan.TotalPackets) {
		t.Fatalf("Frames = %d, want %d", snap.Frames, plan.TotalPackets)
	}
	if snap.EmittedBytes() != int64(len(out)) {
		t.Fatalf("EmittedBytes() = %d, want %d", snap.EmittedBytes(), len(out))
	}
	if snap.IFGBytes != int64(len(out))-snap.FrameBytes {
		t.Fatalf("IFGBytes = %d, want %d", snap.IFGBytes, int64(len(out))-snap.FrameBytes)
	}
	if snap.MinFrame != snap.MaxFrame {
		t.Fatalf("frame lengths varied: min=%d max=%d", snap.MinFrame, snap.MaxFrame)
	}
}

// TestGenerateRejectsInfeasiblePlan covers a plan whose packets alone
// already exceed its own total_bytes budget.
func TestGenerateRejectsInfeasiblePlan(t *testing.T) {
	plan := capacity.Plan{
		TotalBytes:         10,
		TotalPackets:       1,
		IQSamplesPerPacket: 28,
		MaxNrb:             1,
		NrbPerPacket:       1,
		PacketsPerFrame:    1,
		PacketsPerSubframe: 1,
		PacketsPerSlot:     1,
		PacketsPerSymbol:   1,
		SlotsPerSubframe:   1,
	}
	samples := make([]int8, 4)
	params := Params{Pool: poolOf(samples...)}
	if _, err := Generate(plan, params); err == nil {
		t.Fatalf("Generate did not reject an over-budget plan")
	}
}
