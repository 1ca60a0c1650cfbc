// Package capacity derives the packet/byte budget for one generation run
// from its configuration: how many octets the line carries over the
// capture window, how many packets fill it, and the identifier periods.
package capacity

import (
	"errors"
	"fmt"
)

// ErrInfeasible covers every way a configuration's derived plan cannot be
// realized: non-feasible SCS/capture-size divisibility, more resource
// blocks requested per packet than exist in total, or (detected by the
// caller after the fact) a negative trailing-IFG budget.
var ErrInfeasible = errors.New("capacity: plan is infeasible")

const (
	framePeriodMs     = 10 // radio frame period, ms
	subframesPerFrame = 10
	symbolsPerSlot    = 14
	rePerRB           = 14 // resource elements per resource block per symbol
	scsPeriodicityKHz = 15
)

// Config is the subset of run configuration the planner consumes.
type Config struct {
	LineRateGbps  uint8
	CaptureSizeMs uint8
	ScsKHz        uint16
	MaxNrb        uint16
	NrbPerPacket  uint16
}

// Plan holds every quantity derived from a Config.
type Plan struct {
	MaxNrb             uint16
	NrbPerPacket       uint16
	TotalBytes         int64
	TotalFramesRadio   uint64
	SlotsPerSubframe   uint64
	PacketsPerSymbol   uint64
	PacketsPerSlot     uint64
	PacketsPerSubframe uint64
	PacketsPerFrame    uint64
	TotalPackets       uint64
	IQSamplesPerPacket uint64
}

// Derive computes a Plan from cfg, normalizing zero-valued MaxNrb/
// NrbPerPacket to 273 (the full 100 MHz carrier).
func Derive(cfg Config) (Plan, error) {
	maxNrb := normalizeRB(cfg.MaxNrb)
	nrbPerPacket := normalizeRB(cfg.NrbPerPacket)

	if cfg.ScsKHz == 0 || cfg.ScsKHz%scsPeriodicityKHz != 0 {
		return Plan{}, fmt.Errorf("%w: scs_khz=%d is not a positive multiple of %d", ErrInfeasible, cfg.ScsKHz, scsPeriodicityKHz)
	}
	if cfg.CaptureSizeMs == 0 || int(cfg.CaptureSizeMs)%framePeriodMs != 0 {
		return Plan{}, fmt.Errorf("%w: capture_size_ms=%d is not a positive multiple of %d", ErrInfeasible, cfg.CaptureSizeMs, framePeriodMs)
	}
	if nrbPerPacket > maxNrb {
		return Plan{}, fmt.Errorf("%w: nrb_per_packet=%d exceeds max_nrb=%d", ErrInfeasible, nrbPerPacket, maxNrb)
	}

	totalBytes := int64(cfg.LineRateGbps) * int64(cfg.CaptureSizeMs) * 1_000_000 / 8
	totalFramesRadio := uint64(cfg.CaptureSizeMs) / framePeriodMs
	slotsPerSubframe := uint64(cfg.ScsKHz) / scsPeriodicityKHz

	packetsPerSymbol := ceilDiv(uint64(maxNrb), uint64(nrbPerPacket))
	packetsPerSlot := packetsPerSymbol * symbolsPerSlot
	packetsPerSubframe := packetsPerSlot * slotsPerSubframe
	packetsPerFrame := packetsPerSubframe * subframesPerFrame
	totalPackets := packetsPerFrame * totalFramesRadio

	iqSamplesPerPacket := 2 * uint64(rePerRB) * uint64(nrbPerPacket)

	return Plan{
		MaxNrb:             maxNrb,
		NrbPerPacket:       nrbPerPacket,
		TotalBytes:         totalBytes,
		TotalFramesRadio:   totalFramesRadio,
		SlotsPerSubframe:   slotsPerSubframe,
		PacketsPerSymbol:   packetsPerSymbol,
		PacketsPerSlot:     packetsPerSlot,
		PacketsPerSubframe: packetsPerSubframe,
		PacketsPerFrame:    packetsPerFrame,
		TotalPackets:       totalPackets,
		IQSamplesPerPacket: iqSamplesPerPacket,
	}, nil
}

// TotalIQSamples returns the total number of IQ samples the plan's packets
// will draw (with wrap-around) across the whole run.
func (p Plan) TotalIQSamples() uint64 {
	return p.IQSamplesPerPacket * p.TotalPackets
}

func normalizeRB(rb uint16) uint16 {
	if rb == 0 {
		return 273
	}
	return rb
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
