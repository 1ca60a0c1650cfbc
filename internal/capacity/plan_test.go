package capacity

import (
	"errors"
	"testing"
)

func TestDeriveScenarioS1(t *testing.T) {
	p, err := Derive(Config{
		LineRateGbps: 10, CaptureSizeMs: 10,
		ScsKHz: 15, MaxNrb: 273, NrbPerPacket: 273,
	})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if p.TotalBytes != 12_500_000 {
		t.Fatalf("TotalBytes = %d, want 12500000", p.TotalBytes)
	}
	if p.TotalPackets != 140 {
		t.Fatalf("TotalPackets = %d, want 140", p.TotalPackets)
	}
	if p.PacketsPerSymbol != 1 {
		t.Fatalf("PacketsPerSymbol = %d, want 1", p.PacketsPerSymbol)
	}
	if p.IQSamplesPerPacket != 7644 {
		t.Fatalf("IQSamplesPerPacket = %d, want 7644", p.IQSamplesPerPacket)
	}
}

func TestDeriveScenarioS2(t *testing.T) {
	p, err := Derive(Config{
		LineRateGbps: 10, CaptureSizeMs: 10,
		ScsKHz: 15, MaxNrb: 273, NrbPerPacket: 51,
	})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if p.PacketsPerSymbol != 6 {
		t.Fatalf("PacketsPerSymbol = %d, want 6 (ceil(273/51))", p.PacketsPerSymbol)
	}
}

func TestDeriveScenarioS3(t *testing.T) {
	p, err := Derive(Config{
		LineRateGbps: 10, CaptureSizeMs: 10,
		ScsKHz: 30, MaxNrb: 273, NrbPerPacket: 273,
	})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if p.SlotsPerSubframe != 2 {
		t.Fatalf("SlotsPerSubframe = %d, want 2", p.SlotsPerSubframe)
	}
	if p.PacketsPerSubframe != 2*p.PacketsPerSlot {
		t.Fatalf("PacketsPerSubframe = %d, want %d", p.PacketsPerSubframe, 2*p.PacketsPerSlot)
	}
}

func TestDeriveZeroRBNormalizedTo273(t *testing.T) {
	p, err := Derive(Config{LineRateGbps: 1, CaptureSizeMs: 10, ScsKHz: 15, MaxNrb: 0, NrbPerPacket: 0})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if p.MaxNrb != 273 || p.NrbPerPacket != 273 {
		t.Fatalf("MaxNrb=%d NrbPerPacket=%d, want both 273", p.MaxNrb, p.NrbPerPacket)
	}
}

func TestDeriveRejectsNonMultipleSCS(t *testing.T) {
	_, err := Derive(Config{LineRateGbps: 1, CaptureSizeMs: 10, ScsKHz: 20, MaxNrb: 273, NrbPerPacket: 273})
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

func TestDeriveRejectsNonMultipleCaptureSize(t *testing.T) {
	_, err := Derive(Config{LineRateGbps: 1, CaptureSizeMs: 7, ScsKHz: 15, MaxNrb: 273, NrbPerPacket: 273})
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

func TestDeriveRejectsOversizedNrbPerPacket(t *testing.T) {
	_, err := Derive(Config{LineRateGbps: 1, CaptureSizeMs: 10, ScsKHz: 15, MaxNrb: 50, NrbPerPacket: 100})
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}
