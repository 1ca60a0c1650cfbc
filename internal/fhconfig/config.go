// Package fhconfig reads the key=value configuration file that describes
// one generation run: line rate, capture window, Ethernet addressing, and
// the O-RAN numerology and payload sourcing.
package fhconfig

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrReadFailure is returned when the configuration file cannot be opened
// or read.
var ErrReadFailure = errors.New("fhconfig: cannot read configuration")

// ErrParseError is returned when a recognized key's value is not a valid
// integer (decimal, or hex when prefixed "0x").
var ErrParseError = errors.New("fhconfig: malformed integer value")

// ErrInvalidPayloadType is returned when Oran.PayloadType is neither
// "fixed" nor "random".
var ErrInvalidPayloadType = errors.New("fhconfig: Oran.PayloadType must be \"fixed\" or \"random\"")

// PayloadType enumerates the two supported IQ sourcing modes.
type PayloadType string

const (
	PayloadFixed  PayloadType = "fixed"
	PayloadRandom PayloadType = "random"
)

// Config holds every recognized key's parsed value, immutable for a run.
type Config struct {
	LineRateGbps       uint8
	CaptureSizeMs      uint8
	MinIFGsPerPacket   uint8
	DestMAC            [6]byte
	SrcMAC             [6]byte
	MaxPacketSize      uint16
	ScsKHz             uint16
	MaxNrb             uint16
	NrbPerPacket       uint16
	PayloadType        PayloadType
	IQSampleSourcePath string
}

// keys recognized from the configuration file.
const (
	keyLineRate      = "Eth.LineRate"
	keyCaptureSizeMs = "Eth.CaptureSizeMs"
	keyMinIFGs       = "Eth.MinNumOfIFGsPerPacket"
	keyDestAddress   = "Eth.DestAddress"
	keySourceAddress = "Eth.SourceAddress"
	keyMaxPacketSize = "Eth.MaxPacketSize"
	keySCS           = "Oran.SCS"
	keyMaxNrb        = "Oran.MaxNrb"
	keyNrbPerPacket  = "Oran.NrbPerPacket"
	keyPayloadType   = "Oran.PayloadType"
	keyPayload       = "Oran.Payload"
)

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrReadFailure, path, err)
	}
	defer f.Close()

	raw := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := stripWhitespace(scanner.Text())
		if line == "" {
			continue
		}
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		if line == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := line[:eq]
		value := line[eq+1:]
		raw[key] = value
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrReadFailure, path, err)
	}

	var cfg Config
	var perr error
	u8 := func(key string) uint8 { v, e := parseUint(raw[key], 8); setErr(&perr, key, e); return uint8(v) }
	u16 := func(key string) uint16 { v, e := parseUint(raw[key], 16); setErr(&perr, key, e); return uint16(v) }
	mac := func(key string) [6]byte {
		v, e := parseUint(raw[key], 48)
		setErr(&perr, key, e)
		return macBytes(v)
	}

	cfg.LineRateGbps = u8(keyLineRate)
	cfg.CaptureSizeMs = u8(keyCaptureSizeMs)
	cfg.MinIFGsPerPacket = u8(keyMinIFGs)
	cfg.DestMAC = mac(keyDestAddress)
	cfg.SrcMAC = mac(keySourceAddress)
	cfg.MaxPacketSize = u16(keyMaxPacketSize)
	cfg.ScsKHz = u16(keySCS)
	cfg.MaxNrb = u16(keyMaxNrb)
	cfg.NrbPerPacket = u16(keyNrbPerPacket)
	cfg.IQSampleSourcePath = raw[keyPayload]
	if perr != nil {
		return Config{}, perr
	}

	switch PayloadType(raw[keyPayloadType]) {
	case PayloadFixed:
		cfg.PayloadType = PayloadFixed
	case PayloadRandom:
		cfg.PayloadType = PayloadRandom
	default:
		return Config{}, fmt.Errorf("%w: got %q", ErrInvalidPayloadType, raw[keyPayloadType])
	}

	return cfg, nil
}

func setErr(dst *error, key string, err error) {
	if err != nil && *dst == nil {
		*dst = fmt.Errorf("%w: key %s: %v", ErrParseError, key, err)
	}
}

// parseUint parses a base-16 value when prefixed "0x", else base-10. An
// empty string parses as zero: missing keys are tolerated here, and the
// planner is what rejects a zero value it cannot work with.
func parseUint(s string, bitSize int) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, bitSize)
	}
	return strconv.ParseUint(s, 10, bitSize)
}

func macBytes(v uint64) [6]byte {
	var b [6]byte
	for i := 5; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\v' || r == '\f' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
