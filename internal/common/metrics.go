package common

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Metrics tracks what one generation run puts on the wire. Ethernet frame
// octets and trailing IFG filler are counted separately, so the run can
// report line utilization (frame octets versus pure gap) alongside raw
// emission throughput, and the observed frame-length spread confirms
// every frame came out the same size.
//
// A mutex guards the counters: the CLI's progress printer snapshots them
// from its own goroutine while the assembler loop is still appending.
type Metrics struct {
	mu         sync.Mutex
	start      time.Time
	end        time.Time
	totalBytes int64
	frameBytes int64
	ifgBytes   int64
	frames     int64
	minFrame   int64
	maxFrame   int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
	m.mu.Unlock()
}

// SetTotalBytes records the planned byte budget so snapshots can report
// completion against it.
func (m *Metrics) SetTotalBytes(total int64) {
	if total < 0 {
		total = 0
	}
	m.mu.Lock()
	m.totalBytes = total
	m.mu.Unlock()
}

// AddFrame records one emitted Ethernet frame of the given length,
// inclusive of its per-frame IFG tail and alignment padding.
func (m *Metrics) AddFrame(size int64) {
	if size <= 0 {
		return
	}
	m.mu.Lock()
	m.frameBytes += size
	m.frames++
	if m.minFrame == 0 || size < m.minFrame {
		m.minFrame = size
	}
	if size > m.maxFrame {
		m.maxFrame = size
	}
	m.mu.Unlock()
}

// AddTrailingIFG records the gap octets appended after the last frame to
// fill the capture window's byte budget.
func (m *Metrics) AddTrailingIFG(n int64) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.ifgBytes += n
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Duration:   m.elapsedLocked(),
		TotalBytes: m.totalBytes,
		FrameBytes: m.frameBytes,
		IFGBytes:   m.ifgBytes,
		Frames:     m.frames,
		MinFrame:   m.minFrame,
		MaxFrame:   m.maxFrame,
	}
}

func (m *Metrics) elapsedLocked() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

// MetricsSnapshot is a point-in-time copy of a run's counters plus the
// derived quantities the CLI prints.
type MetricsSnapshot struct {
	Duration   time.Duration
	TotalBytes int64
	FrameBytes int64
	IFGBytes   int64
	Frames     int64
	MinFrame   int64
	MaxFrame   int64
}

// EmittedBytes is everything written to the output buffer so far: frame
// octets plus trailing IFG filler.
func (s MetricsSnapshot) EmittedBytes() int64 {
	return s.FrameBytes + s.IFGBytes
}

func (s MetricsSnapshot) ThroughputBytesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.EmittedBytes()) / s.Duration.Seconds()
}

// Completion reports emitted bytes against the planned budget, clamped
// to [0, 1]; 0 when no budget was set.
func (s MetricsSnapshot) Completion() float64 {
	if s.TotalBytes <= 0 {
		return 0
	}
	ratio := float64(s.EmittedBytes()) / float64(s.TotalBytes)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// LineUtilization is the fraction of emitted octets that belong to
// Ethernet frames rather than trailing gap filler. A low value means the
// configured line rate far outruns what the packet schedule fills.
func (s MetricsSnapshot) LineUtilization() float64 {
	emitted := s.EmittedBytes()
	if emitted <= 0 {
		return 0
	}
	return float64(s.FrameBytes) / float64(emitted)
}

// MeanFrameLen is the average emitted frame length in octets. Together
// with MinFrame/MaxFrame it confirms the fixed per-packet geometry: for a
// healthy run all three are equal.
func (s MetricsSnapshot) MeanFrameLen() float64 {
	if s.Frames == 0 {
		return 0
	}
	return float64(s.FrameBytes) / float64(s.Frames)
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(b int64) string {
	units := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	v := float64(b) / 1024
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

func formatProgressLine(s MetricsSnapshot) string {
	throughput := s.ThroughputBytesPerSecond() / (1024 * 1024)
	if s.TotalBytes > 0 {
		return fmt.Sprintf("Progress: %6.2f%%  %d frames  %s / %s  %.2f MiB/s",
			s.Completion()*100, s.Frames, FormatBytes(s.EmittedBytes()), FormatBytes(s.TotalBytes), throughput)
	}
	return fmt.Sprintf("Emitted: %d frames  %s  %.2f MiB/s", s.Frames, FormatBytes(s.EmittedBytes()), throughput)
}

// StartProgressPrinter prints a self-overwriting progress line to w every
// interval until the returned stop function is called. The stop function
// blocks until the line has been cleared.
func StartProgressPrinter(w io.Writer, m *Metrics, interval time.Duration) func() {
	if m == nil || w == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		width := 0
		for {
			select {
			case <-done:
				if width > 0 {
					fmt.Fprintf(w, "\r%s\r\n", strings.Repeat(" ", width))
				}
				return
			case <-ticker.C:
				line := formatProgressLine(m.Snapshot())
				if pad := width - len(line); pad > 0 {
					line += strings.Repeat(" ", pad)
				}
				fmt.Fprint(w, "\r"+line)
				width = len(line)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
