package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Latency aggregates request latencies in an HdrHistogram (1us to 60s,
// 3 significant digits). It is safe for concurrent use.
type Latency struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	total    atomic.Int64
	success  atomic.Int64
	errors   atomic.Int64
	timeouts atomic.Int64

	startTime time.Time
	endTime   time.Time
}

// Summary is a point-in-time view of a Latency recorder.
type Summary struct {
	Duration     time.Duration
	Count        int64
	SuccessCount int64
	ErrorCount   int64
	TimeoutCount int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	Min    time.Duration
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
	StdDev time.Duration
}

func NewLatency() *Latency {
	return &Latency{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		startTime: time.Now(),
	}
}

// Install registers the recorder's interceptors on c.
func (l *Latency) Install(c *client.Client) {
	c.Interceptors.Request.Use(stampStart, nil)
	c.Interceptors.Response.Use(observe(l.recordOutcome))
}

func (l *Latency) recordOutcome(o outcome) {
	if o.code == client.CodeTimeout {
		l.timeouts.Add(1)
	}
	l.Record(o.duration, o.err)
}

// Record adds one request result.
func (l *Latency) Record(duration time.Duration, err error) {
	l.total.Add(1)
	if err != nil {
		l.errors.Add(1)
	} else {
		l.success.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	l.mu.Lock()
	_ = l.histogram.RecordValue(latencyUs)
	l.mu.Unlock()
}

// Stop freezes the wall-clock duration used for RPS.
func (l *Latency) Stop() {
	l.mu.Lock()
	l.endTime = time.Now()
	l.mu.Unlock()
}

func (l *Latency) Snapshot() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	duration := l.endTime.Sub(l.startTime)
	if l.endTime.IsZero() {
		duration = time.Since(l.startTime)
	}

	total := l.total.Load()
	success := l.success.Load()
	errors := l.errors.Load()

	s := Summary{
		Duration:     duration,
		Count:        total,
		SuccessCount: success,
		ErrorCount:   errors,
		TimeoutCount: l.timeouts.Load(),
		Min:          usToDuration(l.histogram.Min()),
		Mean:         time.Duration(l.histogram.Mean()) * time.Microsecond,
		P50:          usToDuration(l.histogram.ValueAtQuantile(50)),
		P95:          usToDuration(l.histogram.ValueAtQuantile(95)),
		P99:          usToDuration(l.histogram.ValueAtQuantile(99)),
		Max:          usToDuration(l.histogram.Max()),
		StdDev:       time.Duration(l.histogram.StdDev()) * time.Microsecond,
	}

	if duration.Seconds() > 0 {
		s.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		s.SuccessRate = float64(success) / float64(total)
		s.ErrorRate = float64(errors) / float64(total)
	}

	return s
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
