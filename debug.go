package drift

import (
	"fmt"
	"io"
	"os"
	"time"
)

// LogOutput receives every log line the package writes. Defaults to stderr.
var LogOutput io.Writer = os.Stderr

// logf writes a "[drift]"-prefixed line to LogOutput.
func logf(format string, args ...any) {
	_, _ = fmt.Fprintf(LogOutput, "[drift] "+format+"\n", args...)
}

// warnf writes a "[drift] warning:"-prefixed line to LogOutput.
func warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(LogOutput, "[drift] warning: "+format+"\n", args...)
}

// debugStats holds per-frame timing and draw metrics.
type debugStats struct {
	updateTime    time.Duration
	renderTime    time.Duration
	passTimes     [bucketCount]time.Duration
	drawCount     int
	fragmentCount int
	culled        int
}

// debugLog prints timing and draw stats. Only called when Scene.debug is true.
func (s *Scene) debugLog() {
	st := &s.stats
	_, _ = fmt.Fprintf(LogOutput,
		"[drift] update: %v | render: %v | passes: %v %v %v %v %v\n",
		st.updateTime, st.renderTime,
		st.passTimes[0], st.passTimes[1], st.passTimes[2], st.passTimes[3], st.passTimes[4])
	_, _ = fmt.Fprintf(LogOutput,
		"[drift] draws: %d | fragments: %d | culled: %d | nodes: %d/%d/%d/%d/%d\n",
		st.drawCount, st.fragmentCount, st.culled,
		len(s.buckets[BucketStencil]), len(s.buckets[BucketSolid]), len(s.buckets[BucketImage]),
		len(s.buckets[BucketTextBackground]), len(s.buckets[BucketTextShape]))
}

// recordUpdate stores the duration of the last simulation step for debugLog.
func (s *Scene) recordUpdate(d time.Duration) {
	s.stats.updateTime = d
}

// Stats is a snapshot of the last frame's render metrics.
type Stats struct {
	UpdateTime time.Duration
	RenderTime time.Duration
	Draws      int
	Fragments  int
	Culled     int
}

// Stats returns the metrics recorded by the last Render.
func (s *Scene) Stats() Stats {
	return Stats{
		UpdateTime: s.stats.updateTime,
		RenderTime: s.stats.renderTime,
		Draws:      s.stats.drawCount,
		Fragments:  s.stats.fragmentCount,
		Culled:     s.stats.culled,
	}
}
