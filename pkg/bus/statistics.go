package bus

import (
	"fmt"
	"log/slog"
	"time"
)

// Statistics is a point-in-time snapshot of router activity since Exec
// started. Throughput is dispatched events per second.
type Statistics struct {
	RunTime       time.Duration
	PostCount     uint64
	PostFails     uint64
	DispatchCount uint64
	DispatchFails uint64
	Throughput    float64
}

// Print writes the snapshot through the ambient slog logger.
func (s Statistics) Print() {
	slog.Info("router statistics",
		slog.Duration("run_time", s.RunTime.Round(10*time.Millisecond)),
		slog.Uint64("post_count", s.PostCount),
		slog.Uint64("post_fails", s.PostFails),
		slog.Uint64("dispatch_count", s.DispatchCount),
		slog.Uint64("dispatch_fails", s.DispatchFails),
		slog.String("throughput", fmt.Sprintf("%.2f ev/s", s.Throughput)))
}
