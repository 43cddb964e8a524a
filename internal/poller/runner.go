// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"time"
)

// RunOnce performs exactly one cycle, then drains the session.
func RunOnce(s *Session) Statistics {
	if s.state == Idle {
		s.state = Executing
		_, _ = s.cycle(context.Background(), nil)
	}
	s.drain()
	return s.stats
}

// RunContinuous repeats the cycle until ctx is cancelled, the session is
// not polling, or stream input runs out. It waits the poll rate between
// cycles. No overlap. No retries. Statistics are reported once on exit.
func RunContinuous(ctx context.Context, s *Session, onResult ResultFunc) Statistics {
	defer s.drain()
	if s.state != Idle {
		return s.stats
	}

	for {
		s.state = Executing
		more, err := s.cycle(ctx, onResult)
		if err != nil || !more || !s.polling {
			return s.stats
		}

		s.state = Waiting
		if !wait(ctx, s.pollRate) {
			return s.stats
		}
	}
}

// cycle issues every request of one cycle. It returns false when the run
// must stop: context cancelled between requests or stream input exhausted.
func (s *Session) cycle(ctx context.Context, onResult ResultFunc) (bool, error) {
	lastSlave := -1
	for i, req := range s.requests() {
		if i > 0 && ctx.Err() != nil {
			return false, nil
		}
		if !req.Kind.IsWrite() && req.Slave != lastSlave {
			s.sink.Begin(req.Slave)
			lastSlave = req.Slave
		}

		res, err := s.execute(req)
		s.sink.Emit(res)
		if onResult != nil {
			onResult(res)
		}
		if errors.Is(err, errStreamEnd) {
			return false, err
		}
	}
	return ctx.Err() == nil, nil
}

// wait sleeps d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// drain is the single exit path: statistics are reported once, then the
// transport and the RTS line are released.
func (s *Session) drain() {
	if s.drained {
		return
	}
	s.drained = true
	s.state = Draining

	snap := s.Snapshot()
	s.sink.Report(snap)

	if s.metricsFile != "" {
		if err := writeMetrics(s.metricsFile, snap); err != nil {
			s.log.Warn().Err(err).Str("path", s.metricsFile).Msg("metrics export failed")
		}
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Debug().Err(err).Msg("release failed")
		}
	}
	s.closers = nil
	s.buf = nil
	s.state = Stopped
}
