package trader

import (
	"context"
	"time"
)

// StartLoop runs ScanAndTrade now and then every interval until ctx is
// done or StopLoop is called. Only one loop runs at a time.
func (o *Orchestrator) StartLoop(ctx context.Context, interval time.Duration) error {
	o.loopMu.Lock()
	defer o.loopMu.Unlock()

	if o.loopDone != nil {
		return ErrLoopRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.loopCancel, o.loopDone = cancel, done

	go o.runLoop(ctx, interval, done)

	o.logger.Info("trading loop started", "interval", interval, "dry_run", o.cfg.DryRun)
	return nil
}

// StopLoop cancels the loop and waits up to timeout for the running scan
// to return.
func (o *Orchestrator) StopLoop(timeout time.Duration) error {
	o.loopMu.Lock()
	cancel, done := o.loopCancel, o.loopDone
	o.loopMu.Unlock()

	if done == nil {
		return nil
	}
	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		o.logger.Info("trading loop stopped")
		return nil
	case <-timer.C:
		o.logger.Warn("trading loop did not stop in time", "timeout", timeout)
		return ErrStopTimeout
	}
}

// Running reports whether the loop is active.
func (o *Orchestrator) Running() bool {
	o.loopMu.Lock()
	defer o.loopMu.Unlock()
	return o.loopDone != nil
}

func (o *Orchestrator) runLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer func() {
		o.loopMu.Lock()
		o.loopCancel, o.loopDone = nil, nil
		o.loopMu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		trades, err := o.ScanAndTrade(ctx)
		if err != nil && ctx.Err() == nil {
			o.logger.Error("scan failed", "error", err)
		} else if len(trades) > 0 {
			o.logger.Info("scan placed trades", "count", len(trades))
		}

		timer.Reset(interval)
	}
}
