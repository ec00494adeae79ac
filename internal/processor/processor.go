package processor

import (
	"context"
	"errors"
	"time"
)

// Start returns abandoned PROCESSING events to PENDING and begins polling
// for due work.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("processor already started")
	}
	p.started = true
	p.mu.Unlock()

	n, err := p.repo.RequeueProcessing(ctx, p.now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		p.l.Warnf(ctx, "processor.Start: requeued %d abandoned events", n)
	}

	p.wg.Add(1)
	go p.poll()

	p.l.Infof(ctx, "processor.Start: workers=%d max_retries=%d poll=%s mode=%s",
		p.opts.Workers, p.opts.MaxRetries, p.opts.PollInterval, p.opts.RateLimitMode)
	return nil
}

// Shutdown stops picking up events and waits for in-flight ones. When ctx
// expires first, in-flight work is cancelled and its events go back to PENDING.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return nil
	}
	p.stopping = true
	close(p.stop)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelWork()
		p.l.Info(ctx, "processor.Shutdown: drained")
		return nil
	case <-ctx.Done():
		p.cancelWork()
		<-done
		p.l.Warn(ctx, "processor.Shutdown: deadline reached, in-flight work cancelled")
		return ctx.Err()
	}
}

// Signal wakes the lane of a connection. It never blocks.
func (p *Processor) Signal(connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopping || connectionID == "" {
		return
	}
	if ln, ok := p.lanes[connectionID]; ok {
		ln.again = true
		return
	}
	p.lanes[connectionID] = &lane{}
	p.wg.Add(1)
	go p.runLane(connectionID)
}

func (p *Processor) poll() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	p.pollOnce()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *Processor) pollOnce() {
	ids, err := p.repo.DueConnections(p.workCtx, p.now().UTC(), p.opts.PollBatch)
	if err != nil {
		p.l.Errorf(p.workCtx, "processor.poll: %v", err)
		return
	}
	for _, id := range ids {
		p.Signal(id)
	}
}

// runLane processes the connection's events one at a time in receipt order.
func (p *Processor) runLane(connectionID string) {
	defer p.wg.Done()

	for {
		p.drain(connectionID)

		p.mu.Lock()
		ln := p.lanes[connectionID]
		if ln.again && !p.stopping {
			ln.again = false
			p.mu.Unlock()
			continue
		}
		delete(p.lanes, connectionID)
		p.mu.Unlock()
		return
	}
}

// drain handles head events while they are due. It returns when the lane is
// empty, the head is waiting for its back-off, or the processor is stopping.
func (p *Processor) drain(connectionID string) {
	for {
		select {
		case <-p.stop:
			return
		case p.sem <- struct{}{}:
		}

		more := p.step(connectionID)
		<-p.sem
		if !more {
			return
		}
	}
}
