// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	applog "visualizer/internal/log"
)

// Publisher periodically copies the bar heights out of a BandSource and hands
// them to every transport. It runs in its own goroutine between Start and
// Stop; the frame loop never waits on it.
type Publisher struct {
	source     BandSource
	transports []Transport
	interval   time.Duration
	now        func() time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	// Pre-allocated buffers, reused for every frame.
	bands []float64
	frame Frame
}

// NewPublisher creates a publisher. An interval <= 0 defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, source BandSource, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("publisher: band source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, errors.New("publisher: no transports")
	}
	for i, t := range transports {
		if t == nil {
			return nil, fmt.Errorf("publisher: transport %d is nil", i)
		}
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	n := source.NumBands()
	applog.Infof("Publisher: Initializing (Interval: %s, Bands: %d, Transports: %d)", interval, n, len(transports))
	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		now:        time.Now,
		bands:      make([]float64, n),
		frame:      Frame{Bands: make([]float32, n)},
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("Publisher: goroutine started")
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop ends the publishing goroutine and waits for it. Safe to call more
// than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("Publisher: stopped after %d frames", p.frame.Seq)
	return nil
}

// publish sends one frame to every transport.
func (p *Publisher) publish() {
	if err := p.source.BandsInto(p.bands); err != nil {
		applog.Errorf("Publisher: Error getting bands: %v", err)
		return
	}
	for i, v := range p.bands {
		p.frame.Bands[i] = float32(v)
	}
	p.frame.Seq++
	p.frame.Timestamp = p.now()

	for _, t := range p.transports {
		if err := t.Send(&p.frame); err != nil {
			applog.Debugf("Publisher: frame %d: %v", p.frame.Seq, err)
		}
	}
}

// Close stops the publisher and closes every transport.
func (p *Publisher) Close() error {
	errs := []error{p.Stop()}
	for _, t := range p.transports {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}
