package idivc

import (
	"errors"
	"fmt"
	"time"
)

// EventReader is the part of SequentialReader used by the event loop.
type EventReader interface {
	Entries() int64
	ReadEvent(index int64, ev *RawEvent) error
	Switches() int
}

// Processor runs the read, reduce, write loop.
type Processor struct {
	Reader  EventReader
	Engine  *Engine
	Sink    Sink
	Metrics *Metrics
}

// EventsToProcess applies the max-events limit. A limit <= 0 means no limit.
func EventsToProcess(available int64, maxEvents int64) int64 {
	if maxEvents > 0 && available > maxEvents {
		return maxEvents
	}
	return available
}

// Run processes events 0..nEvents-1 in order and returns how many were
// written. Any error stops the loop: there is no per-event skip.
func (p *Processor) Run(nEvents int64) (int64, error) {
	ev := NewRawEvent()
	start := time.Now()
	freq := progressFrequency(nEvents)

	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Working on %d events", nEvents), "idivc")
	}
	var written int64
	for i := int64(0); i < nEvents; i++ {
		if err := p.Reader.ReadEvent(i, ev); err != nil {
			return written, err
		}
		out := p.Engine.Reduce(ev)
		if p.Metrics != nil {
			p.Metrics.observeEvent(out)
		}
		if err := p.Sink.Write(out); err != nil {
			return written, err
		}
		written++
		if p.Metrics != nil {
			p.Metrics.observeWrite()
		}
		if verbosity > 0 && written%freq == 0 {
			logger.Info(fmt.Sprintf("Processed event %d of %d", written, nEvents), "idivc")
		}
	}

	elapsed := time.Since(start)
	if p.Metrics != nil {
		p.Metrics.observeRun(p.Reader.Switches(), elapsed)
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("All done working: %d events in %d ms", written, elapsed.Milliseconds()), "idivc")
	}
	return written, nil
}

// Finish closes the sink after Run. A failed run leaves no output behind:
// the sink is aborted and runErr is returned with any abort error.
func (p *Processor) Finish(runErr error) error {
	if runErr != nil {
		return errors.Join(runErr, p.Sink.Abort())
	}
	return p.Sink.Close()
}

func progressFrequency(nEvents int64) int64 {
	freq := nEvents / 10
	if freq < 1 {
		freq = 1
	}
	return freq
}
