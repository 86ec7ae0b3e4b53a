package idivc

import (
	"errors"
	"fmt"
)

// Container is one input file: an append-only series of raw events plus the
// entry count of its companion reconciliation series.
type Container interface {
	Name() string
	Entries() int64
	ReconciliationEntries() int64
	// ReadEntry fills ev with the local-th entry of the container.
	ReadEntry(local int64, ev *RawEvent) error
	Close() error
}

type manifestEntry struct {
	container Container
	offset    int64
}

// SequentialReader presents several containers as a single event index
// space. Only sequential reads are supported: random reads work inside the
// active container, but jumping to another container is only possible by
// reading the first event of the next one or by rewinding to event 0.
type SequentialReader struct {
	manifest []manifestEntry
	total    int64

	current   int
	offset    int64
	nextBreak int64
	switches  int
}

func NewSequentialReader(containers []Container) (*SequentialReader, error) {
	if len(containers) == 0 {
		return nil, ErrNoInput
	}
	r := &SequentialReader{
		manifest: make([]manifestEntry, 0, len(containers)),
	}
	var recoEntries int64
	for _, c := range containers {
		r.manifest = append(r.manifest, manifestEntry{container: c, offset: r.total})
		r.total += c.Entries()
		recoEntries += c.ReconciliationEntries()
		if verbosity > 1 {
			message := fmt.Sprintf("Loaded %s: %d entries, starting at event %d", c.Name(), c.Entries(), r.manifest[len(r.manifest)-1].offset)
			logger.Info(message, "reader")
		}
	}
	if r.total != recoEntries {
		return nil, &ErrEntryMismatch{HitEntries: r.total, RecoEntries: recoEntries}
	}
	r.Rewind()
	return r, nil
}

func (r *SequentialReader) Entries() int64 {
	return r.total
}

// Switches returns the number of containers activated since the last rewind.
func (r *SequentialReader) Switches() int {
	return r.switches
}

// Rewind makes the next read start from the first container.
func (r *SequentialReader) Rewind() {
	r.current = -1
	r.offset = 0
	r.nextBreak = 0
	r.switches = 0
}

// ReadEvent fills ev with the event at the global index. Reading index 0
// always rewinds.
func (r *SequentialReader) ReadEvent(index int64, ev *RawEvent) error {
	if index < 0 || index >= r.total {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, r.total)
	}
	if index == 0 {
		r.Rewind()
	}
	if index >= r.nextBreak {
		if index != r.nextBreak {
			return fmt.Errorf("%w: event %d requested, next container starts at %d", ErrNonSequential, index, r.nextBreak)
		}
		r.advance(index)
	} else if index < r.offset {
		return fmt.Errorf("%w: event %d is before the active container (starts at %d)", ErrNonSequential, index, r.offset)
	}

	entry := r.manifest[r.current]
	ev.Reset()
	if err := entry.container.ReadEntry(index-r.offset, ev); err != nil {
		return fmt.Errorf("error reading event %d from %s: %w", index, entry.container.Name(), err)
	}
	return nil
}

// advance activates the container holding index, skipping empty ones.
func (r *SequentialReader) advance(index int64) {
	for index >= r.nextBreak {
		r.current++
		r.offset = r.manifest[r.current].offset
		r.nextBreak = r.offset + r.manifest[r.current].container.Entries()
	}
	r.switches++
	if verbosity > 1 {
		message := fmt.Sprintf("Reading %s from event %d", r.manifest[r.current].container.Name(), index)
		logger.Info(message, "reader")
	}
}

func (r *SequentialReader) Close() error {
	var errs []error
	for _, entry := range r.manifest {
		if err := entry.container.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", entry.container.Name(), err))
		}
	}
	return errors.Join(errs...)
}
