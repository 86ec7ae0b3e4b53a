package idivc

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// InputLayout names the trees and branches read from the input files.
type InputLayout struct {
	HitTree         string
	StartTimeBranch string
	// SensorIDBranch is optional: files without it are mapped with the
	// channel map.
	SensorIDBranch string
	RecoTree       string
}

func DefaultInputLayout() InputLayout {
	return InputLayout{
		HitTree:         "PulseSlideWinInfoTree",
		StartTimeBranch: "fTstart_raw",
		SensorIDBranch:  "fPMTId",
		RecoTree:        "GlobalInfoTree",
	}
}

var errStopScan = errors.New("stop scan")

// ROOTContainer reads raw events from the hit tree of one ROOT file.
// Entries are streamed with a single tree reader; the reader is only
// recreated when the requested entry is not the next one.
type ROOTContainer struct {
	path        string
	file        *groot.File
	hits        rtree.Tree
	recoEntries int64
	layout      InputLayout
	hasIDs      bool

	reader  *rtree.Reader
	next    func() (int64, bool)
	stop    func()
	cursor  int64
	scanErr error

	tstart [NChannelSlots]float64
	ids    [NChannelSlots]int32
}

func OpenROOTContainer(path string, layout InputLayout) (*ROOTContainer, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}

	hits, err := getTree(f, layout.HitTree)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if hits.Branch(layout.StartTimeBranch) == nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w: %s in %s", path, ErrMissingBranch, layout.StartTimeBranch, layout.HitTree)
	}
	reco, err := getTree(f, layout.RecoTree)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c := &ROOTContainer{
		path:        path,
		file:        f,
		hits:        hits,
		recoEntries: reco.Entries(),
		layout:      layout,
		hasIDs:      layout.SensorIDBranch != "" && hits.Branch(layout.SensorIDBranch) != nil,
	}
	if verbosity > 1 && !c.hasIDs {
		logger.Info(fmt.Sprintf("%s has no sensor id branch, using the channel map", path), "reader")
	}
	return c, nil
}

func getTree(f *groot.File, name string) (rtree.Tree, error) {
	obj, err := f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingTree, name, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrMissingTree, name, obj.Class())
	}
	return tree, nil
}

// OpenROOTInputs opens every input file in order and builds the reader over
// them. Files already opened are closed if a later one fails.
func OpenROOTInputs(paths []string, layout InputLayout) (*SequentialReader, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	containers := make([]Container, 0, len(paths))
	closeAll := func() {
		for _, c := range containers {
			c.Close()
		}
	}
	for _, path := range paths {
		c, err := OpenROOTContainer(path, layout)
		if err != nil {
			closeAll()
			return nil, err
		}
		containers = append(containers, c)
		if verbosity > 0 {
			logger.Info(fmt.Sprintf("Loaded %s", path), "reader")
		}
	}
	r, err := NewSequentialReader(containers)
	if err != nil {
		closeAll()
		return nil, err
	}
	return r, nil
}

func (c *ROOTContainer) Name() string {
	return c.path
}

func (c *ROOTContainer) Entries() int64 {
	return c.hits.Entries()
}

func (c *ROOTContainer) ReconciliationEntries() int64 {
	return c.recoEntries
}

func (c *ROOTContainer) ReadEntry(local int64, ev *RawEvent) error {
	if local < 0 || local >= c.hits.Entries() {
		return fmt.Errorf("%w: entry %d of %s", ErrOutOfRange, local, c.path)
	}
	if c.next == nil || local != c.cursor {
		if err := c.seek(local); err != nil {
			return err
		}
	}
	entry, ok := c.next()
	if !ok {
		err := c.scanErr
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		c.release()
		return fmt.Errorf("could not read entry %d of %s: %w", local, c.path, err)
	}
	c.cursor = entry + 1

	ev.StartTime = c.tstart
	if c.hasIDs {
		ev.SensorID = c.ids
		ev.HasSensorIDs = true
	}
	return nil
}

func (c *ROOTContainer) seek(local int64) error {
	c.release()

	rvars := []rtree.ReadVar{{Name: c.layout.StartTimeBranch, Value: &c.tstart}}
	if c.hasIDs {
		rvars = append(rvars, rtree.ReadVar{Name: c.layout.SensorIDBranch, Value: &c.ids})
	}
	r, err := rtree.NewReader(c.hits, rvars, rtree.WithRange(local, c.hits.Entries()))
	if err != nil {
		return fmt.Errorf("could not create reader for %s: %w", c.path, err)
	}
	c.reader = r
	c.scanErr = nil
	c.next, c.stop = iter.Pull(func(yield func(int64) bool) {
		err := r.Read(func(ctx rtree.RCtx) error {
			if !yield(ctx.Entry) {
				return errStopScan
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopScan) {
			c.scanErr = err
		}
	})
	c.cursor = local
	return nil
}

func (c *ROOTContainer) release() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
		c.next = nil
	}
	if c.reader != nil {
		c.reader.Close()
		c.reader = nil
	}
}

func (c *ROOTContainer) Close() error {
	c.release()
	return c.file.Close()
}
