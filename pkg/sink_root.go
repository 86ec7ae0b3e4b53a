package idivc

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

const (
	OutputTree      = "idivc"
	OutputTreeTitle = "ID and IV time correction tree"
	ProvenanceTree  = "provenance"
)

// ROOTSink writes one entry per reduced event to the idivc tree.
type ROOTSink struct {
	path    string
	file    *groot.File
	tree    rtree.Writer
	prov    Provenance
	written int64

	timeid     float64
	timeiv     float64
	firstidpmt int32
	firstivpmt int32
}

func CreateROOTSink(path string, clobber bool, prov Provenance) (*ROOTSink, error) {
	if err := checkOutput(path, clobber); err != nil {
		return nil, err
	}
	f, err := groot.Create(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}

	s := &ROOTSink{path: path, file: f, prov: prov}
	wvars := []rtree.WriteVar{
		{Name: "timeid", Value: &s.timeid},
		{Name: "timeiv", Value: &s.timeiv},
		{Name: "firstidpmt", Value: &s.firstidpmt},
		{Name: "firstivpmt", Value: &s.firstivpmt},
	}
	tree, err := rtree.NewWriter(f, OutputTree, wvars, rtree.WithTitle(OutputTreeTitle))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating tree %s in %s: %w", OutputTree, path, err)
	}
	s.tree = tree
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", path), "writer")
	}
	return s, nil
}

func (s *ROOTSink) Write(ev ReducedEvent) error {
	s.timeid = ev.TimeID
	s.timeiv = ev.TimeIV
	s.firstidpmt = ev.FirstIDPMT
	s.firstivpmt = ev.FirstIVPMT
	if _, err := s.tree.Write(); err != nil {
		return fmt.Errorf("error writing event %d to %s: %w", s.written, s.path, err)
	}
	s.written++
	return nil
}

func (s *ROOTSink) Written() int64 {
	return s.written
}

func (s *ROOTSink) Close() error {
	var errs []error
	if err := s.tree.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing %s tree: %w", OutputTree, err))
	}
	if err := s.writeProvenance(); err != nil {
		errs = append(errs, err)
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file %s: %w", s.path, err))
	}
	return errors.Join(errs...)
}

func (s *ROOTSink) Abort() error {
	var errs []error
	if err := s.tree.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing %s tree: %w", OutputTree, err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file %s: %w", s.path, err))
	}
	if err := removeOutput(s.path); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *ROOTSink) writeProvenance() error {
	var key, value string
	wvars := []rtree.WriteVar{
		{Name: "key", Value: &key},
		{Name: "value", Value: &value},
	}
	tree, err := rtree.NewWriter(s.file, ProvenanceTree, wvars, rtree.WithTitle("idivc provenance"))
	if err != nil {
		return fmt.Errorf("error creating tree %s: %w", ProvenanceTree, err)
	}
	for _, entry := range s.prov.entries(s.written) {
		key, value = entry[0], entry[1]
		if _, err := tree.Write(); err != nil {
			tree.Close()
			return fmt.Errorf("error writing provenance %s: %w", key, err)
		}
	}
	if err := tree.Close(); err != nil {
		return fmt.Errorf("error closing %s tree: %w", ProvenanceTree, err)
	}
	return nil
}
