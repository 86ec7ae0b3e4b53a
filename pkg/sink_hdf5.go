//go:build hdf5

package idivc

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// HDF5Sink writes the reduced events to the IDIV/events table.
type HDF5Sink struct {
	File            *hdf5.File
	Filename        string
	RunGroup        *hdf5.Group
	IDIVGroup       *hdf5.Group
	EventTable      *hdf5.Dataset
	ProvenanceTable *hdf5.Dataset
	Provenance      Provenance
	EvtCounter      int64
}

func CreateHDF5Sink(filename string, clobber bool, prov Provenance, compression int) (*HDF5Sink, error) {
	if err := checkOutput(filename, clobber); err != nil {
		return nil, err
	}
	file, err := openFile(filename, clobber)
	if err != nil {
		return nil, err
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")
	}

	writer := &HDF5Sink{File: file, Filename: filename, Provenance: prov}
	if writer.RunGroup, err = createGroup(file, "Run"); err != nil {
		writer.Abort()
		return nil, err
	}
	if writer.IDIVGroup, err = createGroup(file, "IDIV"); err != nil {
		writer.Abort()
		return nil, err
	}
	if writer.EventTable, err = createTable(writer.IDIVGroup, "events", ReducedEventHDF5{}, compression); err != nil {
		writer.Abort()
		return nil, err
	}
	if writer.ProvenanceTable, err = createTable(writer.RunGroup, "provenance", ProvenanceHDF5{}, compression); err != nil {
		writer.Abort()
		return nil, err
	}
	return writer, nil
}

func (w *HDF5Sink) Write(ev ReducedEvent) error {
	entry := ReducedEventHDF5{
		timeid:     ev.TimeID,
		timeiv:     ev.TimeIV,
		firstidpmt: ev.FirstIDPMT,
		firstivpmt: ev.FirstIVPMT,
	}
	if err := writeEntryToTable(w.EventTable, entry, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event %d to %s: %w", w.EvtCounter, w.Filename, err)
	}
	w.EvtCounter++
	return nil
}

func (w *HDF5Sink) Written() int64 {
	return w.EvtCounter
}

func (w *HDF5Sink) Close() error {
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing file hdf writer %s", w.Filename), "hdf5writer")
	}
	var errs []error
	if w.ProvenanceTable != nil {
		entries := w.Provenance.entries(w.EvtCounter)
		rows := make([]ProvenanceHDF5, len(entries))
		for i, entry := range entries {
			rows[i] = ProvenanceHDF5{
				key:   convertToHdf5String(entry[0]),
				value: convertToHdf5Value(entry[1]),
			}
		}
		if err := writeArrayToTable(w.ProvenanceTable, &rows, 0); err != nil {
			errs = append(errs, fmt.Errorf("error writing provenance table: %w", err))
		}
	}
	errs = append(errs, w.closeHandles()...)
	return errors.Join(errs...)
}

func (w *HDF5Sink) Abort() error {
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Removing unfinished file %s", w.Filename), "hdf5writer")
	}
	errs := w.closeHandles()
	if err := removeOutput(w.Filename); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (w *HDF5Sink) closeHandles() []error {
	var errs []error
	if w.ProvenanceTable != nil {
		if err := w.ProvenanceTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing provenance table: %w", err))
		}
	}
	if w.EventTable != nil {
		if err := w.EventTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing event table: %w", err))
		}
	}
	if w.IDIVGroup != nil {
		if err := w.IDIVGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing IDIV group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errs
}
