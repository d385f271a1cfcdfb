// Package export writes generated trees and samples as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// SampleHeader is the first row of a sample file.
var SampleHeader = []string{"0", "leaves", "branches", "nodes", "generations", "rolls"}

// SampleWriter streams sample records as CSV rows.
type SampleWriter struct {
	w     *csv.Writer
	count uint
}

// NewSampleWriter writes the header row and returns a writer for records.
func NewSampleWriter(w io.Writer) (*SampleWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(SampleHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &SampleWriter{w: cw}, nil
}

// Write appends one record.
func (s *SampleWriter) Write(r simulation.Record) error {
	row := append([]string{strconv.FormatUint(uint64(r.Index), 10)}, measurementFields(r.Measurements, r.Encoding)...)
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("failed to write record %d: %w", r.Index, err)
	}
	s.count++
	return nil
}

// Count returns the number of records written.
func (s *SampleWriter) Count() uint {
	return s.count
}

// Flush writes buffered rows to the underlying writer.
func (s *SampleWriter) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

// WriteSamples writes the header followed by records.
func WriteSamples(w io.Writer, records []simulation.Record) error {
	sw, err := NewSampleWriter(w)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := sw.Write(r); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// WriteTree writes a single headerless row describing one tree.
func WriteTree(w io.Writer, m tree.Measurements, encoding string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(measurementFields(m, encoding)); err != nil {
		return fmt.Errorf("failed to write tree: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func measurementFields(m tree.Measurements, encoding string) []string {
	return []string{
		strconv.FormatUint(uint64(m.Leaves), 10),
		strconv.FormatUint(uint64(m.Branches), 10),
		strconv.FormatUint(uint64(m.Nodes), 10),
		strconv.FormatUint(uint64(m.Generations), 10),
		encoding,
	}
}
