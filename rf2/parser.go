// Package rf2 implements streaming ingest of SNOMED CT RF2 release files: file
// discovery (classifying a release directory into typed file categories) and a
// generic, strictly-header-checked tabular parser that decodes rows into typed
// snomed records.
//
// Copyright 2018 Mark Wardle / Eldrix Ltd
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.
//
package rf2

import (
	"bufio"
	"io"
	"log"
	"os"
	"strings"
)

// Stats accumulates the minimum reported breakdown for a single file, per spec §7.
type Stats struct {
	LinesRead               int
	RecordsAccepted         int
	RecordsDroppedByFilter  int
	RecordsDroppedByDecodeError int
	// DateSemanticWarnings counts decoded dates accepted on length alone whose
	// calendar value (e.g. month > 12) would otherwise be rejected. See Open Question 1.
	DateSemanticWarnings int
}

// Add merges another Stats into this one.
func (s *Stats) Add(o Stats) {
	s.LinesRead += o.LinesRead
	s.RecordsAccepted += o.RecordsAccepted
	s.RecordsDroppedByFilter += o.RecordsDroppedByFilter
	s.RecordsDroppedByDecodeError += o.RecordsDroppedByDecodeError
	s.DateSemanticWarnings += o.DateSemanticWarnings
}

// DecodeFunc decodes one tab-split row into a record. It returns ok=false (with a nil
// error) when the row decoded successfully but a record-specific filter (distinct from
// the generic activeOnly filter, e.g. language code or type id) says to drop it.
type DecodeFunc[T any] func(cfg Config, row []string) (rec T, ok bool, dateWarning bool, err error)

// Parser is a generic tabular decoder for one RF2 record kind.
type Parser[T any] struct {
	kind    string
	columns []string
	decode  DecodeFunc[T]
	cfg     Config
	logger  *log.Logger
	lastStats Stats
}

// NewParser builds a Parser for a record kind identified by a human-readable name,
// its exact expected header column names (in order), and a decode function.
func NewParser[T any](kind string, columns []string, decode DecodeFunc[T], cfg Config, logger *log.Logger) *Parser[T] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Parser[T]{kind: kind, columns: columns, decode: decode, cfg: cfg, logger: logger}
}

// reader holds the open file and scanner state shared by all three consumption shapes.
type reader struct {
	file    *os.File
	scanner *bufio.Scanner
	path    string
	line    int
}

// open validates the header line against the parser's expected columns and returns
// a positioned reader ready to scan data rows. Header mismatches are fatal Format errors.
func (p *Parser[T]) open(path string) (*reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		f.Close()
		return nil, &FormatError{File: path, Reason: "empty file"}
	}
	headings := splitRow(scanner.Text())
	if len(headings) != len(p.columns) {
		f.Close()
		return nil, InvalidHeaderError(path, len(p.columns), len(headings))
	}
	for i, want := range p.columns {
		if headings[i] != want {
			f.Close()
			return nil, UnexpectedColumnError(path, i, want, headings[i])
		}
	}
	return &reader{file: f, scanner: scanner, path: path, line: 1}, nil
}

func splitRow(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, "\t")
}

// decodeRow turns a data line into a record, updating stats. ok=false means the row
// was consumed (counted) but should not be delivered: either a decode error or a filter drop.
func (p *Parser[T]) decodeRow(path string, line int, raw string, stats *Stats) (rec T, ok bool) {
	row := splitRow(raw)
	if len(row) != len(p.columns) {
		stats.RecordsDroppedByDecodeError++
		p.logger.Printf("%s:%d: dropping row with %d columns, expected %d", path, line, len(row), len(p.columns))
		var zero T
		return zero, false
	}
	r, keep, dateWarning, err := p.decode(p.cfg, row)
	if err != nil {
		stats.RecordsDroppedByDecodeError++
		p.logger.Printf("%s:%d: decode error: %v", path, line, err)
		var zero T
		return zero, false
	}
	if dateWarning {
		stats.DateSemanticWarnings++
	}
	if !keep {
		stats.RecordsDroppedByFilter++
		var zero T
		return zero, false
	}
	stats.RecordsAccepted++
	return r, true
}

// ParseAll reads the whole file and returns every accepted record, plus load statistics.
// Convenience shape (c) from spec §4.2 — not recommended for the largest files (relationships).
func (p *Parser[T]) ParseAll(path string) ([]T, Stats, error) {
	var out []T
	err := p.ParseBatches(path, func(batch []T) error {
		out = append(out, batch...)
		return nil
	})
	return out, p.LastStats(), err
}

// ParseBatches streams the file, invoking sink once per full batch of cfg.BatchSize
// records (and once more for a final partial batch). Shape (b) from spec §4.2.
func (p *Parser[T]) ParseBatches(path string, sink func(batch []T) error) error {
	stats := &Stats{}
	r, err := p.open(path)
	if err != nil {
		return err
	}
	defer r.file.Close()
	batch := make([]T, 0, p.cfg.batchSize())
	for r.scanner.Scan() {
		r.line++
		stats.LinesRead++
		line := r.scanner.Text()
		if line == "" {
			continue // empty lines at EOF are ignored
		}
		rec, ok := p.decodeRow(path, r.line, line, stats)
		if !ok {
			continue
		}
		batch = append(batch, rec)
		if len(batch) == p.cfg.batchSize() {
			if err := sink(batch); err != nil {
				return err
			}
			batch = make([]T, 0, p.cfg.batchSize())
		}
	}
	if err := r.scanner.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := sink(batch); err != nil {
			return err
		}
	}
	p.lastStats = *stats
	return nil
}

// Iterator yields one decoded record at a time. Shape (a) from spec §4.2.
type Iterator[T any] struct {
	p      *Parser[T]
	r      *reader
	stats  Stats
	pathTag string
}

// Iterate opens the file for one-record-at-a-time consumption.
func (p *Parser[T]) Iterate(path string) (*Iterator[T], error) {
	r, err := p.open(path)
	if err != nil {
		return nil, err
	}
	return &Iterator[T]{p: p, r: r, pathTag: path}, nil
}

// Next advances to the next accepted record. It returns ok=false with a nil error at EOF.
func (it *Iterator[T]) Next() (rec T, ok bool, err error) {
	for it.r.scanner.Scan() {
		it.r.line++
		it.stats.LinesRead++
		line := it.r.scanner.Text()
		if line == "" {
			continue
		}
		rec, ok := it.p.decodeRow(it.pathTag, it.r.line, line, &it.stats)
		if ok {
			return rec, true, nil
		}
	}
	if err := it.r.scanner.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	var zero T
	return zero, false, nil
}

// Stats returns the statistics accumulated so far by this iterator.
func (it *Iterator[T]) Stats() Stats { return it.stats }

// Close releases the underlying file handle.
func (it *Iterator[T]) Close() error { return it.r.file.Close() }

// lastStats records the statistics of the most recent ParseBatches/ParseAll call,
// for callers (like the discovery-driven loader) that want totals without threading
// a Stats value through every call site.
func (p *Parser[T]) LastStats() Stats { return p.lastStats }
