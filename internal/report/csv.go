/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/phuonguno98/assetgen/internal/pipeline"
)

// Header is the column row of a build report.
var Header = []string{
	"Run",
	"Timestamp",
	"Bundle",
	"Kind",
	"Outcome",
	"Source (bytes)",
	"Minified (bytes)",
	"Compressed (bytes)",
	"Ratio (%)",
	"Duration (ms)",
	"Output",
	"Error",
}

// CSVReport appends build results to a CSV file. The header is written
// once, when the file is new or empty.
type CSVReport struct {
	file      *os.File
	csvWriter *csv.Writer
	bufWriter *bufio.Writer
	runID     string
	rows      int
	logger    *slog.Logger
	now       func() time.Time
}

// NewCSVReport opens (or creates) the report at path.
func NewCSVReport(path, runID string, logger *slog.Logger) (*CSVReport, error) {
	// Open output file
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat report file: %w", err)
	}

	bufWriter := bufio.NewWriterSize(file, 8192)
	r := &CSVReport{
		file:      file,
		csvWriter: csv.NewWriter(bufWriter),
		bufWriter: bufWriter,
		runID:     runID,
		logger:    logger,
		now:       time.Now,
	}

	if stat.Size() == 0 {
		if err := r.csvWriter.Write(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	return r, nil
}

// Write appends one row per result.
func (r *CSVReport) Write(results []*pipeline.Result) error {
	ts := r.now().UTC().Format(time.RFC3339)
	for _, res := range results {
		if err := r.csvWriter.Write(buildRow(r.runID, ts, res)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		r.rows++
	}
	return r.flush()
}

func buildRow(runID, ts string, res *pipeline.Result) []string {
	ratio := naString
	if res.Outcome != pipeline.OutcomeFailed && res.SourceSize > 0 {
		ratio = fmt.Sprintf("%.2f", float64(res.CompressedSize)/float64(res.SourceSize)*100)
	}
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}

	return []string{
		runID,
		ts,
		res.Bundle,
		string(res.Kind),
		string(res.Outcome),
		strconv.Itoa(res.SourceSize),
		strconv.Itoa(res.MinifiedSize),
		strconv.Itoa(res.CompressedSize),
		ratio,
		strconv.FormatInt(res.Duration.Milliseconds(), 10),
		res.Output,
		errText,
	}
}

const naString = "N/A"

// flush flushes the buffered data to disk.
func (r *CSVReport) flush() error {
	r.csvWriter.Flush()
	if err := r.csvWriter.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	if err := r.bufWriter.Flush(); err != nil {
		return fmt.Errorf("buffer writer error: %w", err)
	}

	r.logger.Debug("Report flushed", "rows", r.rows)
	return nil
}

// Close flushes remaining rows and closes the file.
func (r *CSVReport) Close() error {
	if err := r.flush(); err != nil {
		r.logger.Error("Final flush failed", "error", err)
	}

	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}

	r.logger.Info("Report written", "path", r.file.Name(), "rows", r.rows)
	return nil
}
