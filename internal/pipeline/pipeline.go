// Package pipeline connects byte streams to the filter engine: the build
// pipeline turns newline-delimited items into a serialized filter and the
// check pipeline answers membership queries against one.
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/tamirms/streambloom"
)

// maxLineSize bounds a single item. Longer lines fail the build.
const maxLineSize = 16 << 20

// Fill inserts every line of in into f and returns the number of items
// inserted. The line terminator ("\n", or "\r\n") is not part of the item;
// an unterminated final line is still an item.
//
// If budget is non-zero and more than budget items arrive, one warning is
// logged and insertion continues; the filter just ends up with a higher
// false positive rate than it was sized for.
func Fill(log *zap.Logger, in io.Reader, f *streambloom.Filter, budget uint64) (uint64, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var count uint64
	for scanner.Scan() {
		f.Insert(scanner.Bytes())
		count++
		if budget > 0 && count == budget+1 {
			log.Warn("more items than the filter was sized for",
				zap.Uint64("num_items", budget))
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read items: %w", err)
	}

	log.Debug("filter filled",
		zap.Uint64("items", count),
		zap.Float64("fill_ratio", f.FillRatio()),
		zap.Float64("estimated_false_positive_rate", f.EstimatedFalsePositiveRate()))
	return count, nil
}

// Build fills f from in and writes the serialized filter to out.
func Build(log *zap.Logger, in io.Reader, out io.Writer, f *streambloom.Filter, budget uint64) (uint64, error) {
	count, err := Fill(log, in, f, budget)
	if err != nil {
		return count, err
	}
	if _, err := f.WriteTo(out); err != nil {
		return count, fmt.Errorf("write filter: %w", err)
	}
	return count, nil
}

// Check reads a whole serialized filter from in, then writes one line per
// query to out: "1" if the query may be in the set, "0" if it is not.
// A malformed blob is reported before any output is written.
func Check(in io.Reader, out io.Writer, queries []string) error {
	f, err := streambloom.ReadFrom(in)
	if err != nil {
		return err
	}
	return CheckFilter(f, out, queries)
}

// CheckFilter writes one "1"/"0" line per query, in query order.
func CheckFilter(f *streambloom.Filter, out io.Writer, queries []string) error {
	w := bufio.NewWriter(out)
	for _, q := range queries {
		answer := byte('0')
		if f.Test([]byte(q)) {
			answer = '1'
		}
		w.WriteByte(answer)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// OpenInput opens an item file for a single sequential pass.
func OpenInput(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open items: %w", err)
	}
	fadviseSequential(int(file.Fd()), 0, 0)
	return file, nil
}
