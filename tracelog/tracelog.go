// Package tracelog exports simulation traces in CSV and JSONL form, one
// record per simulation tick.
package tracelog

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/db47h/logsim"
)

// WriteCSV writes tr as CSV: a header row of "tick" followed by the
// monitored pin names, then one row per tick with 0/1 signal levels.
func WriteCSV(w io.Writer, tr *logsim.Trace) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(tr.Pins())+1)
	header = append(header, "tick")
	for _, p := range tr.Pins() {
		header = append(header, p.String())
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	row := make([]string, len(header))
	for tick := 0; tick < tr.Len(); tick++ {
		row[0] = strconv.Itoa(tick + 1)
		for i, v := range tr.Snapshot(tick) {
			if v {
				row[i+1] = "1"
			} else {
				row[i+1] = "0"
			}
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write csv row %d", tick)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// tickRecord is the JSONL line format: one object per tick.
type tickRecord struct {
	Tick    int             `json:"tick"`
	Signals map[string]bool `json:"signals"`
}

// WriteJSONL writes tr as JSON lines, one object per tick mapping each
// monitored pin name to its level.
func WriteJSONL(w io.Writer, tr *logsim.Trace) error {
	enc := json.NewEncoder(w)
	pins := tr.Pins()
	for tick := 0; tick < tr.Len(); tick++ {
		rec := tickRecord{Tick: tick + 1, Signals: make(map[string]bool, len(pins))}
		for i, v := range tr.Snapshot(tick) {
			rec.Signals[pins[i].String()] = v
		}
		if err := enc.Encode(&rec); err != nil {
			return errors.Wrapf(err, "write jsonl record %d", tick)
		}
	}
	return nil
}
