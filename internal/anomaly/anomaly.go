// Package anomaly flags sustained baseline deviations in per-entity time
// series using a trailing-median window and a persistence confirmation rule.
package anomaly

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// Annotation column names appended by Detect.
const (
	FlagColumn      = "anomaly"
	DirectionColumn = "anomaly_direction"
)

// Direction values.
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// TotalSeries is the synthetic series appended by AggregateDaily holding the
// per-entity daily total.
const TotalSeries = "Total Usage"

// Config names the columns the detector operates on and its thresholds.
// Zero-valued thresholds pick up the documented defaults (window 7, shift 3,
// 20 percent, 60 absolute).
type Config struct {
	EntityColumn string
	SeriesColumn string
	ValueColumn  string
	DateColumn   string

	Window       int
	Shift        int
	PctThreshold float64
	AbsThreshold float64
}

// DefaultConfig returns the documented detection defaults; column names are
// the caller's to fill in.
func DefaultConfig() Config {
	return Config{Window: 7, Shift: 3, PctThreshold: 20, AbsThreshold: 60}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Shift <= 0 {
		c.Shift = d.Shift
	}
	if c.PctThreshold <= 0 {
		c.PctThreshold = d.PctThreshold
	}
	if c.AbsThreshold <= 0 {
		c.AbsThreshold = d.AbsThreshold
	}
	return c
}

func (c Config) groupColumns() []string {
	return []string{c.EntityColumn, c.SeriesColumn}
}

func (c Config) validate(op string, t *table.Table) error {
	for _, name := range []string{c.EntityColumn, c.SeriesColumn, c.ValueColumn, c.DateColumn} {
		if name == "" {
			return fmt.Errorf("%s: config is missing a column name", op)
		}
	}
	return table.RequireColumns(op, t,
		c.EntityColumn, c.SeriesColumn, c.ValueColumn, c.DateColumn)
}

// Detect annotates every row with an anomaly flag and, for flagged rows, a
// direction. Per (entity, series) group, rows are scanned in ascending date
// order; each row from index Window on is compared against the median of the
// preceding Window values. A row deviating by at least PctThreshold percent
// AND AbsThreshold absolute is a candidate; Shift consecutive candidates
// confirm an anomaly and retroactively flag the whole confirmation window.
// A row already flagged keeps its original direction. A zero baseline makes
// the row unevaluable: it neither counts as a candidate nor resets the
// consecutive counter.
//
// Groups are independent; the scan never reads another group's rows. The
// input table is not modified.
func Detect(t *table.Table, cfg Config) (*table.Table, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate("detect", t); err != nil {
		return nil, err
	}

	out := t.Clone()
	var err error
	// Re-running on annotated output resets the annotation columns first, so
	// detection is idempotent over its own results.
	if out.HasColumn(FlagColumn) {
		for r := 0; r < out.NumRows(); r++ {
			_ = out.Set(r, FlagColumn, table.Bool(false))
		}
	} else if out, err = out.WithColumn(FlagColumn, table.Bool(false)); err != nil {
		return nil, err
	}
	if out.HasColumn(DirectionColumn) {
		for r := 0; r < out.NumRows(); r++ {
			_ = out.Set(r, DirectionColumn, table.Missing())
		}
	} else if out, err = out.WithColumn(DirectionColumn, table.Missing()); err != nil {
		return nil, err
	}

	for _, rows := range groupRows(out, cfg) {
		scanGroup(out, rows, cfg)
	}
	return out, nil
}

// scanGroup runs the candidate/confirmation state machine over one group's
// rows, chronologically ordered.
func scanGroup(out *table.Table, rows []int, cfg Config) {
	sortByDate(out, rows, cfg.DateColumn)

	n := len(rows)
	values := make([]float64, n)
	for i, r := range rows {
		values[i] = out.Value(r, cfg.ValueColumn).Float()
	}
	baselines := make([]float64, n)

	consecutive := 0
	for i := cfg.Window; i < n; i++ {
		baseline := median(values[i-cfg.Window : i])
		baselines[i] = baseline
		if baseline == 0 {
			continue
		}
		delta := values[i] - baseline
		if delta < 0 {
			delta = -delta
		}
		pctChange := delta / baseline * 100
		if pctChange >= cfg.PctThreshold && delta >= cfg.AbsThreshold {
			consecutive++
			if consecutive >= cfg.Shift {
				flagWindow(out, rows, values, baselines, i, cfg.Shift)
			}
		} else {
			consecutive = 0
		}
	}
}

// flagWindow retroactively confirms the last shift rows ending at index i.
// First writer wins: a row already flagged keeps its flag and direction, so
// overlapping confirmation windows union idempotently.
func flagWindow(out *table.Table, rows []int, values, baselines []float64, i, shift int) {
	for j := i - shift + 1; j <= i; j++ {
		r := rows[j]
		if out.Value(r, FlagColumn).Bool() {
			continue
		}
		_ = out.Set(r, FlagColumn, table.Bool(true))
		direction := DirectionDecrease
		if values[j] > baselines[j] {
			direction = DirectionIncrease
		}
		_ = out.Set(r, DirectionColumn, table.Text(direction))
	}
}

// SelectFlaggedGroups returns every row belonging to an (entity, series) pair
// with at least one confirmed anomaly, non-anomalous rows included, in the
// input's row order.
func SelectFlaggedGroups(t *table.Table, cfg Config) (*table.Table, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate("select flagged groups", t); err != nil {
		return nil, err
	}
	if err := table.RequireColumns("select flagged groups", t, FlagColumn); err != nil {
		return nil, err
	}

	flagged := map[string]bool{}
	for r := 0; r < t.NumRows(); r++ {
		if t.Value(r, FlagColumn).Bool() {
			flagged[groupKey(t, r, cfg)] = true
		}
	}
	var rows []int
	for r := 0; r < t.NumRows(); r++ {
		if flagged[groupKey(t, r, cfg)] {
			rows = append(rows, r)
		}
	}
	return t.SelectRows(rows), nil
}

func groupKey(t *table.Table, row int, cfg Config) string {
	return t.Value(row, cfg.EntityColumn).String() + "\x1f" + t.Value(row, cfg.SeriesColumn).String()
}

// groupRows buckets row positions by (entity, series) in first-seen order.
func groupRows(t *table.Table, cfg Config) [][]int {
	var order []string
	buckets := map[string][]int{}
	for r := 0; r < t.NumRows(); r++ {
		k := groupKey(t, r, cfg)
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}
	out := make([][]int, len(order))
	for i, k := range order {
		out[i] = buckets[k]
	}
	return out
}

// sortByDate stable-sorts row positions ascending by the date column. Dates
// that fail to parse fall back to their string form so ordering stays
// deterministic.
func sortByDate(t *table.Table, rows []int, dateCol string) {
	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := t.Value(rows[i], dateCol), t.Value(rows[j], dateCol)
		ti, okI := ParseDate(vi)
		tj, okJ := ParseDate(vj)
		if okI && okJ {
			return ti.Before(tj)
		}
		return vi.String() < vj.String()
	})
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// excelEpoch is day zero of the 1900 date system used by spreadsheet serials.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate interprets a date cell: text in a known layout, or a spreadsheet
// serial number.
func ParseDate(v table.Value) (time.Time, bool) {
	switch v.Kind() {
	case table.KindNumber:
		serial := v.Float()
		if serial <= 0 {
			return time.Time{}, false
		}
		days := int(serial)
		frac := serial - float64(days)
		return excelEpoch.AddDate(0, 0, days).Add(time.Duration(frac * 24 * float64(time.Hour))), true
	case table.KindText:
		s := v.String()
		for _, l := range dateLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// median returns the midpoint of the values, averaging the two central
// elements for even counts.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}
