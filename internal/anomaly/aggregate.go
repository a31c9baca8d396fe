package anomaly

import (
	"time"

	"github.com/KaramelBytes/tabrec-cli/internal/table"
)

// AggregateDaily sums the value column per (entity, series, date) and appends
// one synthetic "Total Usage" series row per (entity, date) holding the daily
// total across every series. Output columns are entity, series, date, value;
// blocks follow first-seen (entity, date) order with the total row last in
// each block.
func AggregateDaily(t *table.Table, cfg Config) (*table.Table, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate("aggregate", t); err != nil {
		return nil, err
	}

	type block struct {
		entity table.Value
		date   table.Value
		series []string
		sums   map[string]float64
		raw    map[string]table.Value
		total  float64
	}
	var order []string
	blocks := map[string]*block{}
	for r := 0; r < t.NumRows(); r++ {
		entity := t.Value(r, cfg.EntityColumn)
		series := t.Value(r, cfg.SeriesColumn)
		date := t.Value(r, cfg.DateColumn)
		key := entity.String() + "\x1f" + date.String()
		b := blocks[key]
		if b == nil {
			b = &block{entity: entity, date: date, sums: map[string]float64{}, raw: map[string]table.Value{}}
			blocks[key] = b
			order = append(order, key)
		}
		sk := series.String()
		if _, seen := b.sums[sk]; !seen {
			b.series = append(b.series, sk)
			b.raw[sk] = series
		}
		v := t.Value(r, cfg.ValueColumn).Float()
		b.sums[sk] += v
		b.total += v
	}

	out, err := table.New(cfg.EntityColumn, cfg.SeriesColumn, cfg.DateColumn, cfg.ValueColumn)
	if err != nil {
		return nil, err
	}
	for _, key := range order {
		b := blocks[key]
		for _, sk := range b.series {
			if err := out.AppendRow(b.entity, b.raw[sk], b.date, table.Number(b.sums[sk])); err != nil {
				return nil, err
			}
		}
		if err := out.AppendRow(b.entity, table.Text(TotalSeries), b.date, table.Number(b.total)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FilterRecentDays keeps rows whose date falls within the trailing window of
// days ending at the newest date in the table. Rows with unparseable dates
// are dropped; a table with no parseable date at all is returned unchanged.
func FilterRecentDays(t *table.Table, dateCol string, days int) (*table.Table, error) {
	if err := table.RequireColumns("filter recent", t, dateCol); err != nil {
		return nil, err
	}
	var latest time.Time
	found := false
	for r := 0; r < t.NumRows(); r++ {
		if d, ok := ParseDate(t.Value(r, dateCol)); ok {
			if !found || d.After(latest) {
				latest = d
				found = true
			}
		}
	}
	if !found {
		return t.Clone(), nil
	}
	cutoff := latest.AddDate(0, 0, -days)
	var rows []int
	for r := 0; r < t.NumRows(); r++ {
		if d, ok := ParseDate(t.Value(r, dateCol)); ok && !d.Before(cutoff) {
			rows = append(rows, r)
		}
	}
	return t.SelectRows(rows), nil
}

// Summary aggregates detection results for reporting.
type Summary struct {
	Entities         int
	FlaggedPairs     int
	IncreaseServices int
	DecreaseServices int
	Start            string
	End              string
}

// Summarize counts entities, flagged (entity, series) pairs, and the number
// of series whose flagged rows lean increase versus decrease, over an
// annotated table.
func Summarize(t *table.Table, cfg Config) (Summary, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate("summarize", t); err != nil {
		return Summary{}, err
	}
	if err := table.RequireColumns("summarize", t, FlagColumn, DirectionColumn); err != nil {
		return Summary{}, err
	}

	entities := map[string]bool{}
	pairs := map[string]bool{}
	type tally struct{ inc, dec int }
	bySeries := map[string]*tally{}
	var start, end time.Time
	var startRaw, endRaw string
	dated := false

	for r := 0; r < t.NumRows(); r++ {
		entities[t.Value(r, cfg.EntityColumn).String()] = true
		if d, ok := ParseDate(t.Value(r, cfg.DateColumn)); ok {
			if !dated || d.Before(start) {
				start = d
				startRaw = t.Value(r, cfg.DateColumn).String()
			}
			if !dated || d.After(end) {
				end = d
				endRaw = t.Value(r, cfg.DateColumn).String()
			}
			dated = true
		}
		if !t.Value(r, FlagColumn).Bool() {
			continue
		}
		pairs[groupKey(t, r, cfg)] = true
		sk := t.Value(r, cfg.SeriesColumn).String()
		tl := bySeries[sk]
		if tl == nil {
			tl = &tally{}
			bySeries[sk] = tl
		}
		switch t.Value(r, DirectionColumn).String() {
		case DirectionIncrease:
			tl.inc++
		case DirectionDecrease:
			tl.dec++
		}
	}

	s := Summary{
		Entities:     len(entities),
		FlaggedPairs: len(pairs),
		Start:        startRaw,
		End:          endRaw,
	}
	for _, tl := range bySeries {
		if tl.inc >= tl.dec {
			s.IncreaseServices++
		} else {
			s.DecreaseServices++
		}
	}
	return s, nil
}
