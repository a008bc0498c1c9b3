// Package report renders sweep summaries as human-readable tables. It is a
// pure consumer of the engine's output: nothing here feeds back into the
// simulation.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	sim "github.com/survey-sim/survey-sim/sim"
	"github.com/survey-sim/survey-sim/sim/search"
)

// ParamSelector extracts the swept parameter from a cell.
type ParamSelector func(sim.Cell) float64

// Specificity selects the cell's specificity as the swept parameter.
func Specificity(c sim.Cell) float64 { return c.Scenario.Specificity }

// Sensitivity selects the cell's sensitivity as the swept parameter.
func Sensitivity(c sim.Cell) float64 { return c.Scenario.Sensitivity }

// Table is row-keyed by the swept parameter value and column-keyed by sample
// size. Missing combinations and all-degenerate cells render as "-".
type Table struct {
	Title    string
	RowLabel string
	Columns  []int // sample sizes, ascending
	Rows     []Row
}

// Row holds one swept parameter value and its empirical rate per column.
type Row struct {
	Value float64
	Rates []float64 // aligned with Table.Columns; NaN = no valid replicates
}

// New builds a table from one or more sweeps. Each sweep contributes one
// column per distinct sample size it contains; rows are the union of swept
// parameter values, ascending.
func New(title, rowLabel string, swept ParamSelector, sweeps ...[]sim.CellSummary) Table {
	type key struct {
		value      float64
		sampleSize int
	}
	rates := make(map[key]float64)
	columnSet := make(map[int]bool)
	valueSet := make(map[float64]bool)

	for _, summaries := range sweeps {
		for _, s := range summaries {
			k := key{value: swept(s.Cell), sampleSize: s.Cell.Scenario.SampleSize}
			rates[k] = s.Rate()
			columnSet[k.sampleSize] = true
			valueSet[k.value] = true
		}
	}

	columns := make([]int, 0, len(columnSet))
	for n := range columnSet {
		columns = append(columns, n)
	}
	sort.Ints(columns)

	values := make([]float64, 0, len(valueSet))
	for v := range valueSet {
		values = append(values, v)
	}
	sort.Float64s(values)

	rows := make([]Row, len(values))
	for i, v := range values {
		row := Row{Value: v, Rates: make([]float64, len(columns))}
		for j, n := range columns {
			if rate, ok := rates[key{value: v, sampleSize: n}]; ok {
				row.Rates[j] = rate
			} else {
				row.Rates[j] = math.NaN()
			}
		}
		rows[i] = row
	}

	return Table{Title: title, RowLabel: rowLabel, Columns: columns, Rows: rows}
}

// Render writes the table in the fixed-width style of the CLI output.
func (t Table) Render(w io.Writer) {
	fmt.Fprintf(w, "=== %s ===\n", t.Title)
	fmt.Fprintf(w, "%-14s", t.RowLabel)
	for _, n := range t.Columns {
		fmt.Fprintf(w, "  n=%-8d", n)
	}
	fmt.Fprintln(w)
	for _, row := range t.Rows {
		fmt.Fprintf(w, "%-14.4f", row.Value)
		for _, rate := range row.Rates {
			if math.IsNaN(rate) {
				fmt.Fprintf(w, "  %-10s", "-")
			} else {
				fmt.Fprintf(w, "  %-10.4f", rate)
			}
		}
		fmt.Fprintln(w)
	}
}

// RenderRequirements writes the terminal tuples of a staged search, one row
// per (threshold, sample size) combination.
func RenderRequirements(w io.Writer, results []search.Result) {
	fmt.Fprintln(w, "=== Minimum Test-Accuracy Requirements ===")
	fmt.Fprintf(w, "%-12s %-12s %-16s %-16s\n", "threshold", "sample size", "min specificity", "min sensitivity")
	for _, r := range results {
		fmt.Fprintf(w, "%-12.2f %-12d %-16.4f %-16.4f\n", r.Threshold, r.SampleSize, r.MinSpecificity, r.MinSensitivity)
	}
}
