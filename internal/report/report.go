// Package report aggregates governance chains into the forensic summary:
// fidelity statistics, tier and action distribution, block rate with a
// Wilson confidence interval, and a threshold sensitivity sweep.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/danielpatrickdp/primacy-governor/internal/session"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region types

// FidelityStats summarizes the normalized fidelity distribution.
type FidelityStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// SensitivityRow reports how many turns a candidate intervention threshold
// would have intervened on.
type SensitivityRow struct {
	Threshold  float64
	Intervened int
	Fraction   float64
}

// Report is the aggregate governance view over one or more chains.
type Report struct {
	Sessions     int
	Turns        int
	TierCounts   map[int]int
	ActionCounts map[string]int
	Refused      int
	RefusalRate  float64
	// Wilson 99% confidence interval on the refusal rate.
	WilsonLow   float64
	WilsonHigh  float64
	Stats       FidelityStats
	Sensitivity []SensitivityRow
}

// DefaultSweep is the standard candidate-threshold sweep.
func DefaultSweep() []float64 {
	return []float64{0.10, 0.12, 0.14, 0.16, 0.18, 0.20, 0.22, 0.25, 0.30, 0.40, 0.48, 0.55, 0.65}
}

// #endregion types

// #region build

// Build computes a report over the given chains. Chains carrying no fidelity
// payloads (minimal privacy) contribute only turn/action counts.
func Build(chains [][]trace.GovernanceEvent, sweep []float64) Report {
	if sweep == nil {
		sweep = DefaultSweep()
	}
	r := Report{
		TierCounts:   make(map[int]int),
		ActionCounts: make(map[string]int),
	}
	var fidelities []float64

	for _, chain := range chains {
		if len(chain) == 0 {
			continue
		}
		r.Sessions++
		for _, e := range chain {
			switch e.Type {
			case trace.EventFidelityCalculated:
				if f, ok := num(e.Payload, "normalized_fidelity"); ok {
					fidelities = append(fidelities, f)
				}
			case trace.EventTurnComplete:
				r.Turns++
				action, _ := e.Payload["action"].(string)
				r.ActionCounts[action]++
				if t, ok := num(e.Payload, "tier"); ok {
					r.TierCounts[int(t)]++
				}
				if refused(session.Action(action)) {
					r.Refused++
				}
			}
		}
	}

	if r.Turns > 0 {
		r.RefusalRate = float64(r.Refused) / float64(r.Turns)
		r.WilsonLow, r.WilsonHigh = wilson(float64(r.Refused), float64(r.Turns), 2.576)
	}
	r.Stats = stats(fidelities)
	r.Sensitivity = sensitivity(fidelities, sweep)
	return r
}

func refused(a session.Action) bool {
	switch a {
	case session.ActionHardBlock, session.ActionSessionBlocked, session.ActionAwaitingAck, session.ActionDeferExpert:
		return true
	default:
		return false
	}
}

// num reads a numeric payload field across its post-round-trip forms.
func num(payload map[string]interface{}, key string) (float64, bool) {
	switch n := payload[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// #endregion build

// #region stats

func stats(fs []float64) FidelityStats {
	if len(fs) == 0 {
		return FidelityStats{}
	}
	sorted := make([]float64, len(fs))
	copy(sorted, fs)
	sort.Float64s(sorted)

	var sum float64
	for _, f := range sorted {
		sum += f
	}
	mean := sum / float64(len(sorted))

	var sq float64
	for _, f := range sorted {
		d := f - mean
		sq += d * d
	}

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return FidelityStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: math.Sqrt(sq / float64(len(sorted))),
		Median: median,
	}
}

// wilson computes the Wilson score interval for successes/total at z.
func wilson(successes, total, z float64) (float64, float64) {
	if total == 0 {
		return 0, 0
	}
	p := successes / total
	z2 := z * z
	denom := 1 + z2/total
	center := p + z2/(2*total)
	spread := z * math.Sqrt((p*(1-p)+z2/(4*total))/total)
	return (center - spread) / denom, (center + spread) / denom
}

// sensitivity counts, per candidate threshold, the turns whose fidelity fell
// below it.
func sensitivity(fs []float64, sweep []float64) []SensitivityRow {
	rows := make([]SensitivityRow, 0, len(sweep))
	for _, th := range sweep {
		n := 0
		for _, f := range fs {
			if f < th {
				n++
			}
		}
		row := SensitivityRow{Threshold: th, Intervened: n}
		if len(fs) > 0 {
			row.Fraction = float64(n) / float64(len(fs))
		}
		rows = append(rows, row)
	}
	return rows
}

// #endregion stats

// #region render

// WriteText renders the report for terminal output.
func (r Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "sessions: %d  turns: %d\n", r.Sessions, r.Turns)
	fmt.Fprintf(w, "refused:  %d (%.2f%%)  wilson99=[%.2f%%, %.2f%%]\n",
		r.Refused, r.RefusalRate*100, r.WilsonLow*100, r.WilsonHigh*100)

	fmt.Fprintf(w, "tiers:    ")
	for t := 1; t <= 3; t++ {
		fmt.Fprintf(w, "T%d=%d  ", t, r.TierCounts[t])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "fidelity: min=%.4f max=%.4f mean=%.4f std=%.4f median=%.4f\n",
		r.Stats.Min, r.Stats.Max, r.Stats.Mean, r.Stats.StdDev, r.Stats.Median)

	fmt.Fprintln(w, "threshold sensitivity:")
	for _, row := range r.Sensitivity {
		fmt.Fprintf(w, "  %.2f → %d turns (%.1f%%)\n", row.Threshold, row.Intervened, row.Fraction*100)
	}
}

// #endregion render
