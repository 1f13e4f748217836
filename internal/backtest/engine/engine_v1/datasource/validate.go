package datasource

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// GapFactor is how many median intervals apart two consecutive bars must be to count as a gap.
const GapFactor = 2.0

// Gap marks a missing stretch of data before the bar at Index.
type Gap struct {
	Index    int
	From     time.Time
	To       time.Time
	Interval time.Duration
}

// ValidationReport summarizes a validated bar sequence.
type ValidationReport struct {
	Bars           int
	MedianInterval time.Duration
	Gaps           []Gap
}

// ValidateBars checks that timestamps are strictly increasing and flags gaps.
// Gaps are reported, never rejected. Duplicates and out of order bars fail the whole sequence.
func ValidateBars(bars []types.Bar, log *logger.Logger) (ValidationReport, error) {
	report := ValidationReport{Bars: len(bars), MedianInterval: 0, Gaps: []Gap{}}

	if len(bars) < 2 {
		return report, nil
	}

	intervals := make([]float64, 0, len(bars)-1)

	for i := 1; i < len(bars); i++ {
		prev, curr := bars[i-1].Time, bars[i].Time

		switch {
		case curr.Equal(prev):
			return report, errors.Newf(errors.ErrCodeDuplicateTimestamp, "duplicate timestamp %s at bar %d", curr.Format(time.RFC3339), i)
		case curr.Before(prev):
			return report, errors.Newf(errors.ErrCodeUnorderedData, "bar %d at %s is before bar %d at %s", i, curr.Format(time.RFC3339), i-1, prev.Format(time.RFC3339))
		}

		intervals = append(intervals, float64(curr.Sub(prev)))
	}

	sorted := slices.Clone(intervals)
	slices.Sort(sorted)

	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	report.MedianInterval = time.Duration(median)

	for i, interval := range intervals {
		if interval > GapFactor*median {
			report.Gaps = append(report.Gaps, Gap{
				Index:    i + 1,
				From:     bars[i].Time,
				To:       bars[i+1].Time,
				Interval: time.Duration(interval),
			})
		}
	}

	if len(report.Gaps) > 0 {
		log.Warn("Gaps detected in bar data",
			zap.Int("gaps", len(report.Gaps)),
			zap.Duration("median_interval", report.MedianInterval),
			zap.Time("first_gap_at", report.Gaps[0].To),
		)
	}

	return report, nil
}
