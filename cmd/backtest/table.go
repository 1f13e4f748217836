package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-ablation/internal/ablation"
	"github.com/rxtech-lab/argo-ablation/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		Headers(headers...)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func signedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

func ratio(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "n/a"
	}

	return fmt.Sprintf("%.2f", v)
}

func signedRatio(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ratio(v)
	}

	return fmt.Sprintf("%+.2f", v)
}

// statsTable renders one row per run.
func statsTable(stats []types.TradeStats) string {
	t := newTable("Variant", "Symbol", "Trades", "Win rate", "Net return", "Sharpe", "Profit factor", "Max DD", "Fees", "Open")

	for _, s := range stats {
		t.Row(
			s.Variant,
			s.Symbol,
			strconv.Itoa(s.TradeResult.NumberOfTrades),
			percent(s.TradeResult.WinRate),
			percent(s.TradeReturns.TotalNetReturn),
			ratio(s.TradeReturns.SharpeRatio),
			ratio(s.TradeResult.ProfitFactor),
			percent(s.TradeResult.MaxDrawdown),
			fmt.Sprintf("%.2f", s.TotalFees),
			strconv.FormatBool(s.HasOpenPosition),
		)
	}

	return t.String()
}

// ablationTable renders each variant with its change against the baseline.
func ablationTable(report ablation.Report) string {
	t := newTable("Variant", "Trades", "Net return", "Δ return", "Sharpe", "Δ Sharpe", "Win rate", "Δ win rate", "Max DD", "Δ max DD")

	for _, v := range report.Variants {
		t.Row(
			v.Name,
			strconv.Itoa(v.Stats.TradeResult.NumberOfTrades),
			percent(v.Stats.TradeReturns.TotalNetReturn),
			signedPercent(v.Delta.TotalNetReturn),
			ratio(v.Stats.TradeReturns.SharpeRatio),
			signedRatio(v.Delta.SharpeRatio),
			percent(v.Stats.TradeResult.WinRate),
			signedPercent(v.Delta.WinRate),
			percent(v.Stats.TradeResult.MaxDrawdown),
			signedPercent(v.Delta.MaxDrawdown),
		)
	}

	return t.String()
}
