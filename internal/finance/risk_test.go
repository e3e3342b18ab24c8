package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScoreHealthyProject(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Score(RiskInput{
		Figures:   Figures{CostNet: 400, MarginAmountNet: 600, InvoicedGross: 1000},
		BudgetNet: 1000,
		Progress:  0.6,
		StartsOn:  start,
		EndsOn:    start.AddDate(0, 0, 100),
		AsOf:      start.AddDate(0, 0, 50),
	})

	require.Equal(t, 100, a.Score)
	require.Equal(t, RiskLevelLow, a.Level)
	require.Empty(t, a.Factors)
	require.InDelta(t, 1.2, a.SPI, 0.001)
	require.InDelta(t, 2.5, a.CPI, 0.001)
	require.NotEmpty(t, a.Narrative)
}

func TestScoreFlagsScheduleSlip(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Score(RiskInput{
		Progress: 0.2,
		StartsOn: start,
		EndsOn:   start.AddDate(0, 0, 100),
		AsOf:     start.AddDate(0, 0, 50),
	})

	require.InDelta(t, 0.4, a.SPI, 0.001)
	require.Len(t, a.Factors, 1)
	require.Contains(t, a.Factors[0], "schedule")
	require.Equal(t, 75, a.Score)
	require.Equal(t, RiskLevelLow, a.Level)
}

func TestScoreFlagsCostOverrun(t *testing.T) {
	a := Score(RiskInput{
		Figures:   Figures{CostNet: 2000},
		BudgetNet: 1000,
	})

	require.InDelta(t, 0.5, a.CPI, 0.001)
	require.Contains(t, a.Factors[0], "cost overrun")
}

func TestScoreFlagsLiquidity(t *testing.T) {
	a := Score(RiskInput{
		Figures:            Figures{InvoicedGross: 1000, DueGross: 1000, OverdueGross: 400},
		LiquidityThreshold: 0.25,
	})

	require.InDelta(t, 0.4, a.LiquidityRisk, 0.001)
	require.Len(t, a.Factors, 1)
	require.Contains(t, a.Factors[0], "overdue")
}

func TestScoreLiquidityIgnoresNotYetDueVolume(t *testing.T) {
	// One fully overdue invoice (1000) next to a large invoice that has not
	// fallen due yet (9000): every due euro is late, so the ratio is 1.0
	// no matter how much undue volume exists.
	a := Score(RiskInput{
		Figures:            Figures{InvoicedGross: 10000, DueGross: 1000, OverdueGross: 1000},
		LiquidityThreshold: 0.25,
	})

	require.InDelta(t, 1.0, a.LiquidityRisk, 0.001)
	require.Len(t, a.Factors, 1)
	require.Equal(t, 75, a.Score)
}

func TestScoreStacksToHigh(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Score(RiskInput{
		Figures: Figures{
			CostNet:         3000,
			MarginAmountNet: -1000,
			InvoicedGross:   1000,
			DueGross:        1000,
			OverdueGross:    800,
		},
		BudgetNet:          2000,
		Progress:           0.1,
		StartsOn:           start,
		EndsOn:             start.AddDate(0, 0, 100),
		AsOf:               start.AddDate(0, 0, 90),
		LiquidityThreshold: 0.25,
	})

	require.Len(t, a.Factors, 4)
	require.Equal(t, 10, a.Score)
	require.Equal(t, RiskLevelHigh, a.Level)
}

func TestScoreUnknownScheduleNeutralisesSPI(t *testing.T) {
	a := Score(RiskInput{Progress: 0})

	require.Equal(t, 1.0, a.SPI)
	require.Empty(t, a.Factors)
}

func TestScoreNeverNegative(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Score(RiskInput{
		Figures: Figures{
			CostNet:         10000,
			MarginAmountNet: -9000,
			InvoicedGross:   100,
			DueGross:        100,
			OverdueGross:    100,
		},
		BudgetNet: 1000,
		StartsOn:  start,
		EndsOn:    start.AddDate(0, 0, 10),
		AsOf:      start.AddDate(0, 0, 10),
	})

	require.GreaterOrEqual(t, a.Score, 0)
	require.Equal(t, RiskLevelHigh, a.Level)
}
