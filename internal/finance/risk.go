package finance

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

const (
	spiFloor       = 0.9
	cpiFloor       = 0.9
	scoreLowFloor  = 70
	scoreHighCeil  = 40
	factorPenalty  = 25
	overrunPenalty = 15
)

// RiskInput feeds the scorer. Figures come from Calculate; schedule data
// comes from the project row. LiquidityThreshold is the tenant setting
// above which overdue exposure counts as a risk factor.
type RiskInput struct {
	Figures            Figures
	BudgetNet          float64
	Progress           float64 // actual completion fraction, 0..1
	StartsOn           time.Time
	EndsOn             time.Time
	AsOf               time.Time
	LiquidityThreshold float64
}

// Assessment is advisory output only. It never gates a lifecycle
// transition.
type Assessment struct {
	SPI           float64   `json:"spi"`
	CPI           float64   `json:"cpi"`
	LiquidityRisk float64   `json:"liquidity_risk"`
	Score         int       `json:"score"`
	Level         RiskLevel `json:"level"`
	Narrative     string    `json:"narrative"`
	Factors       []string  `json:"factors,omitempty"`
}

var narrate = message.NewPrinter(language.English)

func ratioFmt(v float64) number.Formatter {
	return number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2))
}

// Score derives schedule, cost and liquidity indices and folds them into a
// 0-100 viability score, higher meaning safer.
func Score(in RiskInput) Assessment {
	a := Assessment{SPI: 1, CPI: 1}

	if expected := expectedProgress(in.StartsOn, in.EndsOn, in.AsOf); expected > 0 {
		a.SPI = in.Progress / expected
	}
	if in.Figures.CostNet > 0 && in.BudgetNet > 0 {
		a.CPI = in.BudgetNet / in.Figures.CostNet
	}
	// Denominator is the volume already due, not everything invoiced;
	// invoices that have yet to fall due must not dilute the ratio.
	if due := in.Figures.DueGross; due > 0 {
		a.LiquidityRisk = in.Figures.OverdueGross / due
	}

	score := 100
	if a.SPI < spiFloor {
		score -= factorPenalty
		a.Factors = append(a.Factors, narrate.Sprintf("schedule behind plan (SPI %v)", ratioFmt(a.SPI)))
	}
	if a.CPI < cpiFloor {
		score -= factorPenalty
		a.Factors = append(a.Factors, narrate.Sprintf("cost overrun (CPI %v)", ratioFmt(a.CPI)))
	}
	threshold := in.LiquidityThreshold
	if threshold <= 0 {
		threshold = 0.25
	}
	if a.LiquidityRisk > threshold {
		score -= factorPenalty
		a.Factors = append(a.Factors, narrate.Sprintf("overdue receivables at %v of amounts due", percentFmt(a.LiquidityRisk)))
	}
	if in.Figures.MarginAmountNet < 0 {
		score -= overrunPenalty
		a.Factors = append(a.Factors, "negative margin")
	}
	if score < 0 {
		score = 0
	}
	a.Score = score

	switch {
	case score >= scoreLowFloor:
		a.Level = RiskLevelLow
	case score > scoreHighCeil:
		a.Level = RiskLevelMedium
	default:
		a.Level = RiskLevelHigh
	}

	switch {
	case len(a.Factors) == 0:
		a.Narrative = narrate.Sprintf("project tracking within plan (score %d)", a.Score)
	case len(a.Factors) == 1:
		a.Narrative = narrate.Sprintf("one risk factor flagged: %s (score %d)", a.Factors[0], a.Score)
	default:
		a.Narrative = narrate.Sprintf("%d risk factors flagged, starting with %s (score %d)", len(a.Factors), a.Factors[0], a.Score)
	}
	return a
}

// expectedProgress is elapsed time over planned duration, clamped to 0..1.
// Zero when the schedule is unknown, which neutralises the SPI factor.
func expectedProgress(startsOn, endsOn, asOf time.Time) float64 {
	if startsOn.IsZero() || endsOn.IsZero() || !endsOn.After(startsOn) {
		return 0
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	elapsed := asOf.Sub(startsOn).Hours()
	planned := endsOn.Sub(startsOn).Hours()
	return math.Min(math.Max(elapsed/planned, 0), 1)
}

func percentFmt(v float64) number.Formatter {
	return number.Percent(v, number.MaxFractionDigits(0))
}
