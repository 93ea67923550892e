package facts

import (
	"strings"
)

// AnyYear is the year filter matching every year in a dataset. It lies
// outside the range of stored years, so no numeric input decodes to it.
const AnyYear = -1

// ImpactLevel is the coarse severity label attached to a political event.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"

	// ImpactAll is a filter value only; it is never stored on an event.
	ImpactAll ImpactLevel = "all"
)

// ImpactLevels lists the storable levels in ascending severity.
var ImpactLevels = []ImpactLevel{ImpactLow, ImpactMedium, ImpactHigh}

// Valid reports whether l is a storable impact level.
func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// ParseImpactLevel parses a filter value. Empty input means ImpactAll.
func ParseImpactLevel(s string) (ImpactLevel, error) {
	l := ImpactLevel(strings.ToLower(strings.TrimSpace(s)))
	if l == "" || l == ImpactAll {
		return ImpactAll, nil
	}
	if !l.Valid() {
		return "", invalidArgument("impactLevel %q must be one of all, low, medium, high", s)
	}
	return l, nil
}

// Quarter identifies the period a GDP growth figure covers.
type Quarter string

const (
	Q1            Quarter = "Q1"
	Q2            Quarter = "Q2"
	Q3            Quarter = "Q3"
	Q4            Quarter = "Q4"
	QuarterAnnual Quarter = "annual"

	// QuarterAll is a filter value only.
	QuarterAll Quarter = "all"
)

// Quarters lists the storable periods in calendar order.
var Quarters = []Quarter{Q1, Q2, Q3, Q4, QuarterAnnual}

// Valid reports whether q is a storable period.
func (q Quarter) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4, QuarterAnnual:
		return true
	}
	return false
}

// ParseQuarter parses a filter value case-insensitively ("q1" and "Q1" are the
// same quarter). Empty input means QuarterAll.
func ParseQuarter(s string) (Quarter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return QuarterAll, nil
	case "q1":
		return Q1, nil
	case "q2":
		return Q2, nil
	case "q3":
		return Q3, nil
	case "q4":
		return Q4, nil
	case "annual":
		return QuarterAnnual, nil
	}
	return "", invalidArgument("quarter %q must be one of all, Q1, Q2, Q3, Q4, annual", s)
}

// PoliticalEvent is a dated political occurrence that may move sales.
type PoliticalEvent struct {
	Year        int         `json:"year"`
	Date        string      `json:"date,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	ImpactLevel ImpactLevel `json:"impactLevel"`
}

// Label is the event title, or its description when untitled.
func (e PoliticalEvent) Label() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Description
}

// GdpRecord is one growth figure for a (year, quarter) pair.
type GdpRecord struct {
	Year       int     `json:"year"`
	Quarter    Quarter `json:"quarter"`
	GrowthRate float64 `json:"growthRate"`
}

// Outlook is the qualitative classification of a year's forecast factors.
type Outlook string

const (
	OutlookPositive Outlook = "positive"
	OutlookMixed    Outlook = "mixed"
	OutlookCautious Outlook = "cautious"
)

// ForecastFactors bundles the records matching a year with derived figures.
// It is built per query and never stored.
type ForecastFactors struct {
	Year           int                 `json:"year"`
	Events         []PoliticalEvent    `json:"events"`
	GDP            []GdpRecord         `json:"gdp"`
	ImpactCounts   map[ImpactLevel]int `json:"impactCounts"`
	MeanGrowth     float64             `json:"meanGrowth"`
	RiskScore      int                 `json:"riskScore"`
	KeyEvents      []string            `json:"keyEvents"`
	Notes          string              `json:"notes,omitempty"`
	Summary        Outlook             `json:"summary"`
	Recommendation string              `json:"recommendation"`
	Narrative      string              `json:"narrative"`
}
