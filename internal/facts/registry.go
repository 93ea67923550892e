package facts

import (
	"fmt"
	"sort"
)

const (
	// A year is positive only when mean growth is strictly above this.
	positiveGrowthThreshold = 2.0
	// A year with high-impact events is cautious when mean growth is below this.
	cautiousGrowthThreshold = 0.0

	riskPointsPerHighEvent = 20
	maxRiskScore           = 100

	// Risk scores at or above this call for a more defensive recommendation.
	elevatedRiskScore = 40
)

// Recommendations, keyed by outlook and whether political risk is elevated.
const (
	RecommendAggressive   = "Favorable conditions for aggressive sales targets"
	RecommendMonitor      = "Good growth potential but monitor political developments"
	RecommendSteady       = "Steady growth expected, maintain current strategies"
	RecommendContingency  = "Cautious optimism, prepare contingency plans"
	RecommendConservative = "Conservative approach recommended, focus on risk mitigation"
)

// Dataset is the raw input a Registry is built from.
type Dataset struct {
	Events []PoliticalEvent `json:"events"`
	GDP    []GdpRecord      `json:"gdp"`
	Notes  map[int]string   `json:"notes,omitempty"`
}

type gdpKey struct {
	year    int
	quarter Quarter
}

// Registry holds the political and GDP tables. It is immutable once built and
// safe for concurrent use without locking.
type Registry struct {
	events       []PoliticalEvent
	gdp          []GdpRecord
	eventsByYear map[int][]PoliticalEvent
	gdpByYear    map[int][]GdpRecord
	notes        map[int]string
	years        []int
}

// NewRegistry validates ds and copies it into an immutable registry.
func NewRegistry(ds Dataset) (*Registry, error) {
	r := &Registry{
		events:       make([]PoliticalEvent, 0, len(ds.Events)),
		gdp:          make([]GdpRecord, 0, len(ds.GDP)),
		eventsByYear: make(map[int][]PoliticalEvent),
		gdpByYear:    make(map[int][]GdpRecord),
		notes:        make(map[int]string, len(ds.Notes)),
	}
	seenYears := make(map[int]bool)

	for i, e := range ds.Events {
		if !ValidYear(e.Year) {
			return nil, invalidArgument("event %d: year %d is not a 4-digit year", i, e.Year)
		}
		if e.Description == "" {
			return nil, invalidArgument("event %d (%d): description is empty", i, e.Year)
		}
		if !e.ImpactLevel.Valid() {
			return nil, invalidArgument("event %d (%d): invalid impact level %q", i, e.Year, e.ImpactLevel)
		}
		r.events = append(r.events, e)
		r.eventsByYear[e.Year] = append(r.eventsByYear[e.Year], e)
		seenYears[e.Year] = true
	}

	seen := make(map[gdpKey]bool, len(ds.GDP))
	for i, g := range ds.GDP {
		if !ValidYear(g.Year) {
			return nil, invalidArgument("gdp record %d: year %d is not a 4-digit year", i, g.Year)
		}
		if !g.Quarter.Valid() {
			return nil, invalidArgument("gdp record %d (%d): invalid quarter %q", i, g.Year, g.Quarter)
		}
		k := gdpKey{g.Year, g.Quarter}
		if seen[k] {
			return nil, invalidArgument("gdp record %d: duplicate entry for %d %s", i, g.Year, g.Quarter)
		}
		seen[k] = true
		r.gdp = append(r.gdp, g)
		r.gdpByYear[g.Year] = append(r.gdpByYear[g.Year], g)
		seenYears[g.Year] = true
	}

	for y, n := range ds.Notes {
		r.notes[y] = n
	}

	for y := range seenYears {
		r.years = append(r.years, y)
	}
	sort.Ints(r.years)
	return r, nil
}

// MustRegistry is NewRegistry for datasets known to be valid, such as Builtin.
func MustRegistry(ds Dataset) *Registry {
	r, err := NewRegistry(ds)
	if err != nil {
		panic(fmt.Sprintf("facts: invalid dataset: %v", err))
	}
	return r
}

// Years returns the sorted distinct years present in either table.
func (r *Registry) Years() []int {
	out := make([]int, len(r.years))
	copy(out, r.years)
	return out
}

// Counts returns the number of stored events and GDP records.
func (r *Registry) Counts() (events, gdp int) {
	return len(r.events), len(r.gdp)
}

// GetPoliticalEvents returns events for year (or every year when year is
// AnyYear) filtered by impact level, in insertion order. An unmatched year
// yields an empty slice, not an error.
func (r *Registry) GetPoliticalEvents(year int, impact ImpactLevel) ([]PoliticalEvent, error) {
	if err := checkYearFilter(year); err != nil {
		return nil, err
	}
	if impact == "" {
		impact = ImpactAll
	}
	if impact != ImpactAll && !impact.Valid() {
		return nil, invalidArgument("impactLevel %q must be one of all, low, medium, high", impact)
	}

	src := r.events
	if year != AnyYear {
		src = r.eventsByYear[year]
	}
	out := make([]PoliticalEvent, 0, len(src))
	for _, e := range src {
		if impact == ImpactAll || e.ImpactLevel == impact {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetGdpData returns GDP records for year (or every year) filtered by quarter,
// in insertion order.
func (r *Registry) GetGdpData(year int, quarter Quarter) ([]GdpRecord, error) {
	if err := checkYearFilter(year); err != nil {
		return nil, err
	}
	if quarter == "" {
		quarter = QuarterAll
	}
	if quarter != QuarterAll && !quarter.Valid() {
		return nil, invalidArgument("quarter %q must be one of all, Q1, Q2, Q3, Q4, annual", quarter)
	}

	src := r.gdp
	if year != AnyYear {
		src = r.gdpByYear[year]
	}
	out := make([]GdpRecord, 0, len(src))
	for _, g := range src {
		if quarter == QuarterAll || g.Quarter == quarter {
			out = append(out, g)
		}
	}
	return out, nil
}

// AnalyzeForecastFactors merges the events and GDP records for one year and
// classifies the outlook:
//
//	positive  mean growth > 2.0 and no high-impact events
//	cautious  any high-impact event and mean growth < 0
//	mixed     otherwise
func (r *Registry) AnalyzeForecastFactors(year int) (*ForecastFactors, error) {
	if year == AnyYear {
		return nil, invalidArgument("year is required")
	}
	events, err := r.GetPoliticalEvents(year, ImpactAll)
	if err != nil {
		return nil, err
	}
	gdp, err := r.GetGdpData(year, QuarterAll)
	if err != nil {
		return nil, err
	}

	counts := make(map[ImpactLevel]int, len(ImpactLevels))
	for _, l := range ImpactLevels {
		counts[l] = 0
	}
	keyEvents := make([]string, 0)
	for _, e := range events {
		counts[e.ImpactLevel]++
		if e.ImpactLevel == ImpactHigh {
			keyEvents = append(keyEvents, e.Label())
		}
	}

	mean := MeanGrowth(gdp)
	high := counts[ImpactHigh]
	risk := high * riskPointsPerHighEvent
	if risk > maxRiskScore {
		risk = maxRiskScore
	}
	outlook := Classify(mean, high)

	return &ForecastFactors{
		Year:           year,
		Events:         events,
		GDP:            gdp,
		ImpactCounts:   counts,
		MeanGrowth:     mean,
		RiskScore:      risk,
		KeyEvents:      keyEvents,
		Notes:          r.notes[year],
		Summary:        outlook,
		Recommendation: Recommend(outlook, risk),
		Narrative: fmt.Sprintf("%d political events (%d high, %d medium, %d low); mean GDP growth %.2f%% across %d records; outlook %s",
			len(events), high, counts[ImpactMedium], counts[ImpactLow], mean, len(gdp), outlook),
	}, nil
}

// MeanGrowth is the arithmetic mean of the growth rates, or 0 for no records.
func MeanGrowth(records []GdpRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, g := range records {
		sum += g.GrowthRate
	}
	return sum / float64(len(records))
}

// Classify applies the outlook threshold rule.
func Classify(meanGrowth float64, highImpactEvents int) Outlook {
	switch {
	case meanGrowth > positiveGrowthThreshold && highImpactEvents == 0:
		return OutlookPositive
	case highImpactEvents > 0 && meanGrowth < cautiousGrowthThreshold:
		return OutlookCautious
	default:
		return OutlookMixed
	}
}

// ValidYear reports whether y is a 4-digit year.
// Recommend picks the sales guidance for an outlook at the given risk score.
func Recommend(outlook Outlook, riskScore int) string {
	elevated := riskScore >= elevatedRiskScore
	switch {
	case outlook == OutlookPositive && !elevated:
		return RecommendAggressive
	case outlook == OutlookPositive:
		return RecommendMonitor
	case outlook == OutlookMixed && !elevated:
		return RecommendSteady
	case outlook == OutlookMixed:
		return RecommendContingency
	default:
		return RecommendConservative
	}
}

func ValidYear(y int) bool { return y >= 1000 && y <= 9999 }

func checkYearFilter(y int) error {
	if y == AnyYear || ValidYear(y) {
		return nil
	}
	return invalidArgument("year %d is not a 4-digit year", y)
}
