package facts

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestGetPoliticalEventsByYear(t *testing.T) {
	r := MustRegistry(Builtin())

	events, err := r.GetPoliticalEvents(2024, ImpactAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// insertion order, not date order
	if events[0].Title != "US Presidential Election" || events[2].Title != "Federal Reserve Policy Meeting" {
		t.Errorf("order not preserved: %+v", events)
	}

	all, _ := r.GetPoliticalEvents(AnyYear, ImpactAll)
	for _, e := range events {
		found := false
		for _, a := range all {
			if a == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("event %q not in full dataset", e.Title)
		}
	}
	if len(all) != 9 {
		t.Errorf("any year: got %d events, want 9", len(all))
	}
}

func TestImpactFilterIdempotent(t *testing.T) {
	r := MustRegistry(Builtin())
	for _, level := range ImpactLevels {
		once, err := r.GetPoliticalEvents(AnyYear, level)
		if err != nil {
			t.Fatalf("%s: %v", level, err)
		}
		sub, err := NewRegistry(Dataset{Events: once})
		if err != nil {
			t.Fatalf("%s: rebuild: %v", level, err)
		}
		twice, _ := sub.GetPoliticalEvents(AnyYear, level)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("%s: filtering twice changed result: %v vs %v", level, once, twice)
		}
		for _, e := range once {
			if e.ImpactLevel != level {
				t.Errorf("%s: got event with level %s", level, e.ImpactLevel)
			}
		}
	}
}

func TestUnknownYearIsEmptyNotError(t *testing.T) {
	r := MustRegistry(Builtin())
	for _, year := range []int{1999, 2030, 1000, 9999} {
		events, err := r.GetPoliticalEvents(year, ImpactAll)
		if err != nil {
			t.Fatalf("events %d: %v", year, err)
		}
		if events == nil || len(events) != 0 {
			t.Errorf("events %d: want empty non-nil slice, got %#v", year, events)
		}
		gdp, err := r.GetGdpData(year, QuarterAll)
		if err != nil {
			t.Fatalf("gdp %d: %v", year, err)
		}
		if gdp == nil || len(gdp) != 0 {
			t.Errorf("gdp %d: want empty non-nil slice, got %#v", year, gdp)
		}
	}
}

func TestGetGdpDataQuarter(t *testing.T) {
	r := MustRegistry(Builtin())

	recs, err := r.GetGdpData(2023, Q3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].GrowthRate != 4.9 {
		t.Fatalf("got %+v, want single 4.9 record", recs)
	}

	recs, _ = r.GetGdpData(2026, QuarterAll)
	if len(recs) != 2 {
		t.Errorf("2026: got %d records, want 2", len(recs))
	}
	recs, _ = r.GetGdpData(2026, QuarterAnnual)
	if len(recs) != 0 {
		t.Errorf("2026 annual: got %d records, want 0", len(recs))
	}
}

func TestInvalidEnumFails(t *testing.T) {
	r := MustRegistry(Builtin())

	if _, err := r.GetPoliticalEvents(2025, ImpactLevel("extreme")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("impact extreme: got %v, want InvalidArgument", err)
	}
	if _, err := r.GetGdpData(2025, Quarter("Q5")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("quarter Q5: got %v, want InvalidArgument", err)
	}
	if _, err := ParseImpactLevel("extreme"); KindOf(err) != KindInvalidArgument {
		t.Errorf("parse extreme: got kind %s", KindOf(err))
	}
	if _, err := ParseQuarter("fy"); KindOf(err) != KindInvalidArgument {
		t.Errorf("parse fy: got kind %s", KindOf(err))
	}
	if _, err := r.GetPoliticalEvents(25, ImpactAll); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("year 25: got %v, want InvalidArgument", err)
	}
	if _, err := r.AnalyzeForecastFactors(AnyYear); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("analyze any year: got %v, want InvalidArgument", err)
	}
	// year 0 is an ordinary bad year, not a wildcard
	if _, err := r.GetPoliticalEvents(0, ImpactAll); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("events year 0: got %v, want InvalidArgument", err)
	}
	if _, err := r.GetGdpData(0, QuarterAll); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("gdp year 0: got %v, want InvalidArgument", err)
	}
	if _, err := r.AnalyzeForecastFactors(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("analyze year 0: got %v, want InvalidArgument", err)
	}
}

func TestParseFilters(t *testing.T) {
	cases := map[string]Quarter{"": QuarterAll, "ALL": QuarterAll, "q1": Q1, "Q4": Q4, "Annual": QuarterAnnual}
	for in, want := range cases {
		got, err := ParseQuarter(in)
		if err != nil || got != want {
			t.Errorf("ParseQuarter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	lv, err := ParseImpactLevel("HIGH")
	if err != nil || lv != ImpactHigh {
		t.Errorf("ParseImpactLevel(HIGH) = %q, %v", lv, err)
	}
}

func TestMeanGrowthMatchesRecords(t *testing.T) {
	r := MustRegistry(Builtin())
	for _, year := range r.Years() {
		ff, err := r.AnalyzeForecastFactors(year)
		if err != nil {
			t.Fatalf("%d: %v", year, err)
		}
		var sum float64
		for _, g := range ff.GDP {
			sum += g.GrowthRate
		}
		want := 0.0
		if len(ff.GDP) > 0 {
			want = sum / float64(len(ff.GDP))
		}
		if ff.MeanGrowth != want {
			t.Errorf("%d: mean %v, want %v", year, ff.MeanGrowth, want)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	r := MustRegistry(Builtin())
	a, _ := r.AnalyzeForecastFactors(2025)
	b, _ := r.AnalyzeForecastFactors(2025)
	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Errorf("outputs differ:\n%s\n%s", ja, jb)
	}
}

func TestAnalyzeCautiousScenario(t *testing.T) {
	r := MustRegistry(Dataset{
		Events: []PoliticalEvent{{Year: 2025, Description: "Snap election", ImpactLevel: ImpactHigh}},
		GDP:    []GdpRecord{{Year: 2025, Quarter: QuarterAnnual, GrowthRate: -1.5}},
	})
	ff, err := r.AnalyzeForecastFactors(2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ff.Summary != OutlookCautious {
		t.Errorf("summary = %q, want cautious", ff.Summary)
	}
	if len(ff.Events) != 1 || len(ff.GDP) != 1 {
		t.Errorf("got %d events / %d gdp, want 1 / 1", len(ff.Events), len(ff.GDP))
	}
	if ff.MeanGrowth != -1.5 {
		t.Errorf("mean = %v, want -1.5", ff.MeanGrowth)
	}
	if ff.RiskScore != 20 {
		t.Errorf("risk = %d, want 20", ff.RiskScore)
	}
	if ff.Recommendation != RecommendConservative {
		t.Errorf("recommendation = %q, want conservative", ff.Recommendation)
	}
}

func TestAnalyzeEmptyYearIsMixed(t *testing.T) {
	r := MustRegistry(Builtin())
	ff, err := r.AnalyzeForecastFactors(1999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ff.Events) != 0 || len(ff.GDP) != 0 {
		t.Errorf("want empty sequences, got %d / %d", len(ff.Events), len(ff.GDP))
	}
	if ff.MeanGrowth != 0 {
		t.Errorf("mean = %v, want 0", ff.MeanGrowth)
	}
	if ff.Summary != OutlookMixed {
		t.Errorf("summary = %q, want mixed", ff.Summary)
	}
	for _, l := range ImpactLevels {
		if n, ok := ff.ImpactCounts[l]; !ok || n != 0 {
			t.Errorf("impact count %s = %d (present %v), want 0", l, n, ok)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		mean float64
		high int
		want Outlook
	}{
		{2.5, 0, OutlookPositive},
		{2.0, 0, OutlookMixed},
		{2.5, 1, OutlookMixed},
		{-0.1, 1, OutlookCautious},
		{0, 2, OutlookMixed},
		{-3, 0, OutlookMixed},
	}
	for _, c := range cases {
		if got := Classify(c.mean, c.high); got != c.want {
			t.Errorf("Classify(%v, %d) = %q, want %q", c.mean, c.high, got, c.want)
		}
	}
}

func TestBuiltinOutlooks(t *testing.T) {
	r := MustRegistry(Builtin())
	want := map[int]Outlook{2023: OutlookPositive, 2024: OutlookMixed, 2025: OutlookMixed, 2026: OutlookMixed}
	for year, outlook := range want {
		ff, err := r.AnalyzeForecastFactors(year)
		if err != nil {
			t.Fatalf("%d: %v", year, err)
		}
		if ff.Summary != outlook {
			t.Errorf("%d: summary %q, want %q", year, ff.Summary, outlook)
		}
	}
	ff, _ := r.AnalyzeForecastFactors(2026)
	if ff.RiskScore != 60 {
		t.Errorf("2026 risk = %d, want 60", ff.RiskScore)
	}
	if ff.Notes == "" {
		t.Error("expected 2026 notes")
	}
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	cases := map[string]Dataset{
		"empty description": {Events: []PoliticalEvent{{Year: 2025, ImpactLevel: ImpactLow}}},
		"bad impact":        {Events: []PoliticalEvent{{Year: 2025, Description: "x", ImpactLevel: "severe"}}},
		"short year":        {Events: []PoliticalEvent{{Year: 25, Description: "x", ImpactLevel: ImpactLow}}},
		"bad quarter":       {GDP: []GdpRecord{{Year: 2025, Quarter: "H1", GrowthRate: 1}}},
		"duplicate quarter": {GDP: []GdpRecord{
			{Year: 2025, Quarter: Q1, GrowthRate: 1},
			{Year: 2025, Quarter: Q1, GrowthRate: 2},
		}},
	}
	for name, ds := range cases {
		if _, err := NewRegistry(ds); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: got %v, want InvalidArgument", name, err)
		}
	}
}

func TestRegistryIsolatedFromInput(t *testing.T) {
	ds := Builtin()
	r := MustRegistry(ds)
	ds.Events[0].Description = "mutated"

	events, _ := r.GetPoliticalEvents(2024, ImpactAll)
	if events[0].Description == "mutated" {
		t.Error("registry shares storage with its input")
	}
	events[1].Description = "mutated"
	again, _ := r.GetPoliticalEvents(2024, ImpactAll)
	if again[1].Description == "mutated" {
		t.Error("registry shares storage with query results")
	}
}

func TestYears(t *testing.T) {
	r := MustRegistry(Builtin())
	if got := r.Years(); !reflect.DeepEqual(got, []int{2023, 2024, 2025, 2026}) {
		t.Errorf("Years() = %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	body := `{
		"events": [{"year": 2027, "description": "Referendum", "impactLevel": "high"}],
		"gdp": [{"year": 2027, "quarter": "annual", "growthRate": -0.5}],
		"notes": {"2027": "Projection"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	r, err := NewRegistry(ds)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ff, _ := r.AnalyzeForecastFactors(2027)
	if ff.Summary != OutlookCautious || ff.Notes != "Projection" {
		t.Errorf("got %+v", ff)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRecommend(t *testing.T) {
	cases := []struct {
		outlook Outlook
		risk    int
		want    string
	}{
		{OutlookPositive, 0, RecommendAggressive},
		{OutlookPositive, 39, RecommendAggressive},
		{OutlookPositive, 40, RecommendMonitor},
		{OutlookMixed, 20, RecommendSteady},
		{OutlookMixed, 40, RecommendContingency},
		{OutlookMixed, 100, RecommendContingency},
		{OutlookCautious, 20, RecommendConservative},
		{OutlookCautious, 80, RecommendConservative},
	}
	for _, c := range cases {
		if got := Recommend(c.outlook, c.risk); got != c.want {
			t.Errorf("Recommend(%s, %d) = %q, want %q", c.outlook, c.risk, got, c.want)
		}
	}
}

func TestAnalyzeKeyEventsAndRecommendation(t *testing.T) {
	r := MustRegistry(Builtin())
	cases := []struct {
		year      int
		keyEvents []string
		want      string
	}{
		{2023, []string{}, RecommendAggressive},
		{2024, []string{"US Presidential Election", "Federal Reserve Policy Meeting"}, RecommendContingency},
		{1999, []string{}, RecommendSteady},
	}
	for _, c := range cases {
		ff, err := r.AnalyzeForecastFactors(c.year)
		if err != nil {
			t.Fatalf("%d: %v", c.year, err)
		}
		if !reflect.DeepEqual(ff.KeyEvents, c.keyEvents) {
			t.Errorf("%d: key events %q, want %q", c.year, ff.KeyEvents, c.keyEvents)
		}
		if ff.Recommendation != c.want {
			t.Errorf("%d: recommendation %q, want %q", c.year, ff.Recommendation, c.want)
		}
	}

	ff, _ := r.AnalyzeForecastFactors(2026)
	if len(ff.KeyEvents) != 3 || ff.Recommendation != RecommendContingency {
		t.Errorf("2026: key events %q recommendation %q", ff.KeyEvents, ff.Recommendation)
	}

	untitled := MustRegistry(Dataset{
		Events: []PoliticalEvent{{Year: 2025, Description: "Snap election", ImpactLevel: ImpactHigh}},
	})
	ff, _ = untitled.AnalyzeForecastFactors(2025)
	if len(ff.KeyEvents) != 1 || ff.KeyEvents[0] != "Snap election" {
		t.Errorf("untitled key events = %q, want description", ff.KeyEvents)
	}
}
