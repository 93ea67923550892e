package facts

// Builtin returns the reference dataset the service ships with. Quarters that
// have no published figure yet (2026 Q3, Q4 and annual) are absent.
func Builtin() Dataset {
	return Dataset{
		Events: []PoliticalEvent{
			{Year: 2024, Date: "2024-11-05", Title: "US Presidential Election", ImpactLevel: ImpactHigh,
				Description: "Major election cycle affecting market sentiment and policy direction"},
			{Year: 2024, Date: "2024-06-15", Title: "G7 Summit", ImpactLevel: ImpactMedium,
				Description: "International economic policy coordination meeting"},
			{Year: 2024, Date: "2024-03-20", Title: "Federal Reserve Policy Meeting", ImpactLevel: ImpactHigh,
				Description: "Interest rate decisions affecting consumer spending"},

			{Year: 2025, Date: "2025-01-20", Title: "Presidential Inauguration", ImpactLevel: ImpactHigh,
				Description: "New administration begins, policy changes expected"},
			{Year: 2025, Date: "2025-04-15", Title: "Tax Policy Changes", ImpactLevel: ImpactMedium,
				Description: "Corporate and individual tax adjustments take effect"},
			{Year: 2025, Date: "2025-09-10", Title: "Climate Summit", ImpactLevel: ImpactMedium,
				Description: "Green economy policies affecting multiple sectors"},

			{Year: 2026, Date: "2026-01-15", Title: "Federal Budget Announcement", ImpactLevel: ImpactHigh,
				Description: "Government spending priorities revealed"},
			{Year: 2026, Date: "2026-06-20", Title: "Trade Agreement Negotiations", ImpactLevel: ImpactHigh,
				Description: "International trade deals affecting import/export sectors"},
			{Year: 2026, Date: "2026-11-03", Title: "Midterm Elections", ImpactLevel: ImpactHigh,
				Description: "Congressional elections affecting legislative agenda"},
		},
		GDP: []GdpRecord{
			{Year: 2023, Quarter: Q1, GrowthRate: 2.6},
			{Year: 2023, Quarter: Q2, GrowthRate: 2.1},
			{Year: 2023, Quarter: Q3, GrowthRate: 4.9},
			{Year: 2023, Quarter: Q4, GrowthRate: 3.4},
			{Year: 2023, Quarter: QuarterAnnual, GrowthRate: 3.2},

			{Year: 2024, Quarter: Q1, GrowthRate: 3.4},
			{Year: 2024, Quarter: Q2, GrowthRate: 2.8},
			{Year: 2024, Quarter: Q3, GrowthRate: 2.9},
			{Year: 2024, Quarter: Q4, GrowthRate: 3.1},
			{Year: 2024, Quarter: QuarterAnnual, GrowthRate: 3.1},

			{Year: 2025, Quarter: Q1, GrowthRate: 2.9},
			{Year: 2025, Quarter: Q2, GrowthRate: 2.7},
			{Year: 2025, Quarter: Q3, GrowthRate: 3.2},
			{Year: 2025, Quarter: Q4, GrowthRate: 2.8},
			{Year: 2025, Quarter: QuarterAnnual, GrowthRate: 2.9},

			{Year: 2026, Quarter: Q1, GrowthRate: 2.5},
			{Year: 2026, Quarter: Q2, GrowthRate: 2.8},
		},
		Notes: map[int]string{
			2023: "Strong recovery year with robust consumer spending",
			2024: "Stable growth maintained despite global uncertainties",
			2025: "Moderate growth expected with policy transitions",
			2026: "Projected growth with uncertainty in later quarters",
		},
	}
}
