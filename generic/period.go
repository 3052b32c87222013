package generic

// =============================================================================
// PERIOD - A closed-open span of calendar months
// =============================================================================

// Period is the span [Start, End). Depreciation works in whole months, so
// both bounds sit on the same day-of-month grid as the acquisition date.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if t is within [Start, End).
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.Before(p.End)
}

// Months returns the length of the period in calendar months.
func (p Period) Months() int {
	return MonthsBetween(p.Start, p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + ")"
}

// LifeYears splits a useful life into consecutive 12-month periods starting
// at the acquisition date. The last period is shorter when the life isn't a
// whole number of years.
func LifeYears(acquired TimePoint, lifeMonths int) []Period {
	if lifeMonths <= 0 {
		return nil
	}
	periods := make([]Period, 0, (lifeMonths+11)/12)
	for start := 0; start < lifeMonths; start += 12 {
		end := start + 12
		if end > lifeMonths {
			end = lifeMonths
		}
		periods = append(periods, Period{
			Start: acquired.AddMonths(start),
			End:   acquired.AddMonths(end),
		})
	}
	return periods
}
