package assignment

import "time"

// Expand turns a recurrence rule into its occurrence dates, in order. The
// sequence is bounded by the rule's EndDate or OccurrenceCount and always by
// horizon, even for open-ended rules. Expansion is a pure function of
// (rule, horizon): calling it twice yields identical sequences, so any reader
// can re-derive "what occurrences exist up to today" without shared state.
//
// Dates are normalized to midnight UTC.
func Expand(rule RecurrenceRule, horizon time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	start := DateOnly(rule.StartDate)
	limit := DateOnly(horizon)
	if rule.EndDate != nil {
		end := DateOnly(*rule.EndDate)
		if end.Before(limit) {
			limit = end
		}
	}

	var occurrences []time.Time
	for i := 0; ; i++ {
		if rule.OccurrenceCount > 0 && i >= rule.OccurrenceCount {
			break
		}
		d := occurrenceAt(rule, start, i)
		if d.After(limit) {
			break
		}
		occurrences = append(occurrences, d)
	}
	return occurrences, nil
}

// occurrenceAt computes the i-th occurrence from the rule alone, never from a
// mutable cursor.
func occurrenceAt(rule RecurrenceRule, start time.Time, i int) time.Time {
	switch rule.Frequency {
	case FrequencyDaily:
		return start.AddDate(0, 0, i)
	case FrequencyWeekly:
		return weekAnchor(rule, start).AddDate(0, 0, 7*i)
	case FrequencyBiweekly:
		return weekAnchor(rule, start).AddDate(0, 0, 14*i)
	case FrequencyMonthly:
		return monthOccurrence(start, i)
	}
	return start
}

// weekAnchor is the first date on or after the rule's start that falls on the
// rule's weekday. Without an explicit DayOfWeek that is the start date itself.
func weekAnchor(rule RecurrenceRule, start time.Time) time.Time {
	if rule.DayOfWeek == nil {
		return start
	}
	offset := (int(*rule.DayOfWeek) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, offset)
}

// monthOccurrence keeps the start's day-of-month. When that day does not
// exist in the target month (a rule starting on the 31st), the occurrence
// falls on the last day of that month instead.
func monthOccurrence(start time.Time, i int) time.Time {
	y, m, day := start.Date()
	target := time.Date(y, m+time.Month(i), 1, 0, 0, 0, 0, time.UTC)

	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(t time.Time) int {
	// Day zero of the next month.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
