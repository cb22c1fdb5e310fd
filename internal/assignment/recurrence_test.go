package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expandOK(t *testing.T, rule RecurrenceRule, horizon time.Time) []time.Time {
	t.Helper()
	occ, err := Expand(rule, horizon)
	require.NoError(t, err)
	return occ
}

func TestExpandWeekly(t *testing.T) {
	rule := RecurrenceRule{
		Frequency: FrequencyWeekly,
		StartDate: date(2025, 1, 6), // a Monday
	}

	occ := expandOK(t, rule, date(2025, 1, 31))

	assert.Equal(t, []time.Time{
		date(2025, 1, 6),
		date(2025, 1, 13),
		date(2025, 1, 20),
		date(2025, 1, 27),
	}, occ)
}

func TestExpandWeeklyDayOfWeekOverride(t *testing.T) {
	wed := time.Wednesday
	rule := RecurrenceRule{
		Frequency: FrequencyWeekly,
		StartDate: date(2025, 1, 6), // Monday; first Wednesday on or after is Jan 8
		DayOfWeek: &wed,
	}

	occ := expandOK(t, rule, date(2025, 1, 31))

	assert.Equal(t, []time.Time{
		date(2025, 1, 8),
		date(2025, 1, 15),
		date(2025, 1, 22),
		date(2025, 1, 29),
	}, occ)
}

func TestExpandDaily(t *testing.T) {
	rule := RecurrenceRule{Frequency: FrequencyDaily, StartDate: date(2025, 2, 26)}

	occ := expandOK(t, rule, date(2025, 3, 2))

	require.Len(t, occ, 5)
	assert.Equal(t, date(2025, 2, 26), occ[0])
	assert.Equal(t, date(2025, 3, 1), occ[3], "daily expansion crosses month boundaries")
}

func TestExpandBiweekly(t *testing.T) {
	rule := RecurrenceRule{Frequency: FrequencyBiweekly, StartDate: date(2025, 1, 6)}

	occ := expandOK(t, rule, date(2025, 2, 28))

	assert.Equal(t, []time.Time{
		date(2025, 1, 6),
		date(2025, 1, 20),
		date(2025, 2, 3),
		date(2025, 2, 17),
	}, occ)
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	rule := RecurrenceRule{Frequency: FrequencyMonthly, StartDate: date(2025, 1, 31)}

	occ := expandOK(t, rule, date(2025, 5, 31))

	assert.Equal(t, []time.Time{
		date(2025, 1, 31),
		date(2025, 2, 28), // February has no 31st
		date(2025, 3, 31),
		date(2025, 4, 30),
		date(2025, 5, 31),
	}, occ)
}

func TestExpandMonthlyClampLeapYear(t *testing.T) {
	rule := RecurrenceRule{Frequency: FrequencyMonthly, StartDate: date(2024, 1, 31)}

	occ := expandOK(t, rule, date(2024, 2, 29))

	require.Len(t, occ, 2)
	assert.Equal(t, date(2024, 2, 29), occ[1])
}

func TestExpandRespectsOccurrenceCount(t *testing.T) {
	rule := RecurrenceRule{
		Frequency:       FrequencyDaily,
		StartDate:       date(2025, 1, 1),
		OccurrenceCount: 3,
	}

	occ := expandOK(t, rule, date(2025, 12, 31))

	assert.Len(t, occ, 3, "occurrence count bounds an otherwise distant horizon")
}

func TestExpandRespectsEndDate(t *testing.T) {
	end := date(2025, 1, 15)
	rule := RecurrenceRule{
		Frequency: FrequencyWeekly,
		StartDate: date(2025, 1, 6),
		EndDate:   &end,
	}

	occ := expandOK(t, rule, date(2025, 12, 31))

	assert.Equal(t, []time.Time{date(2025, 1, 6), date(2025, 1, 13)}, occ)
}

func TestExpandHorizonBeforeStart(t *testing.T) {
	rule := RecurrenceRule{Frequency: FrequencyDaily, StartDate: date(2025, 6, 1)}

	occ := expandOK(t, rule, date(2025, 5, 1))

	assert.Empty(t, occ)
}

func TestExpandNormalizesTimestamps(t *testing.T) {
	rule := RecurrenceRule{
		Frequency: FrequencyDaily,
		StartDate: time.Date(2025, 1, 6, 14, 30, 0, 0, time.UTC),
	}

	occ := expandOK(t, rule, time.Date(2025, 1, 8, 23, 59, 0, 0, time.UTC))

	assert.Equal(t, []time.Time{
		date(2025, 1, 6),
		date(2025, 1, 7),
		date(2025, 1, 8),
	}, occ, "occurrences are midnight UTC regardless of the input clock times")
}

func TestExpandIsDeterministic(t *testing.T) {
	rule := RecurrenceRule{Frequency: FrequencyBiweekly, StartDate: date(2025, 1, 6)}
	horizon := date(2026, 1, 6)

	first := expandOK(t, rule, horizon)
	second := expandOK(t, rule, horizon)

	assert.Equal(t, first, second)
}

func TestExpandRejectsInvalidRules(t *testing.T) {
	cases := []struct {
		name string
		rule RecurrenceRule
	}{
		{"unknown frequency", RecurrenceRule{Frequency: "quarterly", StartDate: date(2025, 1, 1)}},
		{"zero start date", RecurrenceRule{Frequency: FrequencyDaily}},
		{"negative count", RecurrenceRule{Frequency: FrequencyDaily, StartDate: date(2025, 1, 1), OccurrenceCount: -1}},
		{"end before start", func() RecurrenceRule {
			end := date(2024, 12, 1)
			return RecurrenceRule{Frequency: FrequencyDaily, StartDate: date(2025, 1, 1), EndDate: &end}
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Expand(tc.rule, date(2025, 12, 31))
			var ruleErr *RuleError
			assert.ErrorAs(t, err, &ruleErr)
		})
	}
}
