package supply

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/intake"
	"github.com/linesmerrill/dose-reminder-api/models"
)

var (
	today    = clock.NewDate(2024, time.June, 10)
	tomorrow = clock.AddDays(today, 1)
)

func testClock() clock.Clock {
	return clock.NewManaged(today.Add(9 * time.Hour))
}

func halfMorning() models.Drug {
	d := models.Drug{
		ID:            "d1",
		Name:          "Half Morning",
		Active:        true,
		RefillSize:    30,
		CurrentSupply: fraction.FromInt(10),
	}
	d.Doses[models.DoseTimeMorning] = fraction.MustNew(1, 2)
	return d
}

func TestDaysLeft_HalfMorningScenario(t *testing.T) {
	d := halfMorning()
	f := New(intake.NewIndex(nil), testClock(), 10)

	days, ok := f.DaysLeft(&d, tomorrow)
	require.True(t, ok)
	assert.Equal(t, 20, days)
	assert.Equal(t, fraction.MustNew(1, 2), DailyDose(&d, tomorrow))
}

func TestDaysLeft_SubtractsPendingDoseToday(t *testing.T) {
	d := halfMorning()

	f := New(intake.NewIndex(nil), testClock(), 10)
	days, ok := f.DaysLeft(&d, today)
	require.True(t, ok)
	assert.Equal(t, 19, days)

	taken := intake.NewIndex([]models.DoseEvent{{DrugID: "d1", Date: today, DoseTime: models.DoseTimeMorning}})
	f = New(taken, testClock(), 10)
	days, ok = f.DaysLeft(&d, today)
	require.True(t, ok)
	assert.Equal(t, 20, days)
}

func TestDaysLeft_NotApplicable(t *testing.T) {
	f := New(intake.NewIndex(nil), testClock(), 10)

	asNeeded := halfMorning()
	asNeeded.AsNeeded = true
	noRefill := halfMorning()
	noRefill.RefillSize = 0
	noDoses := halfMorning()
	noDoses.Doses = models.Doses{}

	for _, d := range []models.Drug{asNeeded, noRefill, noDoses} {
		_, ok := f.DaysLeft(&d, tomorrow)
		assert.False(t, ok)
	}
}

func TestDaysLeft_MonotonicInSupply(t *testing.T) {
	f := New(intake.NewIndex(nil), testClock(), 10)
	d := halfMorning()
	d.Doses[models.DoseTimeNight] = fraction.MustNew(1, 3)
	d.RepeatMode = models.RepeatWeekdays
	d.RepeatArg = 0x2b

	prev := -1
	for quarters := int64(0); quarters <= 200; quarters++ {
		d.CurrentSupply = fraction.MustNew(quarters, 4)
		days, ok := f.DaysLeft(&d, today)
		require.True(t, ok)
		assert.GreaterOrEqual(t, days, prev)
		assert.GreaterOrEqual(t, days, 0)
		prev = days
	}
}

func TestCorrectionFactor(t *testing.T) {
	tests := []struct {
		mode models.RepeatMode
		arg  int64
		want fraction.Fraction
	}{
		{models.RepeatDaily, 0, fraction.FromInt(1)},
		{models.RepeatEveryNDays, 3, fraction.FromInt(3)},
		{models.RepeatWeekdays, 0x15, fraction.MustNew(7, 3)},
		{models.Repeat21On7Off, 0, fraction.MustNew(4, 3)},
		{models.RepeatCustom, 0, fraction.FromInt(1)},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			d := models.Drug{RepeatMode: tt.mode, RepeatArg: tt.arg}
			assert.Equal(t, tt.want, CorrectionFactor(&d))
		})
	}
}

func TestDaysLeft_EveryNDays(t *testing.T) {
	f := New(intake.NewIndex(nil), testClock(), 10)
	d := halfMorning()
	d.RepeatMode = models.RepeatEveryNDays
	d.RepeatArg = 2
	d.RepeatOrigin = today

	days, ok := f.DaysLeft(&d, tomorrow)
	require.True(t, ok)
	assert.Equal(t, 40, days)
}

func TestDailyDose_Custom(t *testing.T) {
	s := models.Schedule{Begin: today, End: clock.AddDays(today, 13)}
	s.Doses[models.DoseTimeMorning] = fraction.FromInt(2)
	d := models.Drug{Name: "Custom", Active: true, RepeatMode: models.RepeatCustom, Schedules: []models.Schedule{s}}

	assert.Equal(t, fraction.FromInt(1), DailyDose(&d, today))
}

func TestHasLowSupplies(t *testing.T) {
	f := New(intake.NewIndex(nil), testClock(), 30)
	d := halfMorning()
	assert.True(t, f.HasLowSupplies(&d, tomorrow))

	d.ScheduleEndDate = clock.AddDays(tomorrow, 15)
	assert.False(t, f.HasLowSupplies(&d, tomorrow), "course ends before the supply runs out")

	d.ScheduleEndDate = clock.AddDays(tomorrow, 25)
	assert.True(t, f.HasLowSupplies(&d, tomorrow))

	off := New(intake.NewIndex(nil), testClock(), 0)
	assert.False(t, off.HasLowSupplies(&d, tomorrow))
}

func TestWillExpireSoon(t *testing.T) {
	f := New(intake.NewIndex(nil), testClock(), 7)
	d := halfMorning()
	assert.False(t, f.WillExpireSoon(&d, today))

	d.ExpirationDate = clock.AddDays(today, 5)
	assert.True(t, f.WillExpireSoon(&d, today))

	d.ExpirationDate = clock.AddDays(today, 7)
	assert.False(t, f.WillExpireSoon(&d, today))

	d.ExpirationDate = clock.AddDays(today, 5)
	d.ScheduleEndDate = clock.AddDays(today, 3)
	assert.False(t, f.WillExpireSoon(&d, today), "course ends before expiry")
}

func TestCheck(t *testing.T) {
	f := New(intake.NewIndex(nil), testClock(), 30)

	low := halfMorning()
	expiring := halfMorning()
	expiring.ID, expiring.Name = "d2", "Expiring"
	expiring.CurrentSupply = fraction.FromInt(100)
	expiring.ExpirationDate = clock.AddDays(today, 3)
	inactive := halfMorning()
	inactive.ID, inactive.Active = "d3", false

	r := f.Check([]models.Drug{low, expiring, inactive}, tomorrow)

	want := Report{
		Date:         tomorrow,
		LowSupply:    []Status{{DrugID: "d1", Name: "Half Morning", DaysLeft: 20}},
		ExpiringSoon: []Status{{DrugID: "d2", Name: "Expiring", ExpirationDate: expiring.ExpirationDate}},
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, r.Count())
	assert.False(t, r.Empty())
	assert.Equal(t, "Half Morning: 20 days left\nExpiring: expires 2024-06-13\n", r.Summary())
}
