// Package supply forecasts how long a drug's stock lasts and flags drugs that
// run low or expire before their course ends.
package supply

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/intake"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/schedule"
)

// customWindow is the number of days averaged for custom drugs.
const customWindow = 28

// Forecaster computes supply figures against a snapshot of intakes.
type Forecaster struct {
	intakes   intake.Querier
	clock     clock.Clock
	threshold int
}

// New returns a Forecaster. A threshold of 0 disables the low supply and
// expiry checks.
func New(intakes intake.Querier, c clock.Clock, threshold int) *Forecaster {
	return &Forecaster{intakes: intakes, clock: c, threshold: threshold}
}

// Threshold returns the configured number of days.
func (f *Forecaster) Threshold() int { return f.threshold }

// DailyDose returns the amount taken on a day the drug is active. Custom
// drugs average their doses over the days following date.
func DailyDose(drug *models.Drug, date time.Time) fraction.Fraction {
	if drug.RepeatMode != models.RepeatCustom {
		return drug.Doses.Total()
	}
	sum := fraction.Zero
	for i := 0; i < customWindow; i++ {
		day := clock.AddDays(date, i)
		for _, dt := range models.DoseTimes {
			dose, err := schedule.GetDose(drug, dt, day)
			if err == nil {
				sum = sum.Add(dose)
			}
		}
	}
	avg, _ := sum.Div(fraction.FromInt(customWindow))
	return avg
}

// CorrectionFactor turns the dose of an active day into a daily burn rate.
func CorrectionFactor(drug *models.Drug) fraction.Fraction {
	switch drug.RepeatMode {
	case models.RepeatEveryNDays:
		if drug.RepeatArg > 0 {
			return fraction.FromInt(drug.RepeatArg)
		}
	case models.RepeatWeekdays:
		if n := bits.OnesCount64(uint64(drug.RepeatArg & models.WeekdayMask)); n > 0 {
			return fraction.MustNew(7, int64(n))
		}
	case models.Repeat21On7Off:
		return fraction.MustNew(4, 3)
	}
	return fraction.FromInt(1)
}

// DaysLeft returns the number of days the current supply lasts from date.
// It reports false when the drug is not forecast: as-needed drugs, drugs
// without a refill size and drugs without doses.
func (f *Forecaster) DaysLeft(drug *models.Drug, date time.Time) (int, bool) {
	if drug.AsNeeded || drug.RefillSize == 0 {
		return 0, false
	}
	date = clock.Date(date)
	daily := DailyDose(drug, date)
	if daily.IsZero() {
		return 0, false
	}

	supply := drug.CurrentSupply
	if date.Equal(clock.Today(f.clock)) && f.intakes != nil {
		for _, dt := range intake.Pending(drug, date, f.intakes) {
			dose, err := schedule.GetDose(drug, dt, date)
			if err == nil {
				supply = supply.Sub(dose)
			}
		}
	}
	if supply.IsNegative() {
		return 0, true
	}

	days, err := supply.Div(daily)
	if err != nil {
		return 0, false
	}
	n := days.Mul(CorrectionFactor(drug)).Floor()
	if n < 0 {
		n = 0
	}
	return int(n), true
}

// HasLowSupplies reports whether the supply lasts fewer days than the
// threshold, unless the course ends before it runs out.
func (f *Forecaster) HasLowSupplies(drug *models.Drug, date time.Time) bool {
	if f.threshold <= 0 {
		return false
	}
	days, ok := f.DaysLeft(drug, date)
	if !ok || days >= f.threshold {
		return false
	}
	if drug.HasScheduleEndDate() {
		return days < clock.DaysBetween(date, drug.ScheduleEndDate)
	}
	return true
}

// WillExpireSoon reports whether the drug expires within the threshold while
// it is still being taken.
func (f *Forecaster) WillExpireSoon(drug *models.Drug, date time.Time) bool {
	if !drug.HasExpirationDate() {
		return false
	}
	expires := clock.Date(drug.ExpirationDate)
	if drug.HasScheduleEndDate() && !drug.ScheduleEndDate.After(expires) {
		return false
	}
	return clock.AddDays(date, f.threshold).After(expires)
}

// Status is one entry of a Report.
type Status struct {
	DrugID         string    `json:"drugId"`
	Name           string    `json:"name"`
	DaysLeft       int       `json:"daysLeft"`
	ExpirationDate time.Time `json:"expirationDate,omitempty"`
}

// Report lists the active drugs needing a refill or replacement.
type Report struct {
	Date         time.Time `json:"date"`
	LowSupply    []Status  `json:"lowSupply"`
	ExpiringSoon []Status  `json:"expiringSoon"`
}

// Empty reports whether nothing needs attention.
func (r *Report) Empty() bool {
	return len(r.LowSupply) == 0 && len(r.ExpiringSoon) == 0
}

// Count returns the number of flagged entries.
func (r *Report) Count() int {
	return len(r.LowSupply) + len(r.ExpiringSoon)
}

// Summary renders the report as plain text, one drug per line.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, s := range r.LowSupply {
		fmt.Fprintf(&b, "%s: %d days left\n", s.Name, s.DaysLeft)
	}
	for _, s := range r.ExpiringSoon {
		fmt.Fprintf(&b, "%s: expires %s\n", s.Name, clock.FormatDate(s.ExpirationDate))
	}
	return b.String()
}

// Check evaluates every active drug on date.
func (f *Forecaster) Check(drugs []models.Drug, date time.Time) Report {
	r := Report{Date: clock.Date(date)}
	for i := range drugs {
		d := &drugs[i]
		if !d.Active {
			continue
		}
		if f.HasLowSupplies(d, date) {
			days, _ := f.DaysLeft(d, date)
			r.LowSupply = append(r.LowSupply, Status{DrugID: d.ID, Name: d.Name, DaysLeft: days})
		}
		if f.WillExpireSoon(d, date) {
			r.ExpiringSoon = append(r.ExpiringSoon, Status{DrugID: d.ID, Name: d.Name, ExpirationDate: d.ExpirationDate})
		}
	}
	return r
}
