package attendance

import (
	"math"
	"sort"
	"time"
)

// Zone thresholds for student analytics.
const (
	greenZone  = 75.0
	yellowZone = 60.0
)

// tally counts classes and the ones attended. Only present counts as
// attended; late and absent do not.
type tally struct {
	total    int
	attended int
}

func (t *tally) add(r Record) {
	t.total++
	if r.Status == StatusPresent {
		t.attended++
	}
}

func (t tally) percentage() float64 {
	if t.total == 0 {
		return 0
	}
	return round2(float64(t.attended) / float64(t.total) * 100)
}

func tallyRecords(records []Record) tally {
	var t tally
	for _, r := range records {
		t.add(r)
	}
	return t
}

func tallyByUser(records []Record) map[string]*tally {
	out := make(map[string]*tally)
	for _, r := range records {
		t, ok := out[r.UserID]
		if !ok {
			t = &tally{}
			out[r.UserID] = t
		}
		t.add(r)
	}
	return out
}

// dailyRates groups records by calendar day of check-in.
func dailyRates(records []Record) map[string]float64 {
	days := make(map[string]*tally)
	for _, r := range records {
		key := r.CheckIn.Format(dateLayout)
		t, ok := days[key]
		if !ok {
			t = &tally{}
			days[key] = t
		}
		t.add(r)
	}
	out := make(map[string]float64, len(days))
	for k, t := range days {
		out[k] = t.percentage()
	}
	return out
}

// meanRate averages the per-day rates so each day weighs the same.
func meanRate(rates map[string]float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	var sum float64
	for _, v := range rates {
		sum += v
	}
	return round2(sum / float64(len(rates)))
}

// weeklyReport summarizes the most recent limit ISO weeks, newest first.
func weeklyReport(records []Record, limit int) []WeeklyReport {
	type key struct{ year, week int }
	weeks := make(map[key]*tally)
	for _, r := range records {
		y, w := r.CheckIn.ISOWeek()
		k := key{y, w}
		t, ok := weeks[k]
		if !ok {
			t = &tally{}
			weeks[k] = t
		}
		t.add(r)
	}
	keys := make([]key, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].week > keys[j].week
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]WeeklyReport, 0, len(keys))
	for _, k := range keys {
		t := weeks[k]
		out = append(out, WeeklyReport{Week: k.week, TotalPeriods: t.total, AttendedPeriods: t.attended})
	}
	return out
}

// trend returns the daily rate for each of the last days ending at now,
// oldest first. Days without classes are skipped.
func trend(records []Record, now time.Time, days int) []TrendPoint {
	rates := dailyRates(records)
	out := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i).Format(dateLayout)
		if rate, ok := rates[d]; ok {
			out = append(out, TrendPoint{Date: d, AttendanceRate: rate})
		}
	}
	return out
}

func zonesFor(stats []StudentStat) Zones {
	var z Zones
	for _, s := range stats {
		switch {
		case s.AttendancePercentage >= greenZone:
			z.Green++
		case s.AttendancePercentage >= yellowZone:
			z.Yellow++
		default:
			z.Red++
		}
	}
	return z
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clock parses HH:MM (or HH:MM:SS) into an offset from midnight.
func clock(s string) (time.Duration, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

func sinceMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}
