package emotion

import (
	"sort"
	"strings"
	"time"

	"github.com/oliverisaac/grooming/lib/apperr"
)

const monthLayout = "2006-01"

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth reads a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, apperr.Validation("invalid month %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return m.First().Format(monthLayout)
}

// First is midnight UTC of day 1.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last is midnight UTC of the final day.
func (m Month) Last() time.Time {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)
}

func (m Month) Days() int {
	return m.Last().Day()
}

func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// LabelCount is one slice of the monthly histogram.
type LabelCount struct {
	Label    Label   `json:"emotion_label"`
	ImageKey string  `json:"emotion_emoji"`
	Count    int     `json:"emotion_cnt"`
	Percent  float64 `json:"emotion_percent"`
}

// DailyScore is one point of the daily trend graph.
type DailyScore struct {
	Date   string  `json:"date"`
	Angry  float64 `json:"Angry"`
	Fear   float64 `json:"Fear"`
	Happy  float64 `json:"Happy"`
	Tender float64 `json:"Tender"`
	Sad    float64 `json:"Sad"`
}

func (d *DailyScore) set(l Label, v float64) {
	switch l {
	case Angry:
		d.Angry = v
	case Fear:
		d.Fear = v
	case Happy:
		d.Happy = v
	case Tender:
		d.Tender = v
	case Sad:
		d.Sad = v
	}
}

// DayRecord is the part of a diary entry the monthly statistics read.
type DayRecord struct {
	Date         time.Time
	Label        Label
	Distribution Distribution
}

type MonthlyStats struct {
	Month      string       `json:"monthly_year"`
	DiaryCount int          `json:"diary_cnt"`
	Histogram  []LabelCount `json:"emotion_state"`
	Daily      []DailyScore `json:"daily_emotion_scores"`
}

// BuildMonthlyStats summarizes the records that fall inside m.
func BuildMonthlyStats(m Month, records []DayRecord) MonthlyStats {
	byDay := make(map[int]DayRecord, len(records))
	counts := make(map[Label]int, len(Labels))
	total := 0
	for _, r := range records {
		if !m.Contains(r.Date) {
			continue
		}
		if _, dup := byDay[r.Date.Day()]; dup {
			continue
		}
		byDay[r.Date.Day()] = r
		label := r.Label
		if !label.Valid() {
			label = Neutral
		}
		counts[label]++
		total++
	}

	hist := make([]LabelCount, 0, len(Labels))
	for _, l := range Labels {
		lc := LabelCount{Label: l, ImageKey: l.ImageKey(), Count: counts[l]}
		if total > 0 {
			lc.Percent = round(float64(lc.Count)/float64(total)*100, 1)
		}
		hist = append(hist, lc)
	}
	sort.SliceStable(hist, func(i, j int) bool {
		return hist[i].Count > hist[j].Count
	})

	daily := make([]DailyScore, 0, m.Days())
	for day := 1; day <= m.Days(); day++ {
		date := time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
		ds := DailyScore{Date: date.Format(time.DateOnly)}
		if r, ok := byDay[day]; ok {
			for _, l := range RawLabels {
				ds.set(l, round(r.Distribution.Get(l), 4))
			}
		}
		daily = append(daily, ds)
	}

	return MonthlyStats{
		Month:      m.String(),
		DiaryCount: total,
		Histogram:  hist,
		Daily:      daily,
	}
}
