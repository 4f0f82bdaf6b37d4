package engine

import (
	"math"
	"sort"
	"strings"
	"time"
)

// PeakPrediction marks one hour of the day as expected high activity.
type PeakPrediction struct {
	Hour       int     `json:"hour"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

const (
	LabelPeak     = "ذروة متوقعة"
	LabelElevated = "نشاط مرتفع"

	peakCount = 3

	// confidenceBias is added flat to every bucket's raw proportion.
	confidenceBias = 0.2
)

// timestampLayouts are tried in order. Layouts without a zone are read in
// local time; zoned stamps are converted to local before bucketing.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timestampLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t.In(time.Local), true
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PredictPeaks aggregates historical submission timestamps into an
// hour-of-day histogram and returns the top three hours. Unparseable
// timestamps are skipped. The result always has exactly three entries,
// zero-count hours included, so sparse data still yields a full prediction.
func PredictPeaks(timestamps []string) []PeakPrediction {
	var hist [24]int
	total := 0
	for _, s := range timestamps {
		t, ok := parseTimestamp(s)
		if !ok {
			continue
		}
		hist[t.Hour()]++
		total++
	}
	if total < 1 {
		total = 1
	}

	hours := make([]int, 24)
	for h := range hours {
		hours[h] = h
	}
	sort.SliceStable(hours, func(i, j int) bool {
		if hist[hours[i]] != hist[hours[j]] {
			return hist[hours[i]] > hist[hours[j]]
		}
		return hours[i] < hours[j]
	})

	out := make([]PeakPrediction, 0, peakCount)
	for i := 0; i < peakCount; i++ {
		h := hours[i]
		label := LabelElevated
		if i == 0 {
			label = LabelPeak
		}
		out = append(out, PeakPrediction{
			Hour:       h,
			Label:      label,
			Confidence: math.Min(1, float64(hist[h])/float64(total)+confidenceBias),
		})
	}
	return out
}
