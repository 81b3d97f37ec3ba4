package precip

import (
	"log"
	"sort"
	"time"

	"github.com/AgriSight/AS-Backend/internal/upstream/archive"
)

// msEpochFloor separates second-precision epochs from millisecond ones.
// Anything above it (year ~33658 in seconds) must be milliseconds.
const msEpochFloor = int64(1e12)

// RecordsFromSeries converts the archive's parallel arrays into records,
// normalising millisecond epochs down to seconds.
func RecordsFromSeries(s *archive.Series) []Record {
	records := make([]Record, 0, len(s.Time))
	warned := false
	for i, ts := range s.Time {
		if ts > msEpochFloor {
			if !warned {
				log.Printf("[precip] archive timestamps look like milliseconds, normalising")
				warned = true
			}
			ts /= 1000
		}
		r := Record{Timestamp: time.Unix(ts, 0).UTC()}
		if i < len(s.Rain) {
			r.RainMM = s.Rain[i]
		}
		if i < len(s.SoilMoisture) {
			r.SoilMoisture = s.SoilMoisture[i]
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}

// Group buckets records by (year, month 0..11). Order within each bucket
// follows the input order.
func Group(records []Record) map[int]map[int][]Record {
	groups := make(map[int]map[int][]Record)
	for _, r := range records {
		year := r.Timestamp.Year()
		month := int(r.Timestamp.Month()) - 1
		if groups[year] == nil {
			groups[year] = make(map[int][]Record)
		}
		groups[year][month] = append(groups[year][month], r)
	}
	return groups
}

// Flatten reverses Group, returning every record in timestamp order.
func Flatten(groups map[int]map[int][]Record) []Record {
	var out []Record
	for _, months := range groups {
		for _, recs := range months {
			out = append(out, recs...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// years returns the sorted list of years present.
func years(groups map[int]map[int][]Record) []int {
	out := make([]int, 0, len(groups))
	for y := range groups {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// monthTotal sums the rain of one bucket.
func monthTotal(recs []Record) float64 {
	var total float64
	for _, r := range recs {
		total += r.RainMM
	}
	return total
}

// monthlyAverages returns, per month, the mean across years of that month's
// total rainfall.
func monthlyAverages(groups map[int]map[int][]Record) [12]float64 {
	var sums [12]float64
	var counts [12]int
	for _, months := range groups {
		for m, recs := range months {
			sums[m] += monthTotal(recs)
			counts[m]++
		}
	}
	var avgs [12]float64
	for m := range sums {
		if counts[m] > 0 {
			avgs[m] = sums[m] / float64(counts[m])
		}
	}
	return avgs
}

// recordMeans returns, per month, the mean rainfall per record across all
// years. Extremes and recharge compare single records against these, so the
// scale has to match the record cadence rather than monthly totals.
func recordMeans(groups map[int]map[int][]Record) [12]float64 {
	var sums [12]float64
	var counts [12]int
	for _, months := range groups {
		for m, recs := range months {
			sums[m] += monthTotal(recs)
			counts[m] += len(recs)
		}
	}
	var means [12]float64
	for m := range sums {
		if counts[m] > 0 {
			means[m] = sums[m] / float64(counts[m])
		}
	}
	return means
}
