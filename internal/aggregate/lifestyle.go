package aggregate

import (
	"sort"

	"walletclinic/internal/catalog"
	"walletclinic/internal/model"
)

// Lifestyle holds the time-of-day and calendar facts behind lifestyle badges.
type Lifestyle struct {
	Timestamps    []string
	MainnetLaunch string
	HolidayDates  []string
	ActiveDays    int
	MaxDailyTxs   int
	Morning       bool
	Night         bool
	FirstWeek     bool
	DoctorsDay    bool
	Holiday       bool
}

// IntensiveDay reports whether some UTC day saw at least ten transactions.
func (l Lifestyle) IntensiveDay() bool {
	return l.MaxDailyTxs >= 10
}

// ActiveInOwnFirstWeek reports activity within seven days of the wallet's
// first timestamp. Unlike FirstWeek the window starts at the wallet, not at
// mainnet launch, so any active wallet qualifies.
func (l Lifestyle) ActiveInOwnFirstWeek() bool {
	return len(l.Timestamps) > 0
}

// ComputeLifestyle scans successful transactions and every transfer.
// Morning is 06:00-08:59 UTC and night is 00:00-05:59 UTC.
func ComputeLifestyle(txs []model.Transaction, erc20, nft []model.Transfer, cat *catalog.Catalog) Lifestyle {
	stamps := make(map[int64]struct{})
	for _, tx := range txs {
		if tx.OK() && tx.Timestamp > 0 {
			stamps[tx.Timestamp] = struct{}{}
		}
	}
	for _, group := range [][]model.Transfer{erc20, nft} {
		for _, tr := range group {
			if tr.Timestamp > 0 {
				stamps[tr.Timestamp] = struct{}{}
			}
		}
	}

	ordered := make([]int64, 0, len(stamps))
	for ts := range stamps {
		ordered = append(ordered, ts)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	out := Lifestyle{
		Timestamps:    make([]string, 0, len(ordered)),
		MainnetLaunch: cat.MainnetLaunch.Format(isoMillis),
		HolidayDates:  []string{},
	}
	launch := cat.MainnetLaunch.Unix()
	firstWeekEnd := launch + 7*secondsPerDay
	perDay := make(map[string]int)
	holidaySeen := make(map[string]struct{})

	for _, ts := range ordered {
		t := unixUTC(ts)
		out.Timestamps = append(out.Timestamps, t.Format(isoMillis))

		day := dayKey(t)
		perDay[day]++
		if perDay[day] > out.MaxDailyTxs {
			out.MaxDailyTxs = perDay[day]
		}

		hour := t.Hour()
		if hour >= 6 && hour < 9 {
			out.Morning = true
		}
		if hour < 6 {
			out.Night = true
		}
		if ts >= launch && ts < firstWeekEnd {
			out.FirstWeek = true
		}

		md := monthDayKey(t)
		if md == cat.DoctorsDay {
			out.DoctorsDay = true
		}
		if cat.IsHoliday(md) {
			out.Holiday = true
			if _, ok := holidaySeen[day]; !ok {
				holidaySeen[day] = struct{}{}
				out.HolidayDates = append(out.HolidayDates, day)
			}
		}
	}
	out.ActiveDays = len(perDay)
	return out
}
