package core

import "fmt"

// maxBusinessDaySteps bounds the forward walk in NextBusinessDay.
const maxBusinessDaySteps = 60

var fixedHolidays = map[string]string{
	"01-01": "Yılbaşı",
	"04-23": "Ulusal Egemenlik ve Çocuk Bayramı",
	"05-01": "Emek ve Dayanışma Günü",
	"05-19": "Atatürk'ü Anma, Gençlik ve Spor Bayramı",
	"07-15": "Demokrasi ve Milli Birlik Günü",
	"08-30": "Zafer Bayramı",
	"10-28": "Cumhuriyet Bayramı Arifesi",
	"10-29": "Cumhuriyet Bayramı",
}

// Religious holidays move with the lunar calendar and are only known for the
// years listed here.
var movableHolidays = map[int]map[string]string{
	2026: {
		"03-19": "Ramazan Bayramı Arifesi",
		"03-20": "Ramazan Bayramı",
		"03-21": "Ramazan Bayramı",
		"03-22": "Ramazan Bayramı",
		"05-26": "Kurban Bayramı Arifesi",
		"05-27": "Kurban Bayramı",
		"05-28": "Kurban Bayramı",
		"05-29": "Kurban Bayramı",
		"05-30": "Kurban Bayramı",
	},
	2027: {
		"03-08": "Ramazan Bayramı Arifesi",
		"03-09": "Ramazan Bayramı",
		"03-10": "Ramazan Bayramı",
		"03-11": "Ramazan Bayramı",
		"05-15": "Kurban Bayramı Arifesi",
		"05-16": "Kurban Bayramı",
		"05-17": "Kurban Bayramı",
		"05-18": "Kurban Bayramı",
		"05-19": "Kurban Bayramı",
	},
}

// Holidays returns the official holidays of a year keyed by ISO date.
// Years without movable data get the fixed holidays only.
func Holidays(year int) map[string]string {
	out := make(map[string]string, len(fixedHolidays)+10)
	for md, name := range fixedHolidays {
		out[fmt.Sprintf("%04d-%s", year, md)] = name
	}
	for md, name := range movableHolidays[year] {
		key := fmt.Sprintf("%04d-%s", year, md)
		if prev, ok := out[key]; ok {
			name = prev + " & " + name
		}
		out[key] = name
	}
	return out
}

// IsHoliday reports whether d is an official holiday.
func IsHoliday(d Date) bool {
	_, ok := Holidays(d.Year())[d.ISO()]
	return ok
}

// IsBusinessDay reports whether d is neither a weekend day nor a holiday.
func IsBusinessDay(d Date) bool {
	switch d.Weekday() {
	case 0, 6:
		return false
	}
	return !IsHoliday(d)
}

// NextBusinessDay returns d if it is a business day, otherwise the first
// business day after it. The walk gives up after 60 steps and returns where
// it stopped.
func NextBusinessDay(d Date) Date {
	for i := 0; i < maxBusinessDaySteps && !IsBusinessDay(d); i++ {
		d = d.AddDays(1)
	}
	return d
}
