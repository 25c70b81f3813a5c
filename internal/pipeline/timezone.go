package pipeline

import (
	"fmt"
	"sort"
)

// DefaultTimezone applies when no church carries a usable zipcode.
const DefaultTimezone = "Europe/Paris"

// department extracts the French department code from a zipcode; overseas
// departments use three digits.
func department(zipcode string) string {
	if len(zipcode) < 2 {
		return ""
	}
	if zipcode[:2] == "97" || zipcode[:2] == "98" {
		if len(zipcode) < 3 {
			return ""
		}
		return zipcode[:3]
	}
	return zipcode[:2]
}

// TimezoneOfZipcode maps a French zipcode to its IANA timezone, covering
// the overseas departments.
func TimezoneOfZipcode(zipcode string) (string, error) {
	dept := department(zipcode)
	if dept == "" {
		return "", fmt.Errorf("zipcode %q has no department", zipcode)
	}
	if len(dept) == 2 {
		return "Europe/Paris", nil
	}

	switch dept {
	case "971":
		return "America/Guadeloupe", nil
	case "972":
		return "America/Martinique", nil
	case "973":
		return "America/Cayenne", nil
	case "974":
		return "Indian/Reunion", nil
	case "976":
		return "Indian/Mayotte", nil
	}
	return "", fmt.Errorf("no timezone known for department %s", dept)
}

// TimezoneOfChurches resolves the timezone shared by a set of churches by
// majority vote over their zipcodes, tie-breaking on name so the result is
// deterministic.
func TimezoneOfChurches(churches []Church) string {
	counts := map[string]int{}
	for _, church := range churches {
		if church.Zipcode == "" {
			continue
		}
		tz, err := TimezoneOfZipcode(church.Zipcode)
		if err != nil {
			continue
		}
		counts[tz]++
	}
	if len(counts) == 0 {
		return DefaultTimezone
	}

	names := make([]string, 0, len(counts))
	for tz := range counts {
		names = append(names, tz)
	}
	sort.Strings(names)

	best := names[0]
	for _, tz := range names[1:] {
		if counts[tz] > counts[best] {
			best = tz
		}
	}
	return best
}
