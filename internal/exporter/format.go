package exporter

import (
	"strconv"
)

// formatDeaths renders a death count with the shortest exact float32 form;
// missing counts become an empty field
func formatDeaths(v *float32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*v), 'f', -1, 32)
}

// formatInt formats an integer value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
