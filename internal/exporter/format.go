package exporter

import (
	"fmt"
	"math"
)

// formatFloat renders a mark or aggregate with two decimal places so
// 13.4 exports as 13.40.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

// formatOptionalFloat renders a nullable value, empty when absent.
func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
