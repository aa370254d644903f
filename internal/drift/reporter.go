package drift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText formats a drift report for terminal output. An empty
// report formats to the empty string.
func FormatText(report Report) string {
	if !report.HasDrift {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("snapshot drift detected:\n")

	for _, difference := range report.Differences {
		switch difference.Kind {
		case Added:
			sb.WriteString(fmt.Sprintf("  + %s: (new) -> %s\n", difference.Path, difference.After))
		case Removed:
			sb.WriteString(fmt.Sprintf("  - %s: %s -> (removed)\n", difference.Path, difference.Before))
		case Changed:
			sb.WriteString(fmt.Sprintf("  ~ %s: %s -> %s\n", difference.Path, difference.Before, difference.After))
		}
	}

	sb.WriteString(fmt.Sprintf("%d paths differ\n", len(report.Differences)))
	return sb.String()
}

// FormatJSON formats a drift report as JSON.
func FormatJSON(report Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
