package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/ecoaudit/internal/audit"
	"github.com/nao1215/ecoaudit/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayout is used for every date shown in reports.
const dateLayout = "2006-01-02 15:04:05 MST"

// formatScore renders a 0..1 score on the 0..100 scale, or "-" for nil.
func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(int(math.Round(*score * 100)))
}

// ratingLabel returns the title-cased rating name, e.g. "Not Applicable".
func ratingLabel(r model.Rating) string {
	return cases.Title(language.English).String(r.String())
}

// formatNumeric renders the numeric value of a result with its unit.
// Byte values are shown in IEC units.
func formatNumeric(result *model.AuditResult) string {
	if result.Errored() {
		return "-"
	}
	switch result.NumericUnit {
	case audit.UnitByte:
		if result.NumericValue <= 0 {
			return "0 B"
		}
		return humanize.IBytes(uint64(result.NumericValue))
	case "":
		return humanize.Ftoa(result.NumericValue)
	default:
		unit := result.NumericUnit
		if result.NumericValue != 1 {
			unit += "s"
		}
		return fmt.Sprintf("%s %s", humanize.Ftoa(result.NumericValue), unit)
	}
}

// statusText describes how the run ended.
func statusText(errMsg string) string {
	if errMsg != "" {
		return "ERROR - " + errMsg
	}
	return "Complete"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
