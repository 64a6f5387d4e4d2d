package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "Durasi: 2 jam 15 menit", minutes optional, "mnt" is a common OCR
	// rendering of "menit".
	durasiHoursRe = regexp.MustCompile(`(?i)DURASI[:\s]*(\d+)\s*JAM(?:\s*(\d+)\s*(?:MENIT|MNT))?`)
	// "Durasi 45 menit" without an hour component.
	durasiMinutesRe = regexp.MustCompile(`(?i)DURASI[:\s]*(\d+)\s*(?:MENIT|MNT)`)
	// Bare "<n> jam" anywhere in the text. Only plausible stream lengths
	// count, otherwise any hour-of-day reading would match.
	bareHoursRe = regexp.MustCompile(`(?i)(\d+)\s*JAM`)
)

// Duration returns a human readable duration label found in raw OCR
// text, such as "2 jam 15 menit" or "45 menit". It returns "" when no
// duration is detected.
func Duration(raw string) string {
	text := collapseRe.ReplaceAllString(raw, " ")

	if m := durasiHoursRe.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes := 0
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		return label(hours, minutes)
	}

	if m := durasiMinutesRe.FindStringSubmatch(text); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return label(0, minutes)
	}

	if m := bareHoursRe.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		if hours > 0 && hours <= 24 {
			return label(hours, 0)
		}
	}

	return ""
}

// label renders hours and minutes in Indonesian, omitting zero parts.
func label(hours, minutes int) string {
	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d jam", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d menit", minutes))
	}
	return strings.Join(parts, " ")
}
