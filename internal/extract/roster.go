// Package extract turns raw text pulled off a timesheet image into a
// partner roster. It sits at the collaborator boundary: its errors are
// extraction problems, never engine error kinds.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"tippool/internal/core"
)

// ErrNoPartnersFound means no line in the text looked like a roster
// entry at all.
var ErrNoPartnersFound = errors.New("no partner entries found in extracted text")

// Line shapes accepted, tried in order: "Name: 8.5", "Name - 8.5",
// "Name 8.5". Names may contain spaces; hours are decimal.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s*:\s*(\d+(?:[.,]\d+)?)\s*$`),
	regexp.MustCompile(`^(.+?)\s+-\s+(\d+(?:[.,]\d+)?)\s*$`),
	regexp.MustCompile(`^(.+?)\s+(\d+(?:[.,]\d+)?)\s*$`),
}

// ParseRoster scans extracted text line by line and returns the roster
// in line order. Lines that match no pattern are noise (OCR headers,
// smudges, totals rows) and are skipped; the roster keeps duplicates,
// since two partners can share a name.
func ParseRoster(text string) ([]core.PartnerHours, error) {
	var roster []core.PartnerHours
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if p, ok := parseLine(line); ok {
			roster = append(roster, p)
		}
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: %d lines scanned", ErrNoPartnersFound, countLines(text))
	}
	return roster, nil
}

func parseLine(line string) (core.PartnerHours, bool) {
	for _, pat := range linePatterns {
		m := pat.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		hours, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", "."))
		if err != nil || hours.IsNegative() {
			continue
		}
		return core.PartnerHours{Name: name, Hours: hours}, true
	}
	return core.PartnerHours{}, false
}

func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
