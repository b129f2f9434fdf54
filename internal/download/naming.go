package download

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const safeFilenameExtras = " ._-'()"

// SafeFilename replaces every rune that is not a letter, number, or one of
// " ._-'()" with an underscore.
func SafeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune(safeFilenameExtras, r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// EpisodeFilename builds "Show - S01E02 - Title.ext", dropping the title part
// when the sanitized title is empty.
func EpisodeFilename(show string, season, episode int, title, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := fmt.Sprintf("%s - S%02dE%02d", SafeFilename(show), season, episode)
	if t := SafeFilename(title); t != "" {
		base += " - " + t
	}
	return base + ext
}

// ParseSeasonRanges parses input such as "1,2,4-6" into sorted, unique
// values within [1, maxValue]. Reversed ranges are swapped and junk is ignored,
// including ranges with spaces around the dash.
func ParseSeasonRanges(input string, maxValue int) []int {
	seen := make(map[int]struct{})
	add := func(v int) {
		if v >= 1 && v <= maxValue {
			seen[v] = struct{}{}
		}
	}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := parseDigits(lo)
			end, err2 := parseDigits(hi)
			if err1 != nil || err2 != nil {
				continue
			}
			if start > end {
				start, end = end, start
			}
			for v := max(start, 1); v <= min(end, maxValue); v++ {
				add(v)
			}
			continue
		}
		if v, err := parseDigits(part); err == nil {
			add(v)
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// parseDigits accepts only ASCII digits; any space makes the value invalid.
// Values too large for an int saturate so ranges still clamp to the maximum.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	v, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, nil
	}
	return v, err
}
