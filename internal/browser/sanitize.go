package browser

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ansiRE matches ANSI escape sequences, so command text copied out of a
// terminal scrollback never reaches the renderer with stray control codes.
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// ellipsis is the truncation marker used by TruncateDirectory.
const ellipsis = "…"

// TruncateDirectory truncates dir from the left with a leading ellipsis
// when its display width exceeds maxWidth, so the most specific (rightmost)
// path segments stay visible.
func TruncateDirectory(dir string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(dir) <= maxWidth {
		return dir
	}
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}

	runes := []rune(dir)
	width := 0
	start := len(runes)
	budget := maxWidth - runewidth.StringWidth(ellipsis)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if width+rw > budget {
			break
		}
		width += rw
		start = i
	}
	return ellipsis + string(runes[start:])
}

// Range is a half-open [Start, End) byte offset span within a command's
// text that should be rendered highlighted, covering one case-insensitive
// occurrence of the current filter.
type Range struct {
	Start int
	End   int
}

// HighlightRanges returns every case-insensitive, non-overlapping
// occurrence of filter within command. An empty filter yields no ranges.
func HighlightRanges(command, filter string) []Range {
	if filter == "" {
		return nil
	}
	lowerCmd := strings.ToLower(command)
	lowerFilter := strings.ToLower(filter)

	var ranges []Range
	pos := 0
	for {
		idx := strings.Index(lowerCmd[pos:], lowerFilter)
		if idx == -1 {
			break
		}
		start := pos + idx
		end := start + len(lowerFilter)
		ranges = append(ranges, Range{Start: start, End: end})
		pos = end
	}
	return ranges
}
