package styles

import (
	"html"
	"regexp"
	"strings"
)

var formattingCodes = regexp.MustCompile(`(?i)§([0-9a-fk-or]?)`)

var colors = map[string]string{
	"0": "000000",
	"1": "0000AA",
	"2": "00AA00",
	"3": "00AAAA",
	"4": "AA0000",
	"5": "AA00AA",
	"6": "FFAA00",
	"7": "AAAAAA",
	"8": "555555",
	"9": "5555FF",
	"a": "55FF55",
	"b": "55FFFF",
	"c": "FF5555",
	"d": "FF55FF",
	"e": "FFFF55",
	"f": "FFFFFF",
}

// Clean removes legacy section sign formatting codes (colors, bold, reset, etc)
// and collapses the whitespace left behind
func Clean(text string) string {
	text = formattingCodes.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// ToHTML escapes the text and turns color codes into spans.
// Decoration codes are dropped, §r resets the color
func ToHTML(text string) string {
	var b strings.Builder
	color := ""
	write := func(segment string) {
		if segment == "" {
			return
		}
		if color == "" {
			b.WriteString(html.EscapeString(segment))
			return
		}
		b.WriteString(`<span style="color:#` + color + `;">`)
		b.WriteString(html.EscapeString(segment))
		b.WriteString(`</span>`)
	}

	pos := 0
	for _, m := range formattingCodes.FindAllStringSubmatchIndex(text, -1) {
		write(text[pos:m[0]])
		pos = m[1]
		code := strings.ToLower(text[m[2]:m[3]])
		if hex, ok := colors[code]; ok {
			color = hex
		} else if code == "r" {
			color = ""
		}
	}
	write(text[pos:])

	return b.String()
}
