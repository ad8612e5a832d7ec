package scene

import "strings"

// wordWrap breaks text into lines of at most width columns, splitting on
// spaces. Words longer than width are kept intact on their own line.
func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			lineLen = len(w)
			continue
		}
		if lineLen+1+len(w) > width {
			b.WriteByte('\n')
			b.WriteString(w)
			lineLen = len(w)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(w)
		lineLen += 1 + len(w)
	}
	return b.String()
}
