package stringutils

import "strings"

// RemoveLines drops every line of s that starts with prefix.
func RemoveLines(s string, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var res strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			continue
		}
		res.WriteString(line)
	}
	return res.String()
}
