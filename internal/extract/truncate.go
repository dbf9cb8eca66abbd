package extract

import "unicode/utf8"

// Truncate returns at most limit characters (code points) of text.
// The cut always lands on a rune boundary. A non-positive limit disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
