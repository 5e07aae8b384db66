package legal

import (
	"regexp"
	"strings"
)

var (
	bareArticleNumber = regexp.MustCompile(`^\d+(?:-[A-Z])?$`)
	articlePrefix     = regexp.MustCompile(`(?i)^(?:artigo|art\.)\s*`)
)

// NormaliseArticleLabel turns user input such as "3", "3.º", "art. 3.º" or
// "Artigo 5-A" into the label stored on chunks, e.g. "Artigo 3.º".
// Roman numerals and "único" are kept as written after the prefix.
func NormaliseArticleLabel(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	s = articlePrefix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "º.", ".º")
	s = strings.ReplaceAll(s, "°", "º")

	if m := bareArticleNumber.FindString(s); m != "" {
		number, suffix, _ := strings.Cut(m, "-")
		s = number + ".º"
		if suffix != "" {
			s += "-" + suffix
		}
	} else if strings.HasSuffix(s, "º") && !strings.HasSuffix(s, ".º") {
		s = strings.TrimSuffix(s, "º") + ".º"
	}
	return "Artigo " + s
}
