package council

import (
	"regexp"
	"strings"
)

const (
	SectionCrossRatings    = "Cross-Ratings"
	SectionSynthesis       = "Synthesis"
	SectionRecommendedPath = "Recommended Path"
)

// Section is one "**Title:** body" block of the coordinator's final answer.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

var sectionHeader = regexp.MustCompile(`(?m)^[ \t]*\*\*([^*\n]+?):\*\*[ \t]*`)

// ParseSections splits text on bold "Title:" headers that start a line. Text before the first header is dropped.
func ParseSections(text string) []Section {
	matches := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, Section{
			Title: strings.TrimSpace(text[m[2]:m[3]]),
			Body:  strings.TrimSpace(text[m[1]:end]),
		})
	}
	return sections
}
