package council

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-council/backend/internal/model/persona"
)

// perspectiveRequest is what each collaborator receives in the first step.
func perspectiveRequest(coord persona.Coordinator, question string) string {
	return fmt.Sprintf(`%s is seeking your counsel. Please give your perspective on the following question.

Question: %s`, coord.Name, question)
}

// ratingRequest asks a collaborator to score another's full response.
func ratingRequest(target, response string) string {
	return fmt.Sprintf(`Please rate %s's response on a scale of 1-10 with a brief reason.

%s's full response:
"""
%s
"""

Start your reply with the score written as N/10, then give your reason.`, target, target, strings.TrimSpace(response))
}

// synthesisRequest hands the coordinator everything gathered and fixes the output layout.
func synthesisRequest(question string, collaborators []string, perspectives []Perspective, ratings []Rating) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nPerspectives gathered:\n")
	for _, p := range perspectives {
		fmt.Fprintf(&b, "\n### %s\n%s\n", p.Agent, strings.TrimSpace(p.Content))
	}

	if len(ratings) > 0 {
		b.WriteString("\nCross-ratings:\n")
		for _, r := range ratings {
			if r.Scored() {
				fmt.Fprintf(&b, "- %s rated %s %d/10: %s\n", r.Rater, r.Target, r.Score, oneLine(r.Reason))
			} else {
				fmt.Fprintf(&b, "- %s did not give %s a clear score: %s\n", r.Rater, r.Target, oneLine(r.Raw))
			}
		}
	}

	b.WriteString("\nAll steps are complete. Write your final synthesis now, using exactly this layout:\n\n")
	for _, name := range collaborators {
		fmt.Fprintf(&b, "**%s's Perspective:** [brief summary]\n", name)
	}
	fmt.Fprintf(&b, "**%s:** %s\n", SectionCrossRatings, crossRatingTemplate(ratings))
	fmt.Fprintf(&b, "**%s:** [your balanced judgment]\n", SectionSynthesis)
	fmt.Fprintf(&b, "**%s:** [specific next steps]", SectionRecommendedPath)
	return b.String()
}

func crossRatingTemplate(ratings []Rating) string {
	if len(ratings) == 0 {
		return "[none]"
	}
	parts := make([]string, 0, len(ratings))
	for _, r := range ratings {
		parts = append(parts, fmt.Sprintf("%s rated %s [X]/10", r.Rater, r.Target))
	}
	return strings.Join(parts, ", ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
