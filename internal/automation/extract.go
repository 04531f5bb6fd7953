package automation

import (
	"strings"
	"unicode/utf8"

	"github.com/ashureev/promptrelay/internal/domain"
)

// ExtractLatest returns the trimmed text of the most recent message node
// whose trimmed length in characters exceeds minLen. Only the first selector with any
// match is used. An empty string means nothing usable was found.
func ExtractLatest(page Page, strategy domain.Strategy, minLen int) string {
	var nodes []Element
	for _, sel := range strategy {
		found, err := page.Elements(sel)
		if err != nil {
			continue
		}
		if len(found) > 0 {
			nodes = found
			break
		}
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		txt, err := nodes[i].Text()
		if err != nil {
			continue
		}
		txt = strings.TrimSpace(txt)
		if utf8.RuneCountInString(txt) > minLen {
			return txt
		}
	}
	return ""
}
