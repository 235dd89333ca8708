package audit

import (
	"regexp"

	"github.com/nao1215/ecoaudit/internal/model"
)

var (
	lineBreakRegex = regexp.MustCompile(`[\r\n]+`)
	fontFaceRegex  = regexp.MustCompile(`@font-face\s*\{(.*?)\}`)
)

// fontFaceBlocks returns the body of every @font-face rule in the
// stylesheets, in document order. Line breaks are folded into single spaces
// first so that a rule spanning several lines is still matched.
func fontFaceBlocks(stylesheets []model.Stylesheet) []string {
	var blocks []string
	for _, sheet := range stylesheets {
		content := lineBreakRegex.ReplaceAllString(sheet.Content, " ")
		for _, m := range fontFaceRegex.FindAllStringSubmatch(content, -1) {
			blocks = append(blocks, m[1])
		}
	}
	return blocks
}
