package services

import (
	"regexp"
	"strings"
)

var (
	reTOC          = regexp.MustCompile(`(?im)^.*(mục lục|table of contents).*$`)
	reTOCEntry     = regexp.MustCompile(`(?m)^.*\.{4,}[ \t]*\d+[ \t]*$`)
	rePageNumber   = regexp.MustCompile(`(?im)^[ \t]*(trang|page)[ \t]*\d+([ \t]*(of|/)[ \t]*\d+)?[ \t]*$`)
	reSymbolLines  = regexp.MustCompile(`(?m)^[^\pL\n]*$`)
	reTrailingWS   = regexp.MustCompile(`(?m)[ \t]+$`)
	reMultiNewLine = regexp.MustCompile(`\n{3,}`)
)

// PreCleanText drops extraction noise such as table of contents and page number lines.
// Paragraph breaks are kept.
func PreCleanText(text string) string {
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = reTOC.ReplaceAllString(cleaned, "")
	cleaned = reTOCEntry.ReplaceAllString(cleaned, "")
	cleaned = rePageNumber.ReplaceAllString(cleaned, "")
	cleaned = reSymbolLines.ReplaceAllString(cleaned, "")
	cleaned = reTrailingWS.ReplaceAllString(cleaned, "")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
