package filing

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultSection labels text appearing before the first recognized heading.
const defaultSection = "General"

// itemHeadingRE matches 10-K part headings like "Item 1A." or "ITEM 7".
var itemHeadingRE = regexp.MustCompile(`(?i)^\s*item\s+(\d{1,2})\s*([a-c])?\b`)

// Canonical names for the standard 10-K items. Items not listed fall back
// to the bare "Item N" label.
var itemNames = map[string]string{
	"1":  "Business",
	"1a": "Risk Factors",
	"1b": "Unresolved Staff Comments",
	"2":  "Properties",
	"3":  "Legal Proceedings",
	"5":  "Market for Registrant's Common Equity",
	"6":  "Selected Financial Data",
	"7":  "Management's Discussion and Analysis",
	"7a": "Quantitative and Qualitative Disclosures About Market Risk",
	"8":  "Financial Statements",
	"9a": "Controls and Procedures",
	"10": "Directors, Executive Officers and Corporate Governance",
	"11": "Executive Compensation",
}

// maxHeadingChars bounds how long a text block may be and still count as a
// heading. Body paragraphs that merely start with "Item 8 ..." are longer.
const maxHeadingChars = 120

// sectionForHeading returns the canonical section label if text looks like
// a 10-K item heading, or "" if it does not.
func sectionForHeading(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > maxHeadingChars {
		return ""
	}
	m := itemHeadingRE.FindStringSubmatch(trimmed)
	if m == nil {
		return ""
	}
	key := m[1] + strings.ToLower(m[2])
	if name, ok := itemNames[key]; ok {
		return name
	}
	return fmt.Sprintf("Item %s%s", m[1], strings.ToUpper(m[2]))
}
