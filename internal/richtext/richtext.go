// Package richtext flattens the rich-text fragments stored by the campaign
// editor into the plain strings the dashboards render.
package richtext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6, tr"

var spaceRE = regexp.MustCompile(`[ \t\f\v\r]+`)

// PlainText converts an HTML fragment to text. Block elements and <br> become
// line breaks, scripts and styles are dropped. Input without markup is only
// trimmed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(spaceRE.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var countRE = regexp.MustCompile(`[\d.]+[KkMm]?`)

// MaxCount is the largest counter accepted, the last integer a float64
// holds exactly.
const MaxCount = 1 << 53

// ParseCount reads human counters such as "1,200", "1.5K" or "2M". Returns 0
// when nothing numeric is found or the value exceeds MaxCount.
func ParseCount(text string) int64 {
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", "")

	match := countRE.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := 1.0
	switch match[len(match)-1] {
	case 'K', 'k':
		multiplier = 1_000
		match = match[:len(match)-1]
	case 'M', 'm':
		multiplier = 1_000_000
		match = match[:len(match)-1]
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	f *= multiplier
	if f > MaxCount {
		return 0
	}
	return int64(f)
}
