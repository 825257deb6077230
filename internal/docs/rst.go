// Package docs renders, parses and checks the reStructuredText pages that
// document Isomer error codes. The page corpus in internal/errors is the
// source of truth; the files under docs/errors are generated from it and
// published as <docs base>/Errors/<code>.html.
package docs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ri0t/isomer/internal/errors"
)

const wrapWidth = 72

var headingPattern = regexp.MustCompile(`^Errorcode: (\d+)$`)

// RenderPage emits the RST document for a page: the errorcode heading, the
// title line, the message, symptoms and remedies sections, and a pointer to
// the hosted copy.
func RenderPage(page errors.Page, baseURL string) string {
	var b strings.Builder

	heading := fmt.Sprintf("Errorcode: %d", page.Code)
	b.WriteString(heading + "\n")
	b.WriteString(strings.Repeat("=", len(heading)) + "\n\n")

	b.WriteString(page.Title + "\n\n")

	b.WriteString("Message\n-------\n\n")
	for _, line := range wrap(page.Message, wrapWidth) {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Symptoms\n--------\n\n")
	for _, s := range page.Symptoms {
		b.WriteString("* " + s + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Remedies\n--------\n\n")
	for _, r := range page.Remedies {
		b.WriteString("* " + r + "\n")
	}
	b.WriteString("\n")

	b.WriteString("An up to date version of this page is available online at\n")
	b.WriteString(page.DocURL(baseURL) + "\n")

	return b.String()
}

// wrap greedily breaks text into lines of at most width characters,
// splitting only at spaces. Words longer than width get their own line.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

// ParsePage reads an RST error page back into its record. The layout must
// match what RenderPage produces: one errorcode heading, a title paragraph,
// then the message, symptoms and remedies sections.
func ParsePage(text string) (errors.Page, error) {
	lines := strings.Split(text, "\n")
	var page errors.Page

	i := 0
	for ; i < len(lines); i++ {
		m := headingPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if !isUnderline(lines, i+1, '=', len(lines[i])) {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			return page, fmt.Errorf("unparseable errorcode %q", m[1])
		}
		page.Code = errors.Code(code)
		i += 2
		break
	}
	if page.Code == 0 {
		return page, fmt.Errorf("no errorcode heading found")
	}

	// Title is the first non-empty line between the heading and the first
	// section.
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if isSection(lines, i) {
			break
		}
		page.Title = line
		i++
		break
	}

	section := ""
	var message []string
	for ; i < len(lines); i++ {
		line := lines[i]
		if isSection(lines, i) {
			section = strings.TrimSpace(line)
			i++ // skip the underline
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch section {
		case "Message":
			message = append(message, trimmed)
		case "Symptoms":
			if strings.HasPrefix(trimmed, "* ") {
				page.Symptoms = append(page.Symptoms, strings.TrimPrefix(trimmed, "* "))
			}
		case "Remedies":
			if strings.HasPrefix(trimmed, "* ") {
				page.Remedies = append(page.Remedies, strings.TrimPrefix(trimmed, "* "))
			}
		}
	}
	page.Message = strings.Join(message, " ")

	if err := page.Validate(); err != nil {
		return page, fmt.Errorf("parsed page incomplete: %w", err)
	}
	return page, nil
}

// isSection reports whether lines[i] is one of the three section headings
// with a dash underline.
func isSection(lines []string, i int) bool {
	name := strings.TrimSpace(lines[i])
	if name != "Message" && name != "Symptoms" && name != "Remedies" {
		return false
	}
	return isUnderline(lines, i+1, '-', len(name))
}

// isUnderline reports whether lines[i] is a run of ch at least want long.
func isUnderline(lines []string, i int, ch byte, want int) bool {
	if i >= len(lines) {
		return false
	}
	line := strings.TrimRight(lines[i], " ")
	if len(line) < want {
		return false
	}
	for j := 0; j < len(line); j++ {
		if line[j] != ch {
			return false
		}
	}
	return true
}
