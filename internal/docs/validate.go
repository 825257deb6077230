package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ri0t/isomer/internal/errors"
)

// ValidateFile checks an RST error page on disk. The filename stem must be
// the numeric code the page declares.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.PageInvalid, fmt.Sprintf("cannot read %s", path), err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	want, err := strconv.Atoi(stem)
	if err != nil {
		return errors.Newf(errors.PageInvalid, "%s: filename is not an error code", path)
	}
	return ValidateText(filepath.Base(path), errors.Code(want), string(data))
}

// ValidateText checks page layout: exactly one errorcode heading whose value
// matches want, followed by the message, symptoms and remedies sections in
// order, each symptom and remedy list non-empty.
func ValidateText(name string, want errors.Code, text string) error {
	lines := strings.Split(text, "\n")

	var codes []errors.Code
	for i, line := range lines {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if !isUnderline(lines, i+1, '=', len(line)) {
			return errors.Newf(errors.PageInvalid, "%s: errorcode heading %q lacks its underline", name, line)
		}
		n, _ := strconv.Atoi(m[1])
		codes = append(codes, errors.Code(n))
	}
	switch {
	case len(codes) == 0:
		return errors.Newf(errors.PageInvalid, "%s: no errorcode heading", name)
	case len(codes) > 1:
		return errors.Newf(errors.PageInvalid, "%s: %d errorcode headings, want exactly one", name, len(codes))
	case codes[0] != want:
		return errors.Newf(errors.PageInvalid, "%s: heading declares code %d, filename says %d", name, codes[0], want)
	}

	// Section order and presence.
	var sections []string
	for i := range lines {
		if isSection(lines, i) {
			sections = append(sections, strings.TrimSpace(lines[i]))
		}
	}
	wantSections := []string{"Message", "Symptoms", "Remedies"}
	if len(sections) != len(wantSections) {
		return errors.Newf(errors.PageInvalid, "%s: found sections %v, want %v", name, sections, wantSections)
	}
	for i, s := range wantSections {
		if sections[i] != s {
			return errors.Newf(errors.PageInvalid, "%s: section %d is %q, want %q", name, i+1, sections[i], s)
		}
	}

	page, err := ParsePage(text)
	if err != nil {
		return errors.Wrap(errors.PageInvalid, fmt.Sprintf("%s: malformed page", name), err)
	}
	if len(page.Symptoms) == 0 {
		return errors.Newf(errors.PageInvalid, "%s: symptoms section has no entries", name)
	}
	if len(page.Remedies) == 0 {
		return errors.Newf(errors.PageInvalid, "%s: remedies section has no entries", name)
	}
	return nil
}
