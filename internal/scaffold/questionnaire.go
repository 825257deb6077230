package scaffold

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ri0t/isomer/internal/errors"
)

// Questionnaire collects missing plugin answers interactively. Only
// unset fields are asked for, and a blank answer keeps the suggested
// default shown in brackets.
type Questionnaire struct {
	Reader *bufio.Reader
	Writer io.Writer
}

// NewQuestionnaire wraps a reader/writer pair, usually stdin/stdout.
func NewQuestionnaire(r io.Reader, w io.Writer) *Questionnaire {
	return &Questionnaire{Reader: bufio.NewReader(r), Writer: w}
}

func (q *Questionnaire) ask(label, fallback string) string {
	if fallback != "" {
		fmt.Fprintf(q.Writer, "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(q.Writer, "%s: ", label)
	}
	line, err := q.Reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return fallback
	}
	if line == "" {
		return fallback
	}
	return line
}

// Run prompts for every unset field of the plugin. The plugin name is
// validated immediately so a typo surfaces before the remaining
// questions; everything else is validated again by New.
func (q *Questionnaire) Run(p *Plugin) error {
	if p.Name == "" {
		p.Name = q.ask("Plugin name", "")
	}
	if !pluginNamePattern.MatchString(p.Name) {
		return errors.Newf(errors.InvalidPluginName,
			"plugin name %q is invalid, must match %s", p.Name, pluginNamePattern)
	}
	if p.ComponentName == "" {
		p.ComponentName = q.ask("Component name", ComponentNameFor(p.Name))
	}
	if p.Description == "" {
		p.Description = q.ask("Short description",
			fmt.Sprintf("The %s plugin for Isomer", p.Name))
	}
	if p.AuthorName == "" {
		p.AuthorName = q.ask("Author name", os.Getenv("USER"))
	}
	if p.AuthorEmail == "" {
		p.AuthorEmail = q.ask("Author email", "")
	}
	if p.Version == "" {
		p.Version = q.ask("Version", "0.0.1")
	}
	if p.License == "" {
		p.License = q.ask(
			fmt.Sprintf("License (%s)", strings.Join(LicenseIDs(), ", ")),
			DefaultLicense)
	}
	if p.GithubURL == "" {
		p.GithubURL = q.ask("Repository URL", "https://github.com/isomeric/isomer-"+p.Name)
	}
	if len(p.Keywords) == 0 {
		p.Keywords = strings.Fields(q.ask("Keywords (space separated)", "isomer "+p.Name))
	}
	return nil
}
