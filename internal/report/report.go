// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

// Package report renders the markdown analysis comment prbridge posts on a
// pull request. The report skeleton, the review rules, and the prompt text
// are a template that can be swapped out via a YAML file; an embedded
// default is used otherwise.
package report

import (
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// millisPerDay is the divisor for the whole-day age computation.
const millisPerDay = 86_400_000

// AgeInDays returns the age of a pull request in whole days: the floor of
// the elapsed milliseconds between created and now divided by 86,400,000.
// Timestamps in the future count as zero days old.
func AgeInDays(created, now time.Time) int {
	ms := now.Sub(created).Milliseconds()
	if ms < 0 {
		return 0
	}
	return int(ms / millisPerDay)
}

// Data carries the pull-request metadata embedded in the rendered report.
type Data struct {
	Number    int
	Title     string
	State     string
	Author    string
	AgeDays   int
	CreatedAt string
	URL       string

	// Notes holds optional reviewer notes (for example from an LLM). Empty
	// means the notes section is omitted.
	Notes string
}

// Template is the swappable report definition. Zero-value fields fall back
// to the embedded defaults.
type Template struct {
	// Report is a text/template body rendered with a Data value.
	Report string `yaml:"report"`

	// Rules is the review checklist embedded in the report and in the
	// analyze_pull_request prompt.
	Rules []string `yaml:"rules"`

	// Prompt is the static instructional text served by the
	// analyze_pull_request prompt.
	Prompt string `yaml:"prompt"`
}

// defaultReport is the fixed report skeleton used when no template file is
// supplied.
const defaultReport = `## Automated PR Analysis

**PR #{{.Number}}: {{.Title}}**

- **Author:** {{.Author}}
- **State:** {{.State}}
- **Age:** {{.AgeDays}} day(s) old
- **Created:** {{.CreatedAt}}
- **Link:** {{.URL}}

### Review checklist
{{range .Rules}}- {{.}}
{{end}}{{if .Notes}}
### Reviewer notes

{{.Notes}}
{{end}}
---
_Posted automatically by prbridge._
`

// defaultRules is the embedded review checklist. Deployments with their own
// conventions override it via the template file.
var defaultRules = []string{
	"Title describes the change and references an issue where applicable",
	"Naming follows the conventions of the surrounding code",
	"New behavior is covered by tests",
	"No secrets, credentials, or generated artifacts in the diff",
}

// defaultPrompt is the static instruction block served by the
// analyze_pull_request prompt. It ignores its input by design of the prompt
// contract.
const defaultPrompt = `You are reviewing a pull request.

Use the get_pr tool to fetch the pull request metadata, check it against the
review checklist, and post your findings back with post_comment_on_pr. Keep
the comment short and factual. If anything on the checklist cannot be
verified from the metadata alone, say so rather than guessing.`

// Renderer renders analysis reports from a compiled template.
type Renderer struct {
	tmpl   *template.Template
	rules  []string
	prompt string
}

// Load reads a Template from a YAML file and compiles it. An empty path
// yields the embedded defaults.
func Load(path string) (*Renderer, error) {
	tpl := Template{}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-provided template path
		if err != nil {
			return nil, fmt.Errorf("reading template file: %w", err)
		}
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("parsing template file %s: %w", path, err)
		}
	}
	return New(tpl)
}

// New compiles a Renderer from the given template, filling empty fields
// from the embedded defaults.
func New(tpl Template) (*Renderer, error) {
	body := tpl.Report
	if body == "" {
		body = defaultReport
	}
	rules := tpl.Rules
	if len(rules) == 0 {
		rules = defaultRules
	}
	prompt := tpl.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}

	compiled, err := template.New("report").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("compiling report template: %w", err)
	}
	return &Renderer{tmpl: compiled, rules: rules, prompt: prompt}, nil
}

// Render produces the markdown report for the given pull-request data.
func (r *Renderer) Render(d Data) (string, error) {
	var sb strings.Builder
	payload := struct {
		Data
		Rules []string
	}{Data: d, Rules: r.rules}

	if err := r.tmpl.Execute(&sb, payload); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return sb.String(), nil
}

// Rules returns the active review checklist.
func (r *Renderer) Rules() []string { return r.rules }

// Prompt returns the static instructional text for the
// analyze_pull_request prompt.
func (r *Renderer) Prompt() string { return r.prompt }
