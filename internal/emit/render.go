package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// OutcomeHeader tags documents that could not be rebased
const OutcomeHeader = "X-Rebase-Outcome"

// magicDate is the fixed date git puts on the mbox From line
const magicDate = "Mon Sep 17 00:00:00 2001"

// Header is the mail-style header block of a patch document
type Header struct {
	Commit  string
	Author  string
	Date    time.Time
	Subject string
	// Outcome is written as an extra header when set
	Outcome string
}

var documentTemplate = template.Must(template.New("patch").Parse(
	`From {{.Commit}} {{.MagicDate}}
From: {{.Author}}
Date: {{.Date}}
Subject: {{.Subject}}
{{- if .Outcome}}
{{.OutcomeHeader}}: {{.Outcome}}
{{- end}}

---
{{.Body}}-- 
patchrebase
`))

// Render builds a patch document from a header and a unified diff body
func Render(h Header, body string) (string, error) {
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	data := struct {
		Header
		MagicDate     string
		Date          string
		OutcomeHeader string
		Body          string
	}{
		Header:        h,
		MagicDate:     magicDate,
		Date:          h.Date.Format(time.RFC1123Z),
		OutcomeHeader: OutcomeHeader,
		Body:          body,
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render patch %s: %w", h.Subject, err)
	}
	return buf.String(), nil
}
