// Package export renders a project's business plan to the supported output
// formats. JSON is the lossless interchange form and round-trips through
// Import; CSV and HTML are presentation forms.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
)

// Version tags the JSON export layout.
const Version = 1

// Document is the JSON export form of a project's full journey state.
type Document struct {
	Version  int            `json:"version"`
	Stage    catalog.Stage  `json:"stage"`
	Data     plan.Data      `json:"data"`
	Messages []plan.Message `json:"messages"`
}

// WriteJSON writes the lossless JSON form.
func WriteJSON(w io.Writer, doc Document) error {
	doc.Version = Version
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Import reads a JSON export back into a Document.
func Import(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode export: %w", err)
	}
	if doc.Version > Version {
		return Document{}, fmt.Errorf("unsupported export version %d", doc.Version)
	}
	if doc.Data == nil {
		doc.Data = plan.Data{}
	}
	return doc, nil
}

// WriteCSV writes the plan data as Field,Value rows in catalog order, meta
// fields first. The transcript is not part of the CSV form.
func WriteCSV(w io.Writer, data plan.Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Field", "Value"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	write := func(key string) error {
		if v := data[key]; v != "" {
			return cw.Write([]string{key, v})
		}
		return nil
	}
	if err := write(plan.KeyProjectName); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	if err := write(plan.KeyInitialIdea); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	for _, s := range catalog.All {
		key, ok := catalog.DataKey(s)
		if !ok {
			continue
		}
		if err := write(key); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteHTML writes a standalone HTML document grouping the plan by phase.
// Empty fields and empty phases are omitted.
func WriteHTML(w io.Writer, data plan.Data) error {
	var b strings.Builder
	name := data[plan.KeyProjectName]
	if name == "" {
		name = "Business Plan"
	}

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(name))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(name))
	if idea := data[plan.KeyInitialIdea]; idea != "" {
		fmt.Fprintf(&b, "<p><em>%s</em></p>\n", html.EscapeString(idea))
	}

	for _, phase := range catalog.PhaseOrder {
		var section strings.Builder
		for _, s := range catalog.PhaseStages[phase] {
			key, ok := catalog.DataKey(s)
			if !ok {
				continue
			}
			v := data[key]
			if v == "" {
				continue
			}
			fmt.Fprintf(&section, "<h3>%s</h3>\n<p>%s</p>\n",
				html.EscapeString(fieldTitle(key)), html.EscapeString(v))
		}
		if section.Len() == 0 {
			continue
		}
		fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(phaseTitle(phase)))
		b.WriteString(section.String())
	}
	b.WriteString("</body>\n</html>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	return nil
}

// WriteAll writes every format under dir, named <base>.<ext>, fanning out one
// goroutine per format.
func WriteAll(ctx context.Context, dir, base string, doc Document) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	writeFile := func(ext string, fn func(io.Writer) error) func() error {
		return func() error {
			path := filepath.Join(dir, base+"."+ext)
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := fn(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(writeFile("json", func(w io.Writer) error { return WriteJSON(w, doc) }))
	g.Go(writeFile("csv", func(w io.Writer) error { return WriteCSV(w, doc.Data) }))
	g.Go(writeFile("html", func(w io.Writer) error { return WriteHTML(w, doc.Data) }))
	return g.Wait()
}

// fieldTitle turns a data key into a display heading (idea_title -> Idea Title).
func fieldTitle(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// phaseTitle turns a phase name into a display heading.
func phaseTitle(p catalog.Phase) string {
	return fieldTitle(strings.ToLower(string(p)))
}
