// Package notefile renders journal notes as Markdown files with a YAML
// front matter block, the layout DMs keep in their prep folders.
package notefile

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Header is the front matter written above the note body.
type Header struct {
	Title   string   `yaml:"title"`
	Created string   `yaml:"created"`
	Tags    []string `yaml:"tags,flow"`
}

// Render returns note as a Markdown document.
func Render(note storage.Note) ([]byte, error) {
	header := Header{
		Title:   note.Title,
		Created: note.CreatedAt.UTC().Format(time.RFC3339),
		Tags:    note.Tags,
	}
	if header.Tags == nil {
		header.Tags = []string{}
	}
	front, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshal note header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(front)
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(strings.TrimRight(note.Content, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// SplitHeader separates the front matter from the body of a rendered note.
func SplitHeader(doc []byte) (Header, string, error) {
	text := string(doc)
	if !strings.HasPrefix(text, delimiter+"\n") {
		return Header{}, "", fmt.Errorf("note has no front matter")
	}
	rest := text[len(delimiter)+1:]
	end := strings.Index(rest, "\n"+delimiter+"\n")
	if end < 0 {
		return Header{}, "", fmt.Errorf("note front matter is not closed")
	}
	var header Header
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &header); err != nil {
		return Header{}, "", fmt.Errorf("parse note header: %w", err)
	}
	body := strings.TrimPrefix(rest[end+len(delimiter)+2:], "\n")
	return header, body, nil
}
