// Package parser extracts documents from raw text blobs.
package parser

import (
	"regexp"
	"strings"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// docRefPattern matches the inline provenance marker <doc ref="...">.
// No closing tag is expected.
var docRefPattern = regexp.MustCompile(`<doc ref="([^"]+)">`)

// ParseDocument turns raw text into a Document. The first doc tag supplies
// the source; every doc tag is stripped from the content. Text without a tag
// gets entities.UnknownSource.
func ParseDocument(raw string) entities.Document {
	source := entities.UnknownSource
	if m := docRefPattern.FindStringSubmatch(raw); m != nil {
		source = m[1]
	}

	return entities.Document{
		Source:  source,
		Content: strings.TrimSpace(docRefPattern.ReplaceAllString(raw, "")),
	}
}
