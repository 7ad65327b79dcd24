// Package parser extracts inline #tags from note content.
package parser

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z0-9][A-Za-z0-9_/-]*)`)

// ExtractTags returns the deduplicated inline #tags found in content,
// lowercased and carrying their leading '#'. A tag counts only when the
// '#' starts a word, so "call about #mentor" matches but "c#" does not.
func ExtractTags(content string) []string {
	matches := tagRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		tag := "#" + strings.ToLower(m[1])
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
