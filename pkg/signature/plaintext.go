package signature

import (
	"regexp"
	"strings"
)

var (
	mentionRegex = regexp.MustCompile(`(?is)<at[^>]*>(.*?)</at>`)
	tagRegex     = regexp.MustCompile(`(?s)<[^>]+>`)
)

// Only the entities Teams emits in message bodies, not general HTML decoding.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// PlainText flattens the rich-text body of an activity into the plain
// rendering used by the canonical activity candidate: mention spans become
// @NAME, entities are decoded, remaining markup is stripped and the result
// is trimmed. The transformation is pure and deterministic.
func PlainText(text string) string {
	s := mentionRegex.ReplaceAllString(text, "@$1")
	s = entityReplacer.Replace(s)
	s = tagRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
