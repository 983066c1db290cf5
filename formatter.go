package nametags

import (
	"strings"

	"github.com/sandertv/gophertunnel/minecraft/text"
)

// Formatter renders one line of a tag template for an owner.
type Formatter interface {
	Format(line string, owner Owner) string
}

// Formatter ids accepted by the formatter config key.
const (
	FormatterMiniMessage = "minimessage"
	FormatterLegacy      = "legacy"
	FormatterPlain       = "plain"
)

// FormatterByID returns the formatter registered under id.
func FormatterByID(id string) (Formatter, bool) {
	switch strings.ToLower(id) {
	case FormatterMiniMessage:
		return MiniMessageFormatter{}, true
	case FormatterLegacy:
		return LegacyFormatter{}, true
	case FormatterPlain:
		return PlainFormatter{}, true
	}
	return nil, false
}

// placeholders substitutes the owner placeholders of line.
func placeholders(line string, owner Owner) string {
	return strings.NewReplacer(
		"{name}", owner.Name(),
		"{uuid}", owner.UUID().String(),
		"{world}", owner.World(),
	).Replace(line)
}

// MiniMessageFormatter renders tag-style colours such as <red>...</red>.
type MiniMessageFormatter struct{}

// Format substitutes placeholders and renders colour tags.
func (MiniMessageFormatter) Format(line string, owner Owner) string {
	return text.Colourf(strings.ReplaceAll(placeholders(line, owner), "%", "%%"))
}

// LegacyFormatter renders '&' colour codes.
type LegacyFormatter struct{}

// Format substitutes placeholders and translates '&' codes.
func (LegacyFormatter) Format(line string, owner Owner) string {
	return translateAlternateColours(placeholders(line, owner))
}

// PlainFormatter only substitutes placeholders.
type PlainFormatter struct{}

// Format substitutes placeholders.
func (PlainFormatter) Format(line string, owner Owner) string {
	return placeholders(line, owner)
}

// colourCodes are the characters that may follow a formatting prefix.
const colourCodes = "0123456789abcdefghijklmnopqrstuvABCDEFGHIJKLMNOPQRSTUV"

// translateAlternateColours replaces '&' with '§' wherever it precedes a
// formatting code.
func translateAlternateColours(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && i+1 < len(s) && strings.IndexByte(colourCodes, s[i+1]) >= 0 {
			b.WriteString("§")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
