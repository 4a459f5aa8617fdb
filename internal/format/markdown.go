package format

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len calculates the UTF-16 length of a string.
// Telegram measures entity offsets and lengths in UTF-16 code units.
func UTF16Len(s string) int {
	length := 0
	for _, r := range s {
		if r >= 0x10000 {
			length += 2
		} else {
			length++
		}
	}
	return length
}

type marker struct {
	token  string
	entity string
}

// Longer tokens first so ** is not read as two italics.
var markers = []marker{
	{"**", "bold"},
	{"__", "bold"},
	{"`", "code"},
	{"*", "italic"},
	{"_", "italic"},
}

// ParseMarkdown converts a small Markdown subset into Telegram entities:
// **bold**, __bold__, *italic*, _italic_, `code` and "# Header" lines, which
// become bold. Formatting does not nest. Unmatched markers are kept as text.
func ParseMarkdown(text string) ParseResult {
	var (
		out      strings.Builder
		entities []tgbotapi.MessageEntity
		offset   int
	)

	emit := func(s string) {
		out.WriteString(s)
		offset += UTF16Len(s)
	}

	lines := strings.Split(text, "\n")
	for li, line := range lines {
		if li > 0 {
			emit("\n")
		}
		if h := headerText(line); h != "" {
			entities = append(entities, tgbotapi.MessageEntity{Type: "bold", Offset: offset, Length: UTF16Len(h)})
			emit(h)
			continue
		}

		for i := 0; i < len(line); {
			m, inner, end := matchMarker(line, i)
			if m == nil {
				r, size := utf8.DecodeRuneInString(line[i:])
				emit(string(r))
				i += size
				continue
			}
			entities = append(entities, tgbotapi.MessageEntity{Type: m.entity, Offset: offset, Length: UTF16Len(inner)})
			emit(inner)
			i = end
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Offset < entities[j].Offset
	})

	return ParseResult{
		Text:     strings.TrimRight(out.String(), " \n"),
		Entities: entities,
	}
}

func headerText(line string) string {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level == 0 || level > 6 || !strings.HasPrefix(trimmed, " ") {
		return ""
	}
	return strings.TrimSpace(trimmed)
}

// matchMarker reports the formatted span starting at line[i], if any.
func matchMarker(line string, i int) (*marker, string, int) {
	for k := range markers {
		m := &markers[k]
		if !strings.HasPrefix(line[i:], m.token) {
			continue
		}
		// Single-character italics only open at a word boundary, so that
		// snake_case and 2*3 stay untouched.
		if len(m.token) == 1 && m.entity == "italic" && i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(line[:i])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				return nil, "", 0
			}
		}
		start := i + len(m.token)
		n := strings.Index(line[start:], m.token)
		if n <= 0 {
			return nil, "", 0
		}
		return m, line[start : start+n], start + n + len(m.token)
	}
	return nil, "", 0
}
