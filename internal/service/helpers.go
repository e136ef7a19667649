package service

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxMentionLength = 30

// StripMarkup flattens the rich caption into the plain text the content API
// expects: tags removed, block breaks kept as newlines, entities decoded.
func StripMarkup(s string) string {
	var b strings.Builder
	inTag := false
	tagStart := 0

	for i, r := range s {
		switch {
		case r == '<':
			inTag = true
			tagStart = i
		case r == '>' && inTag:
			inTag = false
			tag := strings.ToLower(strings.Trim(s[tagStart+1:i], "/ "))
			if tag == "br" || strings.HasPrefix(tag, "br ") || tag == "p" || tag == "div" {
				b.WriteByte('\n')
			}
		case !inTag:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(html.UnescapeString(b.String()))
}

// DetectMention looks for a trailing @token immediately before the cursor.
// The token must be short and contain no whitespace; start is the index of
// the '@' rune.
func DetectMention(content string, cursor int) (token string, start int, ok bool) {
	cursor = clampToRuneStart(content, cursor)
	if cursor <= 0 {
		return "", 0, false
	}

	runes := []rune(content[:cursor])
	at := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '@' {
			at = i
			break
		}
		if unicode.IsSpace(runes[i]) {
			return "", 0, false
		}
	}
	if at < 0 {
		return "", 0, false
	}
	if at > 0 && !unicode.IsSpace(runes[at-1]) {
		return "", 0, false
	}

	token = string(runes[at+1:])
	if len(token) > maxMentionLength {
		return "", 0, false
	}
	return token, len(string(runes[:at])), true
}

// SpliceMention replaces the @token between start and cursor with the chosen
// mention and a trailing space.
func SpliceMention(content string, start, cursor int, mention string) string {
	cursor = clampToRuneStart(content, cursor)
	if start < 0 || start > cursor {
		return content
	}
	return content[:start] + "@" + mention + " " + content[cursor:]
}

// clampToRuneStart bounds a byte offset to the string and walks it back onto
// a rune boundary, so a cursor landing mid-rune never splits a character.
func clampToRuneStart(s string, i int) int {
	if i > len(s) {
		i = len(s)
	}
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// FilterSuggestions narrows account names by the typed token, case
// insensitively.
func FilterSuggestions(names []string, token string) []string {
	if token == "" {
		return names
	}
	lower := strings.ToLower(token)
	var out []string
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			out = append(out, n)
		}
	}
	return out
}
