package taskfn

import (
	"strings"

	"github.com/skosovsky/taskfn/typedesc"
)

const fence = "```"

// ExtractPayload strips markdown framing from raw model text. Priority: the first fenced
// block labelled json (case-insensitive), else the first fenced block of any kind, else the
// whole text. A fence without a closing marker runs to the end of the text. The result is
// trimmed of surrounding whitespace.
func ExtractPayload(raw string) string {
	text := strings.TrimSpace(raw)
	if body, ok := jsonFenced(text); ok {
		return body
	}
	if body, ok := anyFenced(text); ok {
		return body
	}
	return text
}

// NormalizeResponse turns raw model text into structured data: the extracted payload parsed
// as JSON (integers as int64, other numbers as float64), or the payload itself when it is not
// a single valid JSON document.
func NormalizeResponse(raw string) any {
	payload := ExtractPayload(raw)
	v, err := typedesc.ParseJSON(payload)
	if err != nil {
		return payload
	}
	return v
}

func jsonFenced(text string) (string, bool) {
	const label = "json"
	for offset := 0; ; {
		i := strings.Index(text[offset:], fence)
		if i < 0 {
			return "", false
		}
		start := offset + i + len(fence)
		if len(text)-start >= len(label) && strings.EqualFold(text[start:start+len(label)], label) {
			return closeFence(text[start+len(label):]), true
		}
		offset = start
	}
}

func anyFenced(text string) (string, bool) {
	i := strings.Index(text, fence)
	if i < 0 {
		return "", false
	}
	body := text[i+len(fence):]
	// Drop an info string such as "python" when real content follows it.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isInfoString(body[:nl]) {
		if rest := closeFence(body[nl+1:]); rest != "" {
			return rest, true
		}
	}
	return closeFence(body), true
}

func closeFence(body string) string {
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isInfoString(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	c := line[0]
	if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
		return false
	}
	return !strings.ContainsAny(line, " \t{}[]\"'")
}
