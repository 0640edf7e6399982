package textutil

import "strings"

// FormatHashtags turns a comma-separated hashtag list into a space-separated
// string of #-prefixed tags. Existing # prefixes and surrounding whitespace
// are tolerated, empty entries are dropped, and order is preserved:
// "funny, #dance ,music" becomes "#funny #dance #music". Formatting is
// idempotent.
func FormatHashtags(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	tags := make([]string, 0, len(fields))
	for _, field := range fields {
		tag := strings.TrimSpace(strings.TrimLeft(field, "#"))
		if tag == "" {
			continue
		}
		tags = append(tags, "#"+tag)
	}
	return strings.Join(tags, " ")
}

// AppendHashtags returns the description with the formatted hashtag list
// appended. An empty hashtag input leaves the description unchanged.
func AppendHashtags(description, hashtags string) string {
	formatted := FormatHashtags(hashtags)
	if formatted == "" {
		return description
	}
	if strings.TrimSpace(description) == "" {
		return formatted
	}
	return description + " " + formatted
}
