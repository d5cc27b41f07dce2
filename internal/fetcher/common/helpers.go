// SPDX-License-Identifier: AGPL-3.0-only
package common

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// CleanText turns a caption, which may carry markup or entities, into one line of plain text.
func CleanText(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return strings.Join(strings.Fields(input), " ")
	}

	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return strings.Join(strings.Fields(input), " ")
	}

	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// ParseTimestamp accepts the formats the platforms use for creation times.
// Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02T15:04:05+0000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FlexInt decodes a JSON number or a numeric string. Anything else is zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var fl float64
	if err := json.Unmarshal(data, &fl); err == nil {
		*f = FlexInt(fl)
		return nil
	}

	*f = 0
	return nil
}

func (f FlexInt) Int64() int64 {
	return int64(f)
}
