package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

// RemoteError is returned for any non-2xx response.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsStatus reports whether err carries a RemoteError with the given status code.
func IsStatus(err error, code int) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == code
}

const maxMessageLen = 200

// describeBody reduces an error response body to a one-line message. Proxies in
// front of the API answer with HTML pages, the API itself with JSON.
func describeBody(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if strings.Contains(contentType, "html") || looksLikeHTML(trimmed) {
		if msg := describeHTML(trimmed); msg != "" {
			return msg
		}
	}
	if strings.Contains(contentType, "json") || trimmed[0] == '{' {
		if msg := describeJSON(trimmed); msg != "" {
			return msg
		}
	}
	return util.Truncate(util.CollapseWhitespace(string(trimmed)), maxMessageLen)
}

func looksLikeHTML(b []byte) bool {
	lower := bytes.ToLower(b[:min(len(b), 64)])
	return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
}

func describeHTML(b []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return ""
	}
	if title := util.CollapseWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := util.CollapseWhitespace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return util.Truncate(util.CollapseWhitespace(doc.Find("body").Text()), maxMessageLen)
}

func describeJSON(b []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(b, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		// validation errors: [{"loc": [...], "msg": "..."}]
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(raw, &items) == nil {
			var msgs []string
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return ""
}
