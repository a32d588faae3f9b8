package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	http "github.com/loopdial/loopdial/internal/http"
)

// Formatter renders requests and responses for the terminal.
type Formatter struct {
	Verbose bool
	scheme  *ColorScheme
}

// NewFormatter creates a formatter. Colors are disabled when noColor is set
// or stdout is not a terminal.
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor || !IsTerminal() {
		scheme = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		scheme:  scheme,
	}
}

// FormatRequest renders the request line, and its headers when verbose.
func (f *Formatter) FormatRequest(req *http.Request, baseURL string) string {
	var buf strings.Builder

	fullURL := strings.TrimRight(baseURL, "/")
	if req.Path != "" {
		fullURL += "/" + strings.TrimLeft(req.Path, "/")
	}
	if len(req.QueryParams) > 0 {
		fullURL += "?" + req.QueryParams.Encode()
	}

	buf.WriteString(fmt.Sprintf("▶ %s %s\n",
		f.scheme.Method.Sprint(req.Method),
		f.scheme.URL.Sprint(fullURL)))

	if f.Verbose {
		for key, value := range req.Headers {
			buf.WriteString(fmt.Sprintf("  %s: %s\n", f.scheme.HeaderKey.Sprint(key), value))
		}
	}

	return buf.String()
}

// FormatResponse renders the status line with the request duration, headers
// when verbose, and the body pretty-printed when it is JSON.
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder

	statusColor := f.scheme.StatusError
	if resp.IsSuccess() {
		statusColor = f.scheme.StatusOK
	} else if resp.IsRedirect() {
		statusColor = f.scheme.StatusWarn
	}

	buf.WriteString(fmt.Sprintf("◀ %s %s\n",
		statusColor.Sprint(resp.Status),
		f.scheme.Duration.Sprintf("(%dms)", resp.DurationMillis())))

	if f.Verbose {
		for key, values := range resp.Headers {
			for _, value := range values {
				buf.WriteString(fmt.Sprintf("  %s: %s\n", f.scheme.HeaderKey.Sprint(key), value))
			}
		}
	}

	if body := resp.GetBodyAsString(); body != "" {
		buf.WriteString(indentBody(formatJSONString(body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatError renders a request failure.
func (f *Formatter) FormatError(err error) string {
	return fmt.Sprintf("%s %v\n", f.scheme.Error.Sprint("✗"), err)
}

// formatJSONString pretty-prints s when it is valid JSON, and returns it
// unchanged otherwise.
func formatJSONString(s string) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(s), "", "  "); err != nil {
		return s
	}
	return pretty.String()
}

// indentBody prefixes every line with two spaces.
func indentBody(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
