// Package input handles URL ingestion from arguments, domain files and
// stdin, including comment stripping and URL validation.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// urlPattern accepts http/https/ftp/ftps URLs with a domain, localhost or
// an IPv4 address, an optional port and an optional path.
var urlPattern = regexp.MustCompile(`^(?i)(?:http|ftp)s?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+(?:[A-Z]{2,6}\.?|[A-Z0-9-]{2,}\.?)|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// InvalidURLError reports an input that did not validate as a URL.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL: %q", e.URL)
}

// ValidateURL normalizes a site argument (defaulting the scheme to http://)
// and checks it against the URL pattern.
func ValidateURL(site string) (string, error) {
	if !strings.HasPrefix(site, "http") {
		site = "http://" + site
	}
	if !urlPattern.MatchString(site) {
		return "", &InvalidURLError{URL: site}
	}
	return site, nil
}

// CommentStyle selects which comment markers a domain file may use.
type CommentStyle string

const (
	CommentHash  CommentStyle = "hash"
	CommentSlash CommentStyle = "slash"
	CommentBoth  CommentStyle = "both"
)

func (s CommentStyle) markers() []string {
	switch s {
	case CommentHash:
		return []string{"#"}
	case CommentSlash:
		return []string{"//"}
	default:
		return []string{"#", "//"}
	}
}

// FileHandler parses a domain file, skipping blank lines and comments and
// validating each remaining line as a URL. It keeps per-file counts for the
// optional parse summary.
type FileHandler struct {
	Path         string
	CommentStyle CommentStyle

	Lines    int
	Valid    int
	Comments int
	Empty    int
	Errors   int
}

// Parse reads the file and returns the valid URLs in file order. Malformed
// lines are counted and logged, not fatal.
func (h *FileHandler) Parse() ([]string, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", h.Path, err)
	}
	defer f.Close()
	return h.parse(f), nil
}

func (h *FileHandler) parse(r io.Reader) []string {
	markers := h.CommentStyle.markers()

	var urls []string
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		h.Lines++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			h.Empty++
			continue
		}

		if startsWithAny(line, markers) {
			h.Comments++
			continue
		}
		if stripped, found := stripInlineComment(line, markers); found {
			h.Comments++
			line = stripped
			if line == "" {
				h.Empty++
				continue
			}
		}

		validated, err := ValidateURL(line)
		if err != nil {
			log.Warn().Str("file", h.Path).Int("line", lineNum).Err(err).
				Msg("skipping malformed line")
			h.Errors++
			continue
		}
		h.Valid++
		urls = append(urls, validated)
	}
	return urls
}

// Summary returns the per-file parse counts in a printable form.
func (h *FileHandler) Summary() string {
	return fmt.Sprintf(
		"File: %s\n  Lines processed: %d\n  Valid URLs: %d\n  Comments: %d\n  Empty lines: %d\n  Errors: %d",
		h.Path, h.Lines, h.Valid, h.Comments, h.Empty, h.Errors)
}

// ReadURLs validates each line of r as a URL, with the same comment
// handling as domain files. Used for piped stdin.
func ReadURLs(r io.Reader, style CommentStyle) []string {
	h := &FileHandler{Path: "stdin", CommentStyle: style}
	return h.parse(r)
}

func startsWithAny(line string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// stripInlineComment cuts the line at the earliest comment marker that is
// not at position zero.
func stripInlineComment(line string, markers []string) (string, bool) {
	pos := -1
	for _, m := range markers {
		if i := strings.Index(line, m); i > 0 && (pos == -1 || i < pos) {
			pos = i
		}
	}
	if pos == -1 {
		return line, false
	}
	return strings.TrimSpace(line[:pos]), true
}
