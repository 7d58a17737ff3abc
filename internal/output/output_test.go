package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/docdyhr/httpcheck/internal/checker"
)

func init() {
	// Keep assertions free of ANSI escapes.
	color.NoColor = true
}

func sampleResult() checker.CheckResult {
	return checker.CheckResult{
		Domain:       "example.com",
		Status:       "200",
		Message:      "OK",
		ResponseTime: 0.123,
	}
}

func TestFormatResult(t *testing.T) {
	t.Run("default line", func(t *testing.T) {
		out := FormatResult(sampleResult(), Options{})
		assert.Contains(t, out, "example.com")
		assert.Contains(t, out, "200")
	})

	t.Run("code only", func(t *testing.T) {
		out := FormatResult(sampleResult(), Options{CodeOnly: true})
		assert.Equal(t, "200", out)
	})

	t.Run("quiet hides successes", func(t *testing.T) {
		out := FormatResult(sampleResult(), Options{Quiet: true})
		assert.Empty(t, out)
	})

	t.Run("quiet shows failures", func(t *testing.T) {
		res := sampleResult()
		res.Status = "404"
		out := FormatResult(res, Options{Quiet: true})
		assert.Equal(t, "example.com 404", out)
	})

	t.Run("quiet shows sentinels", func(t *testing.T) {
		res := sampleResult()
		res.Status = checker.StatusTimeout
		out := FormatResult(res, Options{Quiet: true})
		assert.Equal(t, "example.com [timeout]", out)
	})

	t.Run("verbose includes redirect chain", func(t *testing.T) {
		res := sampleResult()
		res.RedirectChain = []checker.Hop{
			{URL: "http://example.com", StatusCode: 301},
			{URL: "https://example.com", StatusCode: 200},
		}
		res.RedirectTiming = []checker.HopTiming{
			{URL: "http://example.com", StatusCode: 301, Elapsed: 0.05},
			{URL: "https://example.com", StatusCode: 200},
		}
		out := FormatResult(res, Options{Verbose: true})
		assert.Contains(t, out, "Redirect Chain:")
		assert.Contains(t, out, "http://example.com")

		withTiming := FormatResult(res, Options{Verbose: true, ShowRedirectTiming: true})
		assert.Contains(t, withTiming, "0.050s")
	})
}

func TestFormatJSONList(t *testing.T) {
	results := []checker.CheckResult{sampleResult()}

	t.Run("slim by default", func(t *testing.T) {
		out, err := FormatJSONList(results, false)
		assert.NoError(t, err)

		var decoded []map[string]any
		assert.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Len(t, decoded, 1)
		assert.Equal(t, "example.com", decoded[0]["domain"])
		assert.Equal(t, "200", decoded[0]["status"])
		assert.NotContains(t, decoded[0], "redirect_chain")
	})

	t.Run("verbose includes redirects", func(t *testing.T) {
		out, err := FormatJSONList(results, true)
		assert.NoError(t, err)
		assert.Contains(t, out, "redirect_chain")
		assert.Contains(t, out, "redirect_timing")
	})
}

func TestFormatCSVList(t *testing.T) {
	results := []checker.CheckResult{sampleResult()}

	t.Run("default columns", func(t *testing.T) {
		out, err := FormatCSVList(results, false)
		assert.NoError(t, err)
		lines := strings.Split(out, "\n")
		assert.Equal(t, "domain,status", lines[0])
		assert.Equal(t, "example.com,200", lines[1])
	})

	t.Run("verbose columns", func(t *testing.T) {
		out, err := FormatCSVList(results, true)
		assert.NoError(t, err)
		lines := strings.Split(out, "\n")
		assert.Equal(t, "domain,status,message,response_time,redirects", lines[0])
		assert.Contains(t, lines[1], "0.123")
	})
}
