// Package output renders check results as table, JSON or CSV.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/docdyhr/httpcheck/internal/checker"
)

// Format is the output serialization for a batch.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Options controls per-result rendering for the table format.
type Options struct {
	Quiet              bool
	Verbose            bool
	CodeOnly           bool
	ShowRedirectTiming bool
}

var (
	statusUp   = color.New(color.FgGreen).SprintFunc()
	statusDown = color.New(color.FgRed).SprintFunc()
)

func colorStatus(status string) string {
	if code, err := strconv.Atoi(status); err == nil && code >= 200 && code < 400 {
		return statusUp(status)
	}
	return statusDown(status)
}

// FormatResult renders one result for table output. Quiet mode returns an
// empty string for successful checks.
func FormatResult(res checker.CheckResult, opts Options) string {
	switch {
	case opts.CodeOnly:
		return res.Status
	case opts.Quiet:
		code, err := strconv.Atoi(res.Status)
		if err != nil || code >= 400 {
			return fmt.Sprintf("%s %s", res.Domain, colorStatus(res.Status))
		}
		return ""
	case opts.Verbose:
		return verboseTable(res, opts.ShowRedirectTiming)
	}
	return fmt.Sprintf("%-40s %s", res.Domain, colorStatus(res.Status))
}

func verboseTable(res checker.CheckResult, showTiming bool) string {
	var sb strings.Builder

	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"Domain", "Status", "Response Time", "Message"})
	table.Append([]string{
		res.Domain,
		colorStatus(res.Status),
		fmt.Sprintf("%.2fs", res.ResponseTime),
		res.Message,
	})
	table.Render()

	if len(res.RedirectChain) > 0 {
		sb.WriteString("Redirect Chain:\n")
		chain := tablewriter.NewWriter(&sb)
		if showTiming && len(res.RedirectTiming) > 0 {
			chain.SetHeader([]string{"Step", "URL", "Status", "Time"})
			for i, hop := range res.RedirectTiming {
				elapsed := "-"
				if hop.Elapsed > 0 {
					elapsed = fmt.Sprintf("%.3fs", hop.Elapsed)
				}
				chain.Append([]string{
					strconv.Itoa(i + 1), hop.URL, strconv.Itoa(hop.StatusCode), elapsed,
				})
			}
		} else {
			chain.SetHeader([]string{"Step", "URL", "Status"})
			for i, hop := range res.RedirectChain {
				chain.Append([]string{
					strconv.Itoa(i + 1), hop.URL, strconv.Itoa(hop.StatusCode),
				})
			}
		}
		chain.Render()
	}

	return strings.TrimRight(sb.String(), "\n")
}

// jsonResult is the slim non-verbose JSON shape.
type jsonResult struct {
	Domain       string  `json:"domain"`
	Status       string  `json:"status"`
	Message      string  `json:"message"`
	ResponseTime float64 `json:"response_time"`
}

// FormatJSONList serializes a batch of results. Verbose output includes the
// redirect chain and per-hop timing.
func FormatJSONList(results []checker.CheckResult, verbose bool) (string, error) {
	var payload any
	if verbose {
		payload = results
	} else {
		slim := make([]jsonResult, len(results))
		for i, res := range results {
			slim[i] = jsonResult{
				Domain:       res.Domain,
				Status:       res.Status,
				Message:      res.Message,
				ResponseTime: res.ResponseTime,
			}
		}
		payload = slim
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return string(raw), nil
}

// FormatCSVList serializes a batch of results as CSV with a header row.
func FormatCSVList(results []checker.CheckResult, verbose bool) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"domain", "status"}
	if verbose {
		header = append(header, "message", "response_time", "redirects")
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	for _, res := range results {
		record := []string{res.Domain, res.Status}
		if verbose {
			record = append(record,
				res.Message,
				fmt.Sprintf("%.3f", res.ResponseTime),
				strconv.Itoa(len(res.RedirectChain)),
			)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to encode results: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
