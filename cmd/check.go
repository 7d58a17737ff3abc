package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/docdyhr/httpcheck/internal/checker"
	"github.com/docdyhr/httpcheck/internal/input"
	"github.com/docdyhr/httpcheck/internal/notify"
	"github.com/docdyhr/httpcheck/internal/output"
	"github.com/docdyhr/httpcheck/internal/runner"
	"github.com/docdyhr/httpcheck/internal/tld"
)

var (
	fastMode           bool
	quiet              bool
	verbose            bool
	codeOnly           bool
	showRedirectTiming bool
	fileSummary        bool
	commentStyle       string
	headerFlags        []string

	tldCheck       bool
	tldWarningOnly bool
	disableTLD     bool
	updateTLDList  bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [site ...]",
	Short: "Check the HTTP status of one or more websites",
	Long: `The 'check' command probes each site and reports its HTTP status,
redirect chain and response time.

Sites can be given as arguments, read from a file with the @ prefix, or
piped on stdin. Example:
  httpcheck check example.com @sites.txt
  cat sites.txt | httpcheck check --fast`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites := gatherSites(args)
		if len(sites) == 0 {
			return fmt.Errorf("please specify a website or pipe URLs to check, use --help for more info")
		}

		policy, err := buildPolicy()
		if err != nil {
			return err
		}

		start := time.Now()
		var summary runner.Summary
		summary.Failures = checkTLDs(sites, &summary.FailedSites)

		run := &runner.Runner{
			Policy:  policy,
			Workers: viper.GetInt("workers"),
			Check:   checker.Check,
		}
		if rps := viper.GetFloat64("rate"); rps > 0 {
			run.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}

		format := output.Format(viper.GetString("output"))
		opts := output.Options{
			Quiet:              quiet,
			Verbose:            verbose,
			CodeOnly:           codeOnly,
			ShowRedirectTiming: showRedirectTiming,
		}

		var bar *progressbar.ProgressBar
		if !quiet && format == output.FormatTable {
			bar = progressbar.NewOptions(len(sites),
				progressbar.OptionSetDescription("Checking sites"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)
		}

		var lines []string
		var results []checker.CheckResult
		run.OnResult = func(site string, res checker.CheckResult) {
			results = append(results, res)
			if format == output.FormatTable {
				if line := output.FormatResult(res, opts); line != "" {
					lines = append(lines, line)
				}
			}
			if bar != nil {
				bar.Add(1)
			}
		}

		mode := runner.Serial
		if fastMode {
			mode = runner.Parallel
		}
		batch := run.Run(sites, mode)
		summary.Successful = batch.Successful
		summary.Failures += batch.Failures
		summary.FailedSites = append(summary.FailedSites, batch.FailedSites...)

		if bar != nil {
			bar.Finish()
		}

		switch format {
		case output.FormatJSON:
			out, err := output.FormatJSONList(results, verbose)
			if err != nil {
				return err
			}
			fmt.Println(out)
		case output.FormatCSV:
			out, err := output.FormatCSVList(results, verbose)
			if err != nil {
				return err
			}
			fmt.Println(out)
		default:
			if len(lines) > 0 {
				fmt.Println(strings.Join(lines, "\n"))
			}
			if !quiet && !codeOnly {
				fmt.Printf("\nChecked %d sites in %ds\n%d successful, %d failed\n",
					len(sites), int(time.Since(start).Seconds()),
					summary.Successful, summary.Failures)
			}
		}

		sendCompletionNotification(len(sites), summary)
		return nil
	},
}

// gatherSites resolves the positional arguments (including @file inputs)
// and falls back to stdin when nothing was given on a pipe.
func gatherSites(args []string) []string {
	style := input.CommentStyle(commentStyle)

	var sites []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			handler := &input.FileHandler{Path: arg[1:], CommentStyle: style}
			urls, err := handler.Parse()
			if err != nil {
				log.Error().Err(err).Msg("error processing file")
				continue
			}
			if fileSummary || verbose {
				fmt.Fprintln(os.Stderr, handler.Summary())
			}
			sites = append(sites, urls...)
			continue
		}

		validated, err := input.ValidateURL(arg)
		if err != nil {
			log.Error().Err(err).Msg("skipping site")
			continue
		}
		sites = append(sites, validated)
	}

	if len(sites) == 0 {
		if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
			sites = input.ReadURLs(os.Stdin, style)
		}
	}
	return sites
}

// buildPolicy assembles the check policy from flags and config file values.
func buildPolicy() (checker.CheckPolicy, error) {
	mode := checker.RedirectMode(viper.GetString("follow-redirects"))
	if !mode.Valid() {
		return checker.CheckPolicy{}, fmt.Errorf("invalid --follow-redirects value: %q", mode)
	}

	headers, err := parseHeaders(headerFlags)
	if err != nil {
		return checker.CheckPolicy{}, err
	}

	verifyTLS := viper.GetBool("verify-ssl")
	if !verifyTLS {
		log.Warn().Msg("SSL certificate verification is disabled!")
	}

	return checker.CheckPolicy{
		Timeout:       viper.GetDuration("timeout"),
		Retries:       viper.GetInt("retries"),
		RetryDelay:    viper.GetDuration("retry-delay"),
		RedirectMode:  mode,
		MaxRedirects:  viper.GetInt("max-redirects"),
		CustomHeaders: headers,
		VerifyTLS:     verifyTLS,
	}, nil
}

// parseHeaders converts repeated "Name: Value" flags into a header map.
func parseHeaders(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(flags))
	for _, h := range flags {
		name, value, found := strings.Cut(h, ":")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: Value'", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// checkTLDs validates each site's suffix when requested and returns the
// number of TLD failures.
func checkTLDs(sites []string, failedSites *[]string) int {
	if disableTLD || !tldCheck {
		return 0
	}

	manager, err := tld.New(tld.Options{
		ForceUpdate: updateTLDList,
		CacheDays:   viper.GetInt("tld-cache-days"),
		WarningOnly: tldWarningOnly,
	})
	if err != nil {
		log.Error().Err(err).Msg("error during TLD validation")
		return 0
	}

	failures := 0
	for _, site := range sites {
		if _, err := manager.Validate(site); err != nil {
			var invalidErr *tld.InvalidTLDError
			if errors.As(err, &invalidErr) {
				log.Error().Err(err).Msg("TLD check failed")
				failures++
				*failedSites = append(*failedSites, fmt.Sprintf("%s (Invalid TLD)", hostOf(site)))
				continue
			}
			// Empty suffix set: configuration failure, stop checking.
			log.Error().Err(err).Msg("error during TLD validation")
			break
		}
	}
	return failures
}

func hostOf(site string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(site, "https://"), "http://")
	if i := strings.IndexAny(trimmed, "/:"); i > 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

func sendCompletionNotification(total int, summary runner.Summary) {
	if summary.Failures > 0 {
		notify.Send("HTTP Check - Failed",
			fmt.Sprintf("%d of %d sites failed", summary.Failures, total),
			summary.FailedSites)
		return
	}
	notify.Send("HTTP Check - Success",
		fmt.Sprintf("All %d sites checked successfully", total), nil)
}

func init() {
	rootCmd.AddCommand(checkCmd)

	flags := checkCmd.Flags()
	flags.Duration("timeout", 5*time.Second, "timeout for each request")
	flags.Int("retries", 2, "number of retries for failed requests")
	flags.Duration("retry-delay", time.Second, "delay between retry attempts")
	flags.Int("workers", runner.DefaultWorkers, "number of concurrent workers for fast mode")
	flags.String("follow-redirects", string(checker.RedirectAlways),
		"redirect behavior: always, never, http-only or https-only")
	flags.Int("max-redirects", 30, "maximum number of redirects to follow")
	flags.Bool("verify-ssl", true, "verify SSL certificates")
	flags.Float64("rate", 0, "maximum requests per second, 0 for unlimited")
	flags.String("output", string(output.FormatTable), "output format: table, json or csv")
	flags.Int("tld-cache-days", tld.DefaultCacheDays, "number of days to keep the TLD cache valid")

	for _, name := range []string{
		"timeout", "retries", "retry-delay", "workers", "follow-redirects",
		"max-redirects", "verify-ssl", "rate", "output", "tld-cache-days",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	flags.BoolVarP(&fastMode, "fast", "f", false, "fast check with concurrent workers")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	flags.BoolVarP(&verbose, "verbose", "v", false, "increase output verbosity")
	flags.BoolVarP(&codeOnly, "code", "c", false, "only print status code")
	flags.BoolVar(&showRedirectTiming, "show-redirect-timing", false, "show timing for each redirect step")
	flags.BoolVar(&fileSummary, "file-summary", false, "show summary of file parsing results")
	flags.StringVar(&commentStyle, "comment-style", string(input.CommentBoth),
		"comment style in domain files: hash, slash or both")
	flags.StringArrayVarP(&headerFlags, "header", "H", nil, "add custom HTTP header (repeatable)")

	flags.BoolVarP(&tldCheck, "tld", "t", false, "check domains against the global list of TLDs")
	flags.BoolVar(&tldWarningOnly, "tld-warning-only", false, "warn on invalid TLDs instead of failing")
	flags.BoolVar(&disableTLD, "disable-tld-checks", false, "disable TLD validation checks")
	flags.BoolVar(&updateTLDList, "update-tld-list", false, "force update of the TLD list")

	checkCmd.MarkFlagsMutuallyExclusive("quiet", "verbose", "code")
}
