// Package runner fans a URL list out to the site checker, either one at a
// time or through a bounded worker pool, and keeps the pass/fail tally.
package runner

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/docdyhr/httpcheck/internal/checker"
)

// Mode selects between the ordered serial loop and the worker pool.
type Mode string

const (
	Serial   Mode = "serial"
	Parallel Mode = "parallel"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 10

// Summary is the aggregate outcome of a batch run. Successful plus
// Failures always equals the number of submitted URLs.
type Summary struct {
	Successful  int
	Failures    int
	FailedSites []string
}

// CheckFunc is the per-URL probe. It exists so tests can substitute the
// real checker.
type CheckFunc func(site string, policy checker.CheckPolicy) checker.CheckResult

// Runner drives checks over a URL list. OnResult, when set, is invoked once
// per completed check: in input order for serial runs and in completion
// order for parallel runs.
type Runner struct {
	Policy   checker.CheckPolicy
	Workers  int
	Limiter  *rate.Limiter
	Check    CheckFunc
	OnResult func(site string, result checker.CheckResult)
}

// Run checks every URL and returns the aggregate tally. Individual
// failures, including a panicking check, never abort the batch.
func (r *Runner) Run(urls []string, mode Mode) Summary {
	if mode == Parallel {
		return r.runParallel(urls)
	}
	return r.runSerial(urls)
}

type outcome struct {
	site     string
	result   checker.CheckResult
	panicked bool
}

func (r *Runner) runSerial(urls []string) Summary {
	var summary Summary
	for _, site := range urls {
		r.collect(r.perform(site), &summary)
	}
	return summary
}

func (r *Runner) runParallel(urls []string) Summary {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for site := range jobs {
				results <- r.perform(site)
			}
		}()
	}

	go func() {
		for _, site := range urls {
			jobs <- site
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var summary Summary
	for out := range results {
		r.collect(out, &summary)
	}
	return summary
}

// perform runs one check, converting a panic inside the check into a
// synthetic failure so the rest of the batch keeps going.
func (r *Runner) perform(site string) (out outcome) {
	out.site = site
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("site", site).Interface("panic", rec).
				Msg("check panicked")
			out.panicked = true
		}
	}()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(context.Background()); err != nil {
			out.panicked = true
			return
		}
	}

	check := r.Check
	if check == nil {
		check = checker.Check
	}
	out.result = check(site, r.Policy)
	return out
}

// collect folds one outcome into the tally. A result is successful only if
// its status parses as an integer in [200,400); everything else, including
// sentinel statuses and structurally empty results, counts as a failure.
func (r *Runner) collect(out outcome, summary *Summary) {
	if out.panicked || out.result.Status == "" {
		summary.Failures++
		summary.FailedSites = append(summary.FailedSites, fmt.Sprintf("%s (Error)", hostOf(out.site)))
		return
	}

	if r.OnResult != nil {
		r.OnResult(out.site, out.result)
	}

	code, err := strconv.Atoi(out.result.Status)
	if err == nil && code >= 200 && code < 400 {
		summary.Successful++
		return
	}
	summary.Failures++
	summary.FailedSites = append(summary.FailedSites,
		fmt.Sprintf("%s (%s)", out.result.Domain, out.result.Status))
}

func hostOf(site string) string {
	u, err := url.Parse(site)
	if err != nil || u.Hostname() == "" {
		return site
	}
	return u.Hostname()
}
