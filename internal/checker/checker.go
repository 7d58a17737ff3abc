package checker

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docdyhr/httpcheck/internal/version"
)

// followPredicate decides whether a redirect to a target with the given
// scheme may be followed. An empty scheme means the Location was relative;
// those are always allowed.
type followPredicate func(scheme string) bool

func schemePredicate(mode RedirectMode) followPredicate {
	return func(scheme string) bool {
		switch {
		case scheme == "":
			return true
		case mode == RedirectHTTPOnly && scheme == "https":
			return false
		case mode == RedirectHTTPSOnly && scheme == "http":
			return false
		}
		return true
	}
}

// probe carries the per-attempt redirect bookkeeping. It is reset at the
// start of every attempt so a result never mixes hops from different
// attempts.
type probe struct {
	policy CheckPolicy
	client *http.Client
	chain  []Hop
	timing []HopTiming
	start  time.Time
}

// Check probes a single URL under the given policy and folds every failure
// mode into the returned CheckResult; it never returns an error.
func Check(site string, policy CheckPolicy) CheckResult {
	domain := hostOf(site)
	if !policy.RedirectMode.Valid() {
		policy.RedirectMode = RedirectAlways
	}
	if policy.MaxRedirects <= 0 {
		policy.MaxRedirects = 30
	}

	p := &probe{policy: policy}
	p.client = p.newClient()

	for attempt := 0; attempt <= policy.Retries; attempt++ {
		p.chain = nil
		p.timing = nil
		p.start = time.Now()

		resp, err := p.run(site)
		if err != nil {
			// A response alongside the error means the client layer gave up
			// mid-protocol (e.g. the redirect ceiling); surface its code and
			// stop retrying.
			if resp != nil {
				return CheckResult{
					Domain:  domain,
					Status:  strconv.Itoa(resp.StatusCode),
					Message: err.Error(),
				}
			}

			kind := classifyError(err)
			msg := kind.message()
			if kind == failRequest && !policy.VerifyTLS && looksLikeTLSError(err) {
				msg += " (TLS verification is disabled)"
			}
			if attempt == policy.Retries {
				return CheckResult{Domain: domain, Status: kind.sentinel(), Message: msg}
			}
			log.Debug().Str("site", site).Int("attempt", attempt+1).Err(err).
				Msg("check failed, retrying")
			if policy.RetryDelay > 0 {
				time.Sleep(policy.RetryDelay)
			}
			continue
		}

		code := strconv.Itoa(resp.StatusCode)
		return CheckResult{
			Domain:         domain,
			Status:         code,
			Message:        StatusMessage(code),
			RedirectChain:  p.chain,
			RedirectTiming: p.timing,
			ResponseTime:   time.Since(p.start).Seconds(),
		}
	}

	return CheckResult{Domain: domain, Status: StatusUnknownError, Message: "All retries failed"}
}

func (p *probe) newClient() *http.Client {
	client := &http.Client{
		Timeout: p.policy.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !p.policy.VerifyTLS},
		},
	}

	if p.policy.RedirectMode == RedirectAlways {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > p.policy.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", p.policy.MaxRedirects)
			}
			prev := req.Response
			hopElapsed := 0.0
			if len(p.chain) == 0 {
				// Per-hop timing is not observable once the client follows
				// redirects itself; the first hop is credited with the
				// initial request's elapsed time.
				hopElapsed = time.Since(p.start).Seconds()
			}
			p.chain = append(p.chain, Hop{URL: prev.Request.URL.String(), StatusCode: prev.StatusCode})
			p.timing = append(p.timing, HopTiming{
				URL:        prev.Request.URL.String(),
				StatusCode: prev.StatusCode,
				Elapsed:    hopElapsed,
			})
			return nil
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}

// run issues one full attempt and returns the final response. For the
// protocol-restricted modes it drives the manual follow loop.
func (p *probe) run(site string) (*http.Response, error) {
	resp, err := p.get(site)
	if err != nil {
		return resp, err
	}
	resp.Body.Close()

	switch p.policy.RedirectMode {
	case RedirectAlways:
		if len(p.chain) > 0 {
			p.chain = append(p.chain, Hop{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode})
			p.timing = append(p.timing, HopTiming{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode})
		}
		return resp, nil
	case RedirectNever:
		if isRedirect(resp) {
			elapsed := time.Since(p.start).Seconds()
			p.chain = append(p.chain, Hop{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode})
			p.timing = append(p.timing, HopTiming{
				URL:        resp.Request.URL.String(),
				StatusCode: resp.StatusCode,
				Elapsed:    elapsed,
			})
		}
		return resp, nil
	}

	return p.followManually(resp, schemePredicate(p.policy.RedirectMode))
}

// followManually walks a redirect chain one request at a time, stopping at
// the hop ceiling, at a missing Location header, or when the predicate
// rejects the target scheme. The rejected hop is neither recorded nor
// requested.
func (p *probe) followManually(resp *http.Response, follow followPredicate) (*http.Response, error) {
	for hops := 0; isRedirect(resp) && hops < p.policy.MaxRedirects; hops++ {
		location := resp.Header.Get("Location")
		target, err := url.Parse(location)
		if err != nil {
			break
		}
		if !follow(target.Scheme) {
			break
		}
		next := resp.Request.URL.ResolveReference(target).String()

		p.chain = append(p.chain, Hop{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode})

		hopStart := time.Now()
		nextResp, err := p.get(next)
		if err != nil {
			return nextResp, err
		}
		nextResp.Body.Close()
		p.timing = append(p.timing, HopTiming{
			URL:        next,
			StatusCode: nextResp.StatusCode,
			Elapsed:    time.Since(hopStart).Seconds(),
		})

		resp = nextResp
	}
	return resp, nil
}

func (p *probe) get(target string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "httpcheck Agent "+version.Version)
	for k, v := range p.policy.CustomHeaders {
		req.Header.Set(k, v)
	}

	return p.client.Do(req)
}

// isRedirect mirrors the usual client-layer notion of a followable
// redirect: a 301/302/303/307/308 carrying a Location header.
func isRedirect(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return resp.Header.Get("Location") != ""
	}
	return false
}

func hostOf(site string) string {
	u, err := url.Parse(site)
	if err != nil {
		return site
	}
	if u.Hostname() == "" {
		return site
	}
	return u.Hostname()
}
