// Package tld validates domains against the Public Suffix List, with a
// disk-backed cache that is refreshed at most once per process.
package tld

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// SourceURL is the canonical Public Suffix List location.
	SourceURL = "https://publicsuffix.org/list/public_suffix_list.dat"

	cacheDirName  = ".httpcheck"
	cacheFileName = "tld_cache.json"

	// DefaultCacheDays is how long the on-disk cache stays valid.
	DefaultCacheDays = 30

	fetchTimeout = 10 * time.Second
)

// ErrEmptyTLDSet is returned when no suffix source could be loaded at all.
// This is a configuration failure, not a per-domain one, so it is surfaced
// even in warning-only mode.
var ErrEmptyTLDSet = errors.New("tld list is empty, cannot validate")

// InvalidTLDError reports a host whose suffix is not in the list.
type InvalidTLDError struct {
	URL string
}

func (e *InvalidTLDError) Error() string {
	return fmt.Sprintf("domain not in global list of TLDs: %q", e.URL)
}

// Options configures the manager on first construction. Later constructions
// in the same process return the shared instance and ignore these.
type Options struct {
	ForceUpdate bool
	CacheDays   int
	WarningOnly bool

	// CacheDir overrides the per-user cache directory. Used by tests.
	CacheDir string
	// SourceURL overrides the suffix list source. Used by tests.
	SourceURL string
}

// Manager holds the in-memory suffix set. It is read-only after
// construction; the refresh happens once, inside New.
type Manager struct {
	opts       Options
	cacheFile  string
	tlds       map[string]struct{}
	updateTime time.Time
}

var (
	sharedMu sync.Mutex
	shared   *Manager
)

// New returns the process-wide manager, constructing and loading it on the
// first call. Load failures degrade through cache, network and the bundled
// fallback list; they are logged, not returned. Only an unusable cache
// directory is an error.
func New(opts Options) (*Manager, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}

	if opts.CacheDays <= 0 {
		opts.CacheDays = DefaultCacheDays
	}
	if opts.SourceURL == "" {
		opts.SourceURL = SourceURL
	}
	if opts.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}
		opts.CacheDir = filepath.Join(home, cacheDirName)
	}
	if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	m := &Manager{
		opts:      opts,
		cacheFile: filepath.Join(opts.CacheDir, cacheFileName),
		tlds:      make(map[string]struct{}),
	}
	m.load(opts.ForceUpdate)

	shared = m
	return m, nil
}

// Reset drops the shared instance so the next New constructs a fresh one.
// Test isolation hook.
func Reset() {
	sharedMu.Lock()
	shared = nil
	sharedMu.Unlock()
}

// Len returns the number of loaded suffixes.
func (m *Manager) Len() int {
	return len(m.tlds)
}

// UpdateTime returns when the suffix set was last refreshed.
func (m *Manager) UpdateTime() time.Time {
	return m.updateTime
}

func (m *Manager) load(forceUpdate bool) {
	if !forceUpdate && m.loadFromCache() {
		return
	}
	if err := m.updateFromSource(); err != nil {
		log.Warn().Err(err).Msg("failed to update TLD list")
		if len(m.tlds) == 0 {
			m.loadFromFallback()
		}
	}
}

type cacheData struct {
	TLDs       []string  `json:"tlds"`
	UpdateTime time.Time `json:"update_time"`
}

// loadFromCache reads the JSON cache file; it reports false when the file
// is absent, unreadable, malformed or older than the staleness threshold.
func (m *Manager) loadFromCache() bool {
	info, err := os.Stat(m.cacheFile)
	if err != nil {
		return false
	}
	if age := time.Since(info.ModTime()); age > time.Duration(m.opts.CacheDays)*24*time.Hour {
		log.Debug().Dur("age", age).Int("max_days", m.opts.CacheDays).
			Msg("TLD cache is stale, refreshing")
		return false
	}

	raw, err := os.ReadFile(m.cacheFile)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read TLD cache")
		return false
	}
	var data cacheData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Msg("malformed TLD cache")
		return false
	}
	if len(data.TLDs) == 0 {
		return false
	}

	m.tlds = make(map[string]struct{}, len(data.TLDs))
	for _, suffix := range data.TLDs {
		m.tlds[suffix] = struct{}{}
	}
	m.updateTime = data.UpdateTime
	log.Debug().Int("count", len(m.tlds)).Time("updated", m.updateTime).
		Msg("loaded TLDs from cache")
	return true
}

// saveCache persists the suffix set as a whole-file replacement. Write
// failures degrade to in-memory operation.
func (m *Manager) saveCache() {
	data := cacheData{
		TLDs:       make([]string, 0, len(m.tlds)),
		UpdateTime: m.updateTime,
	}
	for suffix := range m.tlds {
		data.TLDs = append(data.TLDs, suffix)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode TLD cache")
		return
	}
	if err := os.WriteFile(m.cacheFile, raw, 0644); err != nil {
		log.Warn().Err(err).Msg("failed to write TLD cache")
	}
}

// updateFromSource fetches the Public Suffix List and replaces the set on
// success.
func (m *Manager) updateFromSource() error {
	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Get(m.opts.SourceURL)
	if err != nil {
		return fmt.Errorf("failed to fetch suffix list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("suffix list fetch returned status %d", resp.StatusCode)
	}

	tlds := make(map[string]struct{})
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if suffix, ok := parseSuffixLine(scanner.Text()); ok {
			tlds[suffix] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read suffix list: %w", err)
	}
	if len(tlds) == 0 {
		return errors.New("downloaded suffix list is empty")
	}

	m.tlds = tlds
	m.updateTime = time.Now()
	m.saveCache()
	log.Debug().Int("count", len(m.tlds)).Msg("updated TLD list from source")
	return nil
}

// parseSuffixLine filters out blank lines and comments, keeping wildcard
// (*.) and exception (!) rules.
func parseSuffixLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "//") {
		return "", false
	}
	return strings.ToLower(line), true
}

// Validate checks the host of rawURL against the suffix set and returns the
// registrable domain: the longest matching public suffix plus one label. In
// warning-only mode a miss returns an empty string instead of an error; an
// empty suffix set errors regardless.
func (m *Manager) Validate(rawURL string) (string, error) {
	if len(m.tlds) == 0 {
		return "", ErrEmptyTLDSet
	}

	labels := strings.Split(strings.ToLower(hostOf(rawURL)), ".")

	// Longest window first, so co.uk wins over uk.
	for size := len(labels); size >= 1; size-- {
		window := labels[len(labels)-size:]
		candidate := strings.Join(window, ".")
		wildcard := strings.Join(append([]string{"*"}, window[1:]...), ".")

		if _, ok := m.tlds["!"+candidate]; ok {
			// Exception rule: the candidate itself is registrable.
			return candidate, nil
		}
		if _, ok := m.tlds[candidate]; !ok {
			if _, ok = m.tlds[wildcard]; !ok {
				continue
			}
		}
		start := len(labels) - size - 1
		if start < 0 {
			start = 0
		}
		return strings.Join(labels[start:], "."), nil
	}

	if m.opts.WarningOnly {
		log.Warn().Str("url", rawURL).Msg("domain not in global list of TLDs")
		return "", nil
	}
	return "", &InvalidTLDError{URL: rawURL}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
