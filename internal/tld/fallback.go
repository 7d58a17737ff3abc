package tld

import (
	_ "embed"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// suffixesDat is a bundled subset of the Public Suffix List, used only when
// both the cache and the network source are unavailable.
//
//go:embed suffixes.dat
var suffixesDat string

func (m *Manager) loadFromFallback() {
	tlds := make(map[string]struct{})
	for _, line := range strings.Split(suffixesDat, "\n") {
		if suffix, ok := parseSuffixLine(line); ok {
			tlds[suffix] = struct{}{}
		}
	}
	if len(tlds) == 0 {
		log.Warn().Msg("bundled suffix list is empty")
		return
	}

	m.tlds = tlds
	m.updateTime = time.Now()
	m.saveCache()
	log.Debug().Int("count", len(m.tlds)).Msg("loaded TLDs from bundled list")
}
