// Package notify delivers the one-per-batch desktop notification.
package notify

import (
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"
)

// maxListedSites caps how many failed sites are listed in the notification
// body before collapsing to a count.
const maxListedSites = 10

// Send fires a desktop notification with the batch summary. Failures are
// logged only; notification delivery never affects the run outcome.
func Send(title, message string, failedSites []string) {
	body := message
	if len(failedSites) > 0 {
		if len(failedSites) < maxListedSites {
			var sb strings.Builder
			sb.WriteString("Failed sites:\n")
			for _, site := range failedSites {
				sb.WriteString(fmt.Sprintf("• %s\n", site))
			}
			body = strings.TrimRight(sb.String(), "\n")
		} else {
			body = fmt.Sprintf("%d sites failed. See terminal for details.", len(failedSites))
		}
	}

	if err := beeep.Notify(title, body, ""); err != nil {
		log.Warn().Err(err).Msg("could not send notification")
	}
}
