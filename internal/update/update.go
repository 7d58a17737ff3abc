// Package update checks the latest published release against the running
// version.
package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	repoOwner = "docdyhr"
	repoName  = "httpcheck"
	apiURL    = "https://api.github.com/repos/%s/%s/releases/latest"
)

// releaseURL is a variable so tests can point it at a local server.
var releaseURL = fmt.Sprintf(apiURL, repoOwner, repoName)

type gitHubRelease struct {
	TagName string `json:"tag_name"`
}

// CheckLatest fetches the latest release tag and reports whether it is
// newer than the current version.
func CheckLatest(currentVersion string) (string, bool, error) {
	if !strings.HasPrefix(currentVersion, "v") {
		currentVersion = "v" + currentVersion
	}

	release, err := getLatestReleaseInfo()
	if err != nil {
		return "", false, fmt.Errorf("could not get latest release info: %w", err)
	}

	latest := release.TagName
	if !semver.IsValid(currentVersion) || !semver.IsValid(latest) {
		return "", false, fmt.Errorf("invalid version format. Current: %s, Latest: %s", currentVersion, latest)
	}

	return latest, semver.Compare(latest, currentVersion) > 0, nil
}

func getLatestReleaseInfo() (*gitHubRelease, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(releaseURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read release response: %w", err)
	}

	var release gitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to decode release response: %w", err)
	}
	return &release, nil
}
