// Package version holds the single source of truth for the httpcheck
// release version.
package version

const Version = "1.4.1"
