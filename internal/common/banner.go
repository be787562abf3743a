package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner with the effective version.
func PrintBanner(version string) {
	if version == "" {
		version = GetVersion()
	}
	banner.PrintSimple("Respondeo", version)
}
