package pipeline

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, quiet bool, version, commit, date string) {
	if quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("nesrle", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
