package cli

import (
	"os/exec"
	"runtime/debug"
	"strings"

	"github.com/temirov/lx/internal/gitstatus"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// applicationVersion reports the module version from build info, falling
// back to git describe when running from a source checkout.
func applicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}

	repository, found := gitstatus.Discover(".")
	if !found {
		return unknownVersion
	}
	for _, describeArguments := range [][]string{
		{"describe", "--tags", "--exact-match"},
		{"describe", "--tags", "--long", "--dirty"},
	} {
		// #nosec G204
		describeCommand := exec.Command("git", describeArguments...)
		describeCommand.Dir = repository.Root
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}
