package gitstatus

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	defaultGitExecutable  = "git"
	notRepositoryFragment = "not a git repository"
	ignoredMatchingFlag   = "--ignored=matching"

	errorStatusCommandFormat = "git status in %s: %w: %s"
)

// Runner produces raw `git status --porcelain=v1 -z` output for a working tree.
// includeIgnored adds `!!` records for paths matched by ignore rules.
type Runner interface {
	Status(ctx context.Context, repositoryRoot string, includeIgnored bool) ([]byte, error)
}

// ExecRunner runs the git executable.
type ExecRunner struct {
	Executable string
}

// Status runs git status for repositoryRoot. ErrNotRepository is returned when
// git rejects the directory as a repository.
func (runner ExecRunner) Status(ctx context.Context, repositoryRoot string, includeIgnored bool) ([]byte, error) {
	executable := runner.Executable
	if executable == "" {
		executable = defaultGitExecutable
	}
	arguments := []string{"-C", repositoryRoot, "status", "--porcelain=v1", "-z", "--untracked-files=all"}
	if includeIgnored {
		arguments = append(arguments, ignoredMatchingFlag)
	}
	// #nosec G204
	command := exec.CommandContext(ctx, executable, arguments...)
	var standardError bytes.Buffer
	command.Stderr = &standardError
	output, runError := command.Output()
	if runError != nil {
		if ctxError := ctx.Err(); ctxError != nil {
			return nil, ctxError
		}
		message := strings.TrimSpace(standardError.String())
		if strings.Contains(strings.ToLower(message), notRepositoryFragment) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf(errorStatusCommandFormat, repositoryRoot, runError, message)
	}
	return output, nil
}
