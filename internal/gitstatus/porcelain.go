package gitstatus

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/temirov/lx/internal/types"
)

const (
	recordSeparator     = 0
	statusColumnsLength = 3

	errorMalformedRecordFormat = "malformed status record %q"
	errorMissingRenameFormat   = "status record %q is missing its original path"
)

var unmergedPairs = map[string]struct{}{
	"DD": {}, "AU": {}, "UD": {}, "UA": {}, "DU": {}, "AA": {}, "UU": {},
}

// ParsePorcelain decodes NUL-separated porcelain v1 output into statuses keyed
// by repository-relative slash paths.
func ParsePorcelain(output []byte) (map[string]types.StatusCode, error) {
	statuses := make(map[string]types.StatusCode)
	fields := bytes.Split(output, []byte{recordSeparator})
	for fieldIndex := 0; fieldIndex < len(fields); fieldIndex++ {
		record := string(fields[fieldIndex])
		if record == "" {
			continue
		}
		if len(record) <= statusColumnsLength || record[2] != ' ' {
			return nil, fmt.Errorf(errorMalformedRecordFormat, record)
		}
		indexColumn, worktreeColumn := record[0], record[1]
		recordPath := strings.TrimSuffix(record[statusColumnsLength:], "/")
		if isCopyOrRename(indexColumn) || isCopyOrRename(worktreeColumn) {
			fieldIndex++
			if fieldIndex >= len(fields) {
				return nil, fmt.Errorf(errorMissingRenameFormat, record)
			}
		}
		statuses[recordPath] = MapStatus(indexColumn, worktreeColumn)
	}
	return statuses, nil
}

func isCopyOrRename(column byte) bool {
	return column == 'R' || column == 'C'
}

// MapStatus converts a porcelain XY pair into a status code. The index column
// takes priority over the worktree column.
func MapStatus(indexColumn, worktreeColumn byte) types.StatusCode {
	pair := string([]byte{indexColumn, worktreeColumn})
	if _, unmerged := unmergedPairs[pair]; unmerged {
		return types.StatusConflicted
	}
	switch pair {
	case "??":
		return types.StatusUntracked
	case "!!":
		return types.StatusIgnored
	}
	switch indexColumn {
	case 'A', 'C':
		return types.StatusAdded
	case 'M', 'T':
		return types.StatusModified
	case 'D':
		return types.StatusDeleted
	case 'R':
		return types.StatusRenamed
	}
	switch worktreeColumn {
	case 'M', 'T':
		return types.StatusModified
	case 'D':
		return types.StatusDeleted
	case 'R':
		return types.StatusRenamed
	case 'A':
		return types.StatusAdded
	}
	return types.StatusClean
}
