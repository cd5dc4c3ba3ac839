//go:build unix

package platform

import (
	"io/fs"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

// OwnerResolver turns numeric owners into names, caching every lookup.
type OwnerResolver struct {
	users  sync.Map
	groups sync.Map
}

// NewOwnerResolver returns an empty resolver scoped to one run.
func NewOwnerResolver() *OwnerResolver {
	return &OwnerResolver{}
}

// Owner returns "user group" for the file, falling back to numeric ids.
func (resolver *OwnerResolver) Owner(info fs.FileInfo) string {
	if info == nil {
		return ""
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	userID := strconv.FormatUint(uint64(stat.Uid), 10)
	groupID := strconv.FormatUint(uint64(stat.Gid), 10)
	return resolver.userName(userID) + " " + resolver.groupName(groupID)
}

func (resolver *OwnerResolver) userName(userID string) string {
	if cached, ok := resolver.users.Load(userID); ok {
		return cached.(string)
	}
	name := userID
	if account, lookupError := user.LookupId(userID); lookupError == nil {
		name = account.Username
	}
	resolver.users.Store(userID, name)
	return name
}

func (resolver *OwnerResolver) groupName(groupID string) string {
	if cached, ok := resolver.groups.Load(groupID); ok {
		return cached.(string)
	}
	name := groupID
	if group, lookupError := user.LookupGroupId(groupID); lookupError == nil {
		name = group.Name
	}
	resolver.groups.Store(groupID, name)
	return name
}
