package ignore

import "github.com/temirov/lx/internal/types"

// Chain is the ordered list of rule sets in effect for a directory, root
// first. A Chain is never mutated after construction; Extend returns a copy
// so sibling directories can share their parent's chain.
type Chain []RuleSet

// Extend returns a new chain with ruleSet appended. Empty sets are skipped.
func (chain Chain) Extend(ruleSet RuleSet) Chain {
	if ruleSet.Empty() {
		return chain
	}
	extended := make(Chain, len(chain), len(chain)+1)
	copy(extended, chain)
	return append(extended, ruleSet)
}

// Excluded reports whether the last matching rule across the chain excludes
// absolutePath. Deeper sets take precedence over shallower ones.
func (chain Chain) Excluded(absolutePath string, isDirectory bool) bool {
	for setIndex := len(chain) - 1; setIndex >= 0; setIndex-- {
		if excluded, decided := chain[setIndex].Decide(absolutePath, isDirectory); decided {
			return excluded
		}
	}
	return false
}

// ShouldInclude decides whether entry is listed. showAll bypasses both the
// hidden-name convention and every ignore rule.
func ShouldInclude(entry types.Entry, chain Chain, showAll bool) bool {
	if showAll {
		return true
	}
	if entry.Metadata.Hidden {
		return false
	}
	return !chain.Excluded(entry.AbsolutePath, entry.Kind == types.KindDirectory)
}
