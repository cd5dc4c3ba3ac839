// Package ignore compiles ignore-file patterns and decides which entries a
// listing hides.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	commentPrefix       = "#"
	negationPrefix      = "!"
	segmentSeparator    = "/"
	trailingAnySegments = "/**"
	trailingAnyName     = "/*"
)

// Rule is one compiled ignore pattern.
type Rule struct {
	Pattern string
	Negated bool

	matcher        gitignore.Pattern
	coversContents bool
}

// RuleSet holds the rules of one directory level, anchored at Directory.
// Later rules override earlier ones.
type RuleSet struct {
	Directory string
	Rules     []Rule
}

// Compile builds the rule set for directory from raw pattern lines. Blank
// lines and comments are skipped.
func Compile(directory string, patternLines []string) RuleSet {
	ruleSet := RuleSet{Directory: filepath.Clean(directory)}
	for _, line := range patternLines {
		rule, ok := compileRule(line)
		if !ok {
			continue
		}
		ruleSet.Rules = append(ruleSet.Rules, rule)
	}
	return ruleSet
}

// Empty reports whether the set has no rules.
func (ruleSet RuleSet) Empty() bool {
	return len(ruleSet.Rules) == 0
}

func compileRule(line string) (Rule, bool) {
	pattern := strings.TrimSuffix(line, "\r")
	trimmed := strings.TrimRight(pattern, " ")
	if trimmed == "" || strings.HasPrefix(pattern, commentPrefix) {
		return Rule{}, false
	}
	if strings.Trim(strings.TrimPrefix(trimmed, negationPrefix), segmentSeparator) == "" {
		return Rule{}, false
	}
	// "dir/**" matches the contents of dir but not dir itself.
	matcherPattern := pattern
	coversContents := strings.HasSuffix(trimmed, trailingAnySegments)
	if coversContents {
		matcherPattern = strings.TrimSuffix(trimmed, trailingAnySegments) + trailingAnyName
	}
	return Rule{
		Pattern:        pattern,
		Negated:        strings.HasPrefix(pattern, negationPrefix),
		matcher:        gitignore.ParsePattern(matcherPattern, nil),
		coversContents: coversContents,
	}, true
}

// verdict is the rule's decision for pathSegments. A hit that only comes from
// one of the path's ancestor directories is NoMatch unless the rule covers
// everything below its match.
func (rule Rule) verdict(pathSegments []string, isDirectory bool) gitignore.MatchResult {
	result := rule.matcher.Match(pathSegments, isDirectory)
	if result == gitignore.NoMatch || rule.coversContents || len(pathSegments) < 2 {
		return result
	}
	if rule.matcher.Match(pathSegments[:len(pathSegments)-1], true) != gitignore.NoMatch {
		return gitignore.NoMatch
	}
	return result
}

// Matches reports whether the rule matches relativePath, a slash-separated
// path relative to the rule set's directory.
func (rule Rule) Matches(relativePath string, isDirectory bool) bool {
	return rule.verdict(strings.Split(relativePath, segmentSeparator), isDirectory) != gitignore.NoMatch
}

// Decide returns the verdict of the last rule in the set that matches
// absolutePath. decided is false when no rule matches or the path lies outside
// the set's directory.
func (ruleSet RuleSet) Decide(absolutePath string, isDirectory bool) (excluded bool, decided bool) {
	relativePath, relativeError := filepath.Rel(ruleSet.Directory, absolutePath)
	if relativeError != nil {
		return false, false
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." || relativePath == ".." || strings.HasPrefix(relativePath, "../") {
		return false, false
	}
	pathSegments := strings.Split(relativePath, segmentSeparator)
	for ruleIndex := len(ruleSet.Rules) - 1; ruleIndex >= 0; ruleIndex-- {
		switch ruleSet.Rules[ruleIndex].verdict(pathSegments, isDirectory) {
		case gitignore.Exclude:
			return true, true
		case gitignore.Include:
			return false, true
		}
	}
	return false, false
}
