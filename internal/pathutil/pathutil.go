// Package pathutil provides path normalization helpers for configured
// search roots: environment variable expansion and compression, and
// ignore-pattern matching applied during scans.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// percentVarPattern matches %VAR% style references. These are expanded on
// every platform so a config file written on Windows stays usable elsewhere.
var percentVarPattern = regexp.MustCompile(`%([^%]+)%`)

// ExpandVars replaces $VAR, ${VAR} and %VAR% references in path with their
// environment values, then cleans the result. Unknown variables expand to
// the empty string, matching os.Expand behavior.
func ExpandVars(path string) string {
	expanded := percentVarPattern.ReplaceAllStringFunc(path, func(match string) string {
		name := match[1 : len(match)-1]
		return os.Getenv(name)
	})
	expanded = os.ExpandEnv(expanded)
	return filepath.Clean(expanded)
}

// CompressVars rewrites path using the environment variable that yields the
// shortest %VAR%rest spelling. Returns path unchanged when no variable value
// is a prefix of it. Used when persisting roots so config files survive
// profile relocation.
func CompressVars(path string) string {
	shortest := path
	for _, kv := range os.Environ() {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		if len(value) < 2 || !strings.HasPrefix(path, value) {
			continue
		}
		candidate := "%" + name + "%" + path[len(value):]
		if len(candidate) < len(shortest) {
			shortest = candidate
		}
	}
	return shortest
}

// Normalize expands variables in path and makes it absolute.
func Normalize(path string) (string, error) {
	abs, err := filepath.Abs(ExpandVars(path))
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}

// IgnoreSet holds compiled ignore patterns matched against full file paths.
type IgnoreSet struct {
	patterns []*regexp.Regexp
}

// DefaultIgnorePatterns are the patterns applied when the config does not
// override them: backup and partial-download artifacts.
var DefaultIgnorePatterns = []string{`(?i)\.(bkp|dtmp|part)$`}

// NewIgnoreSet compiles the given patterns. An invalid pattern is an error
// naming the offending expression.
func NewIgnoreSet(patterns []string) (*IgnoreSet, error) {
	set := &IgnoreSet{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		set.patterns = append(set.patterns, re)
	}
	return set, nil
}

// Match reports whether path matches any ignore pattern.
func (s *IgnoreSet) Match(path string) bool {
	if s == nil {
		return false
	}
	for _, re := range s.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// DefaultSkipDirs are directory basenames never descended into during a
// scan. Informed by what large sync and VCS trees bury under them.
var DefaultSkipDirs = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	"$RECYCLE.BIN",
	"System Volume Information",
}
