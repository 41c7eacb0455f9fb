// Package validation provides input validation with no dependencies on the
// rest of the module, so it can be imported from any layer without creating
// import cycles.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// pathSafe matches identifiers safe to embed in filesystem paths: alphanumerics,
// underscores, and hyphens only.
var pathSafe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidatePathComponent rejects empty strings and anything containing a path
// separator or traversal sequence, the minimum bar for a value that will be
// joined into a filesystem path (working-log directories, note blob names).
func ValidatePathComponent(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if strings.ContainsAny(value, "/\\") || value == "." || value == ".." {
		return fmt.Errorf("invalid %s %q: contains path separators", name, value)
	}
	return nil
}

// ValidateSessionID validates a session identifier used to key working-log
// and rewrite-log entries.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if !pathSafe.MatchString(id) {
		return fmt.Errorf("invalid session ID %q: must be alphanumeric with underscores/hyphens only", id)
	}
	return nil
}

// ValidateCommitSHA validates a full 40-character hex commit SHA.
var commitSHARegex = regexp.MustCompile(`^[0-9a-f]{40}$`)

func ValidateCommitSHA(sha string) error {
	if !commitSHARegex.MatchString(sha) {
		return fmt.Errorf("invalid commit SHA %q: must be 40 lowercase hex characters", sha)
	}
	return nil
}

// ValidateRepoRelativePath rejects absolute paths and parent-directory
// traversal in a path taken from an external hook payload before it is
// used to read or write repository content.
func ValidateRepoRelativePath(p string) error {
	if p == "" {
		return errors.New("path cannot be empty")
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("invalid path %q: must be repository-relative", p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return fmt.Errorf("invalid path %q: parent directory traversal not allowed", p)
		}
	}
	return nil
}
