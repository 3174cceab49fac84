// Package cachekey builds the cache keys for users and projects.
//
// Keys are colon-separated; runs of separators collapse to one so that an
// empty part can never produce an ambiguous key.
package cachekey

import (
	"regexp"
	"strings"
)

const (
	userScope    = "user"
	projectScope = "project"

	infoSuffix     = "info"
	projectsSuffix = "projects"
)

var colons = regexp.MustCompile(`:+`)

// Key joins parts with ':' and collapses repeated separators.
func Key(parts ...string) string {
	return colons.ReplaceAllString(strings.Join(parts, ":"), ":")
}

// Prefix returns the wildcard pattern matching every key under parts.
func Prefix(parts ...string) string {
	return colons.ReplaceAllString(Key(parts...)+":*", ":")
}

// UserInfo is the key of a user's UserView.
func UserInfo(userID string) string {
	return Key(userScope, userID, infoSuffix)
}

// UserProjects is the key of a user's project list.
func UserProjects(userID string) string {
	return Key(userScope, userID, projectsSuffix)
}

// UserPrefix matches every key of one user.
func UserPrefix(userID string) string {
	return Prefix(userScope, userID)
}

// ProjectInfo is the key of a project's ProjectView.
func ProjectInfo(projectID string) string {
	return Key(projectScope, projectID, infoSuffix)
}

// ProjectPrefix matches every key of one project.
func ProjectPrefix(projectID string) string {
	return Prefix(projectScope, projectID)
}
