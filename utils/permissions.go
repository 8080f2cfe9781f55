package utils

import "strings"

// MatchesPermission checks if an admin permission grants the required one.
// Permissions are "resource:action" and support wildcards:
//
//   - "*" or "*:*" matches everything (super admin)
//   - "bookings:*" matches every action on bookings
//   - "*:read" matches read on every resource
//   - "bookings:export" exact match
//
// Strings without a colon only match exactly.
func MatchesPermission(userPerm, requiredPerm string) bool {
	// Exact match (fastest path)
	if userPerm == requiredPerm {
		return true
	}

	// Full wildcard - grants everything
	if userPerm == "*" || userPerm == "*:*" {
		return true
	}

	userParts := strings.Split(userPerm, ":")
	reqParts := strings.Split(requiredPerm, ":")

	if len(userParts) < 2 || len(reqParts) < 2 {
		return false
	}

	resourceMatch := userParts[0] == "*" || userParts[0] == reqParts[0]
	actionMatch := userParts[1] == "*" || userParts[1] == reqParts[1]

	return resourceMatch && actionMatch
}

// HasPermission reports whether any of perms grants required.
func HasPermission(perms []string, required string) bool {
	for _, p := range perms {
		if MatchesPermission(strings.TrimSpace(p), required) {
			return true
		}
	}
	return false
}
