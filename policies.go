package accounts

import "github.com/google/uuid"

// IsAuthenticatedAndActive reports whether the request carries a
// resolved, active user.
func IsAuthenticatedAndActive(user *User) bool {
	return user != nil && user.IsActive
}

// IsAdmin reports whether the user is an active staff member.
func IsAdmin(user *User) bool {
	return IsAuthenticatedAndActive(user) && user.IsAdmin
}

func isSafeMethod(method string) bool {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return true
	}
	return false
}

// IsOwnerOrReadOnly allows reads to everyone and writes only to the
// resource owner.
func IsOwnerOrReadOnly(method string, user *User, resourceID uuid.UUID) bool {
	if isSafeMethod(method) {
		return true
	}
	return user != nil && user.ID == resourceID
}

// IsOwnerOrAdmin allows access to staff and to the resource owner.
func IsOwnerOrAdmin(user *User, resourceID uuid.UUID) bool {
	if IsAdmin(user) {
		return true
	}
	return user != nil && user.ID == resourceID
}
