package core

import "strings"

// Owned is implemented by every record that carries an owner label.
type Owned interface {
	OwnerLabel() string
}

// IsGuest reports whether user is the unscoped sentinel (empty or "guest").
func IsGuest(user string) bool {
	user = strings.TrimSpace(user)
	return user == "" || strings.EqualFold(user, GuestUser)
}

// Scope restricts records to those owned by user. The guest sentinel returns
// records unchanged.
func Scope[T Owned](records []T, user string) []T {
	if IsGuest(user) {
		return records
	}
	user = strings.TrimSpace(user)
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.OwnerLabel() == user {
			out = append(out, r)
		}
	}
	return out
}

// Owners returns the distinct owner labels in first-seen order.
func Owners[T Owned](records []T) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		o := r.OwnerLabel()
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
