package directory

import "strings"

// Handle is a case-insensitive short identity string: the local part of a
// mail address, lower-cased. Handles are the join key used to match users
// between the source directory and the target service.
type Handle string

// NewHandle normalizes an already-local value (a nickname or alias) into a
// Handle.
func NewHandle(s string) Handle {
	return Handle(strings.ToLower(strings.TrimSpace(s)))
}

// HandleFromAddress derives a Handle from a full mail address by taking the
// local part before "@". The second return is false when the value contains
// no "@" and therefore is not an address.
func HandleFromAddress(addr string) (Handle, bool) {
	addr = strings.TrimSpace(addr)
	at := strings.Index(addr, "@")
	if at <= 0 {
		return "", false
	}
	return Handle(strings.ToLower(addr[:at])), true
}

// String returns the handle as a plain string.
func (h Handle) String() string { return string(h) }

// IsEmpty reports whether the handle carries no value.
func (h Handle) IsEmpty() bool { return h == "" }

// HandleSet is a set of handles with O(1) membership checks.
type HandleSet map[Handle]struct{}

// NewHandleSet builds a set from the given handles, dropping empties.
func NewHandleSet(handles ...Handle) HandleSet {
	set := make(HandleSet, len(handles))
	for _, h := range handles {
		if !h.IsEmpty() {
			set[h] = struct{}{}
		}
	}
	return set
}

// Add inserts a handle into the set unless it is empty.
func (s HandleSet) Add(h Handle) {
	if !h.IsEmpty() {
		s[h] = struct{}{}
	}
}

// Contains reports whether the handle is in the set.
func (s HandleSet) Contains(h Handle) bool {
	_, ok := s[h]
	return ok
}
