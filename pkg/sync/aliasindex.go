package sync

import (
	"github.com/teamdir/groupsync/pkg/directory"
)

// HandleConflict records two target users claiming the same handle through
// their primary or alias handles. The index keeps the first user; the
// conflict is surfaced so the run can report it instead of silently
// overwriting.
type HandleConflict struct {
	Handle directory.Handle
	KeptID string
	DupID  string
}

// AliasIndex is an equivalence-class index of target user identities: every
// primary handle and every alias maps to its owning user, lower-cased, for
// O(1) case-insensitive lookup.
type AliasIndex struct {
	byHandle  map[directory.Handle]*directory.TargetUser
	users     []directory.TargetUser
	aliases   int
	conflicts []HandleConflict
}

// NewAliasIndex builds the index over a target-user snapshot. Insertion
// order is the snapshot order; on a handle collision the first user wins
// deterministically and the collision is recorded.
func NewAliasIndex(users []directory.TargetUser) *AliasIndex {
	idx := &AliasIndex{
		byHandle: make(map[directory.Handle]*directory.TargetUser, len(users)),
		users:    make([]directory.TargetUser, len(users)),
	}
	copy(idx.users, users)

	for i := range idx.users {
		user := &idx.users[i]
		idx.insert(user.PrimaryHandle(), user)
		for _, alias := range user.AliasHandles() {
			idx.insert(alias, user)
			idx.aliases++
		}
	}
	return idx
}

func (idx *AliasIndex) insert(h directory.Handle, user *directory.TargetUser) {
	if h.IsEmpty() {
		return
	}
	if prev, ok := idx.byHandle[h]; ok {
		if prev.ID != user.ID {
			idx.conflicts = append(idx.conflicts, HandleConflict{
				Handle: h,
				KeptID: prev.ID,
				DupID:  user.ID,
			})
		}
		return
	}
	idx.byHandle[h] = user
}

// Resolve returns the user owning the given handle, matching primary and
// alias handles alike.
func (idx *AliasIndex) Resolve(h directory.Handle) (directory.TargetUser, bool) {
	user, ok := idx.byHandle[h]
	if !ok {
		return directory.TargetUser{}, false
	}
	return *user, true
}

// EquivalenceClass expands a user into every handle it answers to: the
// primary plus all aliases of the indexed record sharing that primary. The
// indexed record is preferred because group-member listings may omit alias
// data present in the full user snapshot.
func (idx *AliasIndex) EquivalenceClass(user directory.TargetUser) []directory.Handle {
	primary := user.PrimaryHandle()
	if primary.IsEmpty() {
		return nil
	}
	if indexed, ok := idx.byHandle[primary]; ok {
		return append([]directory.Handle{indexed.PrimaryHandle()}, indexed.AliasHandles()...)
	}
	return append([]directory.Handle{primary}, user.AliasHandles()...)
}

// Conflicts returns the handle collisions found during construction, in
// snapshot order.
func (idx *AliasIndex) Conflicts() []HandleConflict {
	return idx.conflicts
}

// Len returns the number of distinct handles in the index.
func (idx *AliasIndex) Len() int {
	return len(idx.byHandle)
}

// AliasCount returns how many alias entries were indexed.
func (idx *AliasIndex) AliasCount() int {
	return idx.aliases
}
