package sync

import (
	"github.com/teamdir/groupsync/pkg/directory"
)

// MemberChange is one membership mutation resolved to a concrete target
// user id. The handle is retained for logging.
type MemberChange struct {
	Handle directory.Handle
	UserID string
}

// MembershipPlan is the symmetric difference between a group's current
// target membership and the wanted source membership. Add and Remove are
// disjoint by construction: a handle cannot be both absent from and present
// in the expanded target set.
type MembershipPlan struct {
	Add      []MemberChange
	Remove   []MemberChange
	NotFound []directory.Handle
}

// InSync reports whether the plan requires no mutations.
func (p MembershipPlan) InSync() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// PlanMembership reconciles a target group's current member list against the
// wanted source handles.
//
// Both directions expand target members into their full equivalence class
// (primary plus every alias): a source handle matching any alias of an
// existing member never produces an add, and a member is kept as long as any
// of its handles appears in the wanted set. A removal is reported under the
// member's primary handle. Source wins; current target state is only a
// starting point to converge from.
func PlanMembership(current []directory.TargetUser, wanted []directory.Handle, idx *AliasIndex) MembershipPlan {
	var plan MembershipPlan

	targetSet := make(directory.HandleSet)
	for _, member := range current {
		for _, h := range idx.EquivalenceClass(member) {
			targetSet.Add(h)
		}
	}

	wantedSet := directory.NewHandleSet(wanted...)

	seen := make(directory.HandleSet, len(wanted))
	for _, h := range wanted {
		if h.IsEmpty() || seen.Contains(h) {
			continue
		}
		seen.Add(h)
		if targetSet.Contains(h) {
			continue
		}
		user, ok := idx.Resolve(h)
		if !ok {
			plan.NotFound = append(plan.NotFound, h)
			continue
		}
		plan.Add = append(plan.Add, MemberChange{Handle: h, UserID: user.ID})
	}

	for _, member := range current {
		primary := member.PrimaryHandle()
		if primary.IsEmpty() {
			continue
		}
		keep := false
		for _, h := range idx.EquivalenceClass(member) {
			if wantedSet.Contains(h) {
				keep = true
				break
			}
		}
		if !keep {
			plan.Remove = append(plan.Remove, MemberChange{Handle: primary, UserID: member.ID})
		}
	}

	return plan
}
