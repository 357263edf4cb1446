package sync

import (
	"github.com/teamdir/groupsync/pkg/directory"
)

// Group attribute names used in patches and create payloads.
const (
	attrName        = "name"
	attrLabel       = "label"
	attrDescription = "description"
)

// Diff compares a correlated pair of groups and returns the minimal patch
// converging the target onto the source. Exactly three attributes are
// compared:
//
//   - name against the source display name;
//   - label against the local part of the source mail address, only when the
//     source has a parseable address; an absent address never produces a
//     label entry even if the target currently has one;
//   - description, with an absent source description compared as "".
//
// An empty patch means the pair is in sync. Pure function over the snapshot.
func Diff(src directory.SourceGroup, tgt directory.TargetGroup) directory.Patch {
	patch := directory.Patch{}

	if tgt.Name != src.DisplayName {
		patch[attrName] = src.DisplayName
	}

	if label, ok := src.LabelHandle(); ok {
		if tgt.Label != label.String() {
			patch[attrLabel] = label.String()
		}
	}

	if tgt.Description != src.Description {
		patch[attrDescription] = src.Description
	}

	return patch
}
