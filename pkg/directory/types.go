package directory

// SourceGroup is a snapshot of a dynamic distribution group taken from the
// authoritative source directory.
type SourceGroup struct {
	StableID    string // opaque unique identifier (objectGUID)
	DisplayName string
	Mail        string // full address; label derives from its local part
	Description string
}

// MissingFields lists the required attributes absent from the group. A group
// with any missing field is skipped by sync, not treated as an error.
func (g SourceGroup) MissingFields() []string {
	var missing []string
	if g.StableID == "" {
		missing = append(missing, "stableId")
	}
	if g.DisplayName == "" {
		missing = append(missing, "displayName")
	}
	if g.Mail == "" {
		missing = append(missing, "mail")
	}
	return missing
}

// LabelHandle derives the mailing-list label from the group's mail address.
// False when the group has no parseable address.
func (g SourceGroup) LabelHandle() (Handle, bool) {
	return HandleFromAddress(g.Mail)
}

// ExternalID returns the sync tag this group is written under in the target.
func (g SourceGroup) ExternalID() ExternalID {
	return NewExternalID(g.StableID)
}

// TargetGroup is a snapshot of a group held by the target directory service.
type TargetGroup struct {
	ID          string
	ExternalID  string // raw wire form; parse with ParseExternalID
	Name        string
	Label       string
	Description string
	MemberCount int
}

// SyncTagged reports whether the group's externalId carries the sync prefix.
// Tagged groups are owned by the engine; untagged ones must never be mutated
// or deleted.
func (g TargetGroup) SyncTagged() bool {
	return HasSyncTag(g.ExternalID)
}

// TargetUser is a snapshot of an account in the target directory service.
// The nickname is the primary handle; aliases are secondary handles in the
// same namespace, equivalent for matching purposes.
type TargetUser struct {
	ID       string
	Nickname string
	Aliases  []string
	Email    string
	Name     string
}

// PrimaryHandle returns the user's nickname as a normalized handle.
func (u TargetUser) PrimaryHandle() Handle {
	return NewHandle(u.Nickname)
}

// AliasHandles returns the user's aliases as normalized handles.
func (u TargetUser) AliasHandles() []Handle {
	if len(u.Aliases) == 0 {
		return nil
	}
	handles := make([]Handle, 0, len(u.Aliases))
	for _, a := range u.Aliases {
		if h := NewHandle(a); !h.IsEmpty() {
			handles = append(handles, h)
		}
	}
	return handles
}

// MemberType identifies what kind of entity a group member is. The target
// service supports users, nested groups, and departments; the sync engine
// only ever issues user memberships.
type MemberType string

// Member types accepted by the target service.
const (
	MemberTypeUser       MemberType = "user"
	MemberTypeGroup      MemberType = "group"
	MemberTypeDepartment MemberType = "department"
)

// GroupPayload is the create request for a new target group.
type GroupPayload struct {
	Name        string
	Label       string
	Description string
	ExternalID  string
}

// Patch is a partial group update: attribute name to new value, containing
// only attributes whose source value differs from the target. An empty patch
// means the group is in sync.
type Patch map[string]any
