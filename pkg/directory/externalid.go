package directory

import (
	"strings"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/errors"
)

// ExternalID is the parsed form of a target group's externalId tag. On the
// wire it is "<TAG>;<stableId>"; groups tagged with constants.SyncTag are
// owned by this engine, everything else is foreign and never touched.
type ExternalID struct {
	Tag      string
	StableID string
}

// NewExternalID builds the sync-tagged external id for a source group.
func NewExternalID(stableID string) ExternalID {
	return ExternalID{Tag: constants.SyncTag, StableID: stableID}
}

// ParseExternalID parses a raw externalId string. A value carrying the sync
// prefix but no delimiter is the malformed correlation key case and returns
// a ParseError.
func ParseExternalID(raw string) (ExternalID, error) {
	tag, stableID, found := strings.Cut(raw, constants.SyncTagDelimiter)
	if !found || stableID == "" {
		return ExternalID{}, &errors.ParseError{
			Format:  "externalId",
			Input:   raw,
			Message: "missing \"" + constants.SyncTagDelimiter + "<stableId>\" suffix",
		}
	}
	return ExternalID{Tag: tag, StableID: stableID}, nil
}

// HasSyncTag reports whether a raw externalId carries the sync prefix,
// whether or not the suffix is well formed.
func HasSyncTag(raw string) bool {
	return strings.HasPrefix(raw, constants.SyncTag)
}

// Tagged reports whether the external id carries the recognized sync tag.
func (e ExternalID) Tagged() bool {
	return e.Tag == constants.SyncTag
}

// String serializes the external id back to its wire form.
func (e ExternalID) String() string {
	return e.Tag + constants.SyncTagDelimiter + e.StableID
}
