package sync

import (
	"context"

	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/logging"
)

// Correlation is the result of pairing source groups with sync-tagged target
// groups through the externalId join key.
type Correlation struct {
	// Pairs maps a source stableId to the target group tagged with it.
	Pairs map[string]*directory.TargetGroup

	// Orphans are sync-tagged target groups whose stableId no longer exists
	// in the source. They are the only deletion candidates.
	Orphans []directory.TargetGroup

	// Malformed counts target groups carrying the sync prefix but no
	// parseable stableId suffix. Skipped, never mutated.
	Malformed int
}

// Correlate indexes target groups by their parsed externalId and pairs them
// against the source snapshot. Foreign groups (no sync tag) are ignored
// entirely. When two target groups carry the same externalId the first one
// encountered wins and the duplicate is logged.
func Correlate(ctx context.Context, sourceGroups []directory.SourceGroup, targetGroups []directory.TargetGroup) Correlation {
	log := logging.FromContext(ctx)

	sourceIDs := make(map[string]struct{}, len(sourceGroups))
	for _, src := range sourceGroups {
		if src.StableID != "" {
			sourceIDs[src.StableID] = struct{}{}
		}
	}

	corr := Correlation{Pairs: make(map[string]*directory.TargetGroup)}

	for i := range targetGroups {
		tgt := &targetGroups[i]
		if !tgt.SyncTagged() {
			continue
		}

		ext, err := directory.ParseExternalID(tgt.ExternalID)
		if err != nil {
			log.Warn().
				Str("group", tgt.Name).
				Str("external_id", tgt.ExternalID).
				Msg("malformed externalId, skipping group")
			corr.Malformed++
			continue
		}
		if !ext.Tagged() {
			// A longer tag that happens to share the prefix, e.g. "DDGX".
			continue
		}

		if prev, dup := corr.Pairs[ext.StableID]; dup {
			log.Warn().
				Str("stable_id", ext.StableID).
				Str("kept", prev.ID).
				Str("ignored", tgt.ID).
				Msg("duplicate externalId in target, keeping first")
			continue
		}
		corr.Pairs[ext.StableID] = tgt

		if _, ok := sourceIDs[ext.StableID]; !ok {
			corr.Orphans = append(corr.Orphans, *tgt)
		}
	}

	log.Debug().
		Int("paired", len(corr.Pairs)).
		Int("orphans", len(corr.Orphans)).
		Int("malformed", corr.Malformed).
		Msg("correlated source and target groups")

	return corr
}
