package sync

import (
	"context"

	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// RemoteDirectory is the surface of the target directory service the engine
// mutates. Implementations carry their own bounded retry; a returned error
// means the operation is exhausted and the entity is charged to the error
// counter.
type RemoteDirectory interface {
	CreateGroup(ctx context.Context, payload directory.GroupPayload) (directory.TargetGroup, error)
	PatchGroup(ctx context.Context, id string, patch directory.Patch) (directory.TargetGroup, error)
	DeleteGroup(ctx context.Context, id string) (bool, error)
	GroupMembers(ctx context.Context, id string) ([]directory.TargetUser, error)
	AddMember(ctx context.Context, groupID string, memberType directory.MemberType, memberID string) (bool, error)
	RemoveMember(ctx context.Context, groupID string, memberType directory.MemberType, memberID string) (bool, error)
}

// MemberSource yields the wanted membership of a source group, expressed as
// handles. A group with no export available returns an empty list, not an
// error.
type MemberSource interface {
	Members(group directory.SourceGroup) ([]directory.Handle, error)
}

// SnapshotWriter receives the target-side member list of each processed
// group for diagnostics. Optional.
type SnapshotWriter interface {
	WriteSnapshot(groupName string, members []directory.TargetUser) error
}

// Syncer sequences group-level and membership-level reconciliation over one
// pair of snapshots. Processing is strictly sequential; the Stats
// accumulator is the only mutable state and is owned by the running pass.
type Syncer struct {
	remote    RemoteDirectory
	members   MemberSource
	snapshots SnapshotWriter
	opts      *Options
}

// New creates a Syncer for the given remote directory and member source.
func New(remote RemoteDirectory, members MemberSource, opts ...Option) *Syncer {
	return &Syncer{
		remote:  remote,
		members: members,
		opts:    Defaults().Apply(opts...),
	}
}

// WithSnapshotWriter attaches a diagnostics writer to the Syncer.
func (s *Syncer) WithSnapshotWriter(w SnapshotWriter) *Syncer {
	s.snapshots = w
	return s
}

// SyncGroups converges the target's sync-tagged groups onto the source
// snapshot: creates missing groups, patches drifted attributes, and deletes
// tagged orphans. Untagged and foreign-tagged target groups are never
// touched.
//
// An empty source snapshot is a fatal precondition and aborts the phase
// before any work. Every other failure is absorbed per entity: the error
// counter grows and the loop continues. Stats.OK reports whether the phase
// was error free.
func (s *Syncer) SyncGroups(ctx context.Context, sourceGroups []directory.SourceGroup, targetGroups []directory.TargetGroup) (*Stats, error) {
	ctx = logging.WithPhase(ctx, "groups")
	log := logging.FromContext(ctx)
	stats := &Stats{}

	if len(sourceGroups) == 0 {
		return stats, errors.NewSyncError("groups", "",
			errors.ErrEmptySnapshot)
	}

	log.Info().
		Int("source_groups", len(sourceGroups)).
		Int("target_groups", len(targetGroups)).
		Bool("dry_run", s.opts.DryRun).
		Msg("starting group sync")

	corr := Correlate(ctx, sourceGroups, targetGroups)
	stats.Skipped += corr.Malformed

	for _, src := range sourceGroups {
		stats.Processed++
		s.syncGroup(ctx, src, corr, stats)
	}

	for _, orphan := range corr.Orphans {
		s.deleteOrphan(ctx, orphan, stats)
	}

	stats.Log(ctx, "groups")
	return stats, nil
}

// syncGroup reconciles a single source group: skip, patch, or create.
func (s *Syncer) syncGroup(ctx context.Context, src directory.SourceGroup, corr Correlation, stats *Stats) {
	log := logging.FromContext(ctx)

	if missing := src.MissingFields(); len(missing) > 0 {
		log.Warn().
			Str("group", src.DisplayName).
			Strs("missing", missing).
			Msg("source group missing required attributes, skipping")
		stats.Skipped++
		return
	}

	if tgt, ok := corr.Pairs[src.StableID]; ok {
		stats.Matched++
		patch := Diff(src, *tgt)
		if len(patch) == 0 {
			log.Debug().Str("group", src.DisplayName).Msg("group in sync")
			return
		}

		log.Info().
			Str("group", src.DisplayName).
			Str("id", tgt.ID).
			Int("fields", len(patch)).
			Msg("updating group")

		if s.opts.DryRun {
			stats.Updated++
			return
		}
		if _, err := s.remote.PatchGroup(ctx, tgt.ID, patch); err != nil {
			log.Error().Err(err).Str("group", src.DisplayName).Msg("group update failed")
			stats.Errors++
			return
		}
		stats.Updated++
		s.pause(ctx)
		return
	}

	payload := directory.GroupPayload{
		Name:        src.DisplayName,
		Description: src.Description,
		ExternalID:  src.ExternalID().String(),
	}
	if label, ok := src.LabelHandle(); ok {
		payload.Label = label.String()
	}

	log.Info().
		Str("group", src.DisplayName).
		Str("external_id", payload.ExternalID).
		Msg("creating group")

	if s.opts.DryRun {
		stats.Created++
		return
	}
	created, err := s.remote.CreateGroup(ctx, payload)
	if err != nil {
		log.Error().Err(err).Str("group", src.DisplayName).Msg("group create failed")
		stats.Errors++
		return
	}
	log.Info().Str("group", src.DisplayName).Str("id", created.ID).Msg("group created")
	stats.Created++
	s.pause(ctx)
}

// deleteOrphan removes a sync-tagged target group whose stableId no longer
// exists in the source. Correlate only ever yields tagged orphans, so
// anything reaching here is safe to delete.
func (s *Syncer) deleteOrphan(ctx context.Context, orphan directory.TargetGroup, stats *Stats) {
	log := logging.FromContext(ctx)

	log.Info().
		Str("group", orphan.Name).
		Str("id", orphan.ID).
		Str("external_id", orphan.ExternalID).
		Msg("deleting orphaned group")

	if s.opts.DryRun {
		stats.Deleted++
		return
	}
	removed, err := s.remote.DeleteGroup(ctx, orphan.ID)
	if err != nil {
		log.Error().Err(err).Str("group", orphan.Name).Msg("group delete failed")
		stats.Errors++
		return
	}
	if !removed {
		log.Warn().Str("group", orphan.Name).Msg("group was not removed, possibly already gone")
	} else {
		stats.Deleted++
	}
	s.pause(ctx)
}

// SyncMembership converges member lists for every sync-tagged target group
// that pairs with a source group. The target snapshot must be re-fetched
// after SyncGroups and before this call: membership for a freshly created
// group needs its assigned id.
//
// Empty source-group, target-group, or target-user snapshots are fatal
// preconditions. Everything else is fail-soft per entity.
func (s *Syncer) SyncMembership(ctx context.Context, sourceGroups []directory.SourceGroup, targetGroups []directory.TargetGroup, targetUsers []directory.TargetUser) (*Stats, error) {
	ctx = logging.WithPhase(ctx, "membership")
	log := logging.FromContext(ctx)
	stats := &Stats{}

	switch {
	case len(sourceGroups) == 0:
		return stats, errors.NewSyncError("membership", "", errors.ErrEmptySnapshot)
	case len(targetGroups) == 0:
		return stats, errors.NewSyncError("membership", "", errors.ErrEmptySnapshot)
	case len(targetUsers) == 0:
		return stats, errors.NewSyncError("membership", "", errors.ErrEmptySnapshot)
	}

	idx := NewAliasIndex(targetUsers)
	for _, c := range idx.Conflicts() {
		log.Warn().
			Str("handle", c.Handle.String()).
			Str("kept", c.KeptID).
			Str("duplicate", c.DupID).
			Msg("handle claimed by two target users, keeping first")
	}

	log.Info().
		Int("source_groups", len(sourceGroups)).
		Int("target_groups", len(targetGroups)).
		Int("target_users", len(targetUsers)).
		Int("handles", idx.Len()).
		Int("aliases", idx.AliasCount()).
		Bool("dry_run", s.opts.DryRun).
		Msg("starting membership sync")

	sourceByID := make(map[string]directory.SourceGroup, len(sourceGroups))
	for _, src := range sourceGroups {
		if src.StableID != "" {
			sourceByID[src.StableID] = src
		}
	}

	for _, tgt := range targetGroups {
		if !tgt.SyncTagged() {
			continue
		}
		ext, err := directory.ParseExternalID(tgt.ExternalID)
		if err != nil {
			logging.FromContext(ctx).Warn().
				Str("group", tgt.Name).
				Str("external_id", tgt.ExternalID).
				Msg("malformed externalId, skipping group")
			stats.Processed++
			stats.Skipped++
			continue
		}
		if !ext.Tagged() {
			continue
		}
		stats.Processed++

		src, ok := sourceByID[ext.StableID]
		if !ok {
			logging.FromContext(ctx).Warn().
				Str("group", tgt.Name).
				Str("stable_id", ext.StableID).
				Msg("no source group for tagged target group, skipping")
			stats.Skipped++
			continue
		}
		stats.Matched++

		s.syncGroupMembers(logging.WithGroup(ctx, tgt.Name), src, tgt, idx, stats)
	}

	stats.Log(ctx, "membership")
	return stats, nil
}

// syncGroupMembers reconciles one group's member list.
func (s *Syncer) syncGroupMembers(ctx context.Context, src directory.SourceGroup, tgt directory.TargetGroup, idx *AliasIndex, stats *Stats) {
	log := logging.FromContext(ctx)

	current, err := s.remote.GroupMembers(ctx, tgt.ID)
	if err != nil {
		log.Error().Err(err).Msg("fetching group members failed")
		stats.Errors++
		return
	}

	if s.snapshots != nil {
		if err := s.snapshots.WriteSnapshot(tgt.Name, current); err != nil {
			log.Warn().Err(err).Msg("member snapshot not written")
		}
	}

	wanted, err := s.members.Members(src)
	if err != nil {
		log.Error().Err(err).Msg("reading source membership failed")
		stats.Errors++
		return
	}
	if len(wanted) == 0 {
		log.Warn().Msg("source membership empty or export missing, skipping group")
		stats.Skipped++
		return
	}

	plan := PlanMembership(current, wanted, idx)
	for _, h := range plan.NotFound {
		log.Warn().Str("handle", h.String()).Msg("handle not found among target users")
	}
	stats.NotFound += len(plan.NotFound)

	if plan.InSync() {
		log.Debug().Msg("membership in sync")
		return
	}

	log.Info().
		Int("current", len(current)).
		Int("wanted", len(wanted)).
		Int("to_add", len(plan.Add)).
		Int("to_remove", len(plan.Remove)).
		Msg("membership drift detected")

	for _, change := range plan.Add {
		s.addMember(ctx, tgt, change, stats)
	}
	for _, change := range plan.Remove {
		s.removeMember(ctx, tgt, change, stats)
	}
}

func (s *Syncer) addMember(ctx context.Context, tgt directory.TargetGroup, change MemberChange, stats *Stats) {
	log := logging.FromContext(ctx)

	log.Info().Str("handle", change.Handle.String()).Str("user_id", change.UserID).Msg("adding member")
	if s.opts.DryRun {
		stats.MembersAdded++
		return
	}
	added, err := s.remote.AddMember(ctx, tgt.ID, directory.MemberTypeUser, change.UserID)
	if err != nil {
		log.Error().Err(err).Str("handle", change.Handle.String()).Msg("adding member failed")
		stats.Errors++
		return
	}
	if added {
		stats.MembersAdded++
	} else {
		log.Debug().Str("handle", change.Handle.String()).Msg("user already a member")
	}
	s.pause(ctx)
}

func (s *Syncer) removeMember(ctx context.Context, tgt directory.TargetGroup, change MemberChange, stats *Stats) {
	log := logging.FromContext(ctx)

	log.Info().Str("handle", change.Handle.String()).Str("user_id", change.UserID).Msg("removing member")
	if s.opts.DryRun {
		stats.MembersRemoved++
		return
	}
	removed, err := s.remote.RemoveMember(ctx, tgt.ID, directory.MemberTypeUser, change.UserID)
	if err != nil {
		log.Error().Err(err).Str("handle", change.Handle.String()).Msg("removing member failed")
		stats.Errors++
		return
	}
	if removed {
		stats.MembersRemoved++
	} else {
		log.Debug().Str("handle", change.Handle.String()).Msg("user was not a member")
	}
	s.pause(ctx)
}

// pause waits the configured delay between mutating remote calls. Skipped
// entirely in dry-run mode.
func (s *Syncer) pause(ctx context.Context) {
	if s.opts.DryRun || s.opts.Pause <= 0 {
		return
	}
	clock := s.opts.Clock
	select {
	case <-clock.After(s.opts.Pause):
	case <-ctx.Done():
	}
}
