package sync

import (
	"context"

	"github.com/teamdir/groupsync/pkg/logging"
)

// Stats is the counters record for one sync pass. It is freshly allocated
// per invocation, owned exclusively by the Syncer while the pass runs, and
// returned to the caller for reporting. Dry-run passes produce the same
// numbers a live pass would under the same snapshot.
type Stats struct {
	Processed      int // groups examined by the phase
	Matched        int // source groups paired with a target group
	Created        int
	Updated        int
	Deleted        int
	Skipped        int // missing required fields or malformed correlation keys
	MembersAdded   int
	MembersRemoved int
	NotFound       int // source handles with no resolvable target user
	Errors         int // entity-level remote failures absorbed fail-soft
}

// OK reports whether the pass completed without any entity-level error.
func (s *Stats) OK() bool {
	return s.Errors == 0
}

// Changed reports whether the pass decided on any mutation.
func (s *Stats) Changed() bool {
	return s.Created > 0 || s.Updated > 0 || s.Deleted > 0 ||
		s.MembersAdded > 0 || s.MembersRemoved > 0
}

// Log emits the phase summary at the appropriate levels: info for the
// totals, warn for skips and unresolved handles, error for failures.
func (s *Stats) Log(ctx context.Context, phase string) {
	log := logging.FromContext(ctx)

	log.Info().
		Str("phase", phase).
		Int("processed", s.Processed).
		Int("matched", s.Matched).
		Int("created", s.Created).
		Int("updated", s.Updated).
		Int("deleted", s.Deleted).
		Int("members_added", s.MembersAdded).
		Int("members_removed", s.MembersRemoved).
		Msg("sync phase complete")

	if s.Skipped > 0 {
		log.Warn().Str("phase", phase).Int("skipped", s.Skipped).Msg("groups skipped")
	}
	if s.NotFound > 0 {
		log.Warn().Str("phase", phase).Int("not_found", s.NotFound).Msg("handles not found in target")
	}
	if s.Errors > 0 {
		log.Error().Str("phase", phase).Int("errors", s.Errors).Msg("sync phase finished with errors")
	}
}
