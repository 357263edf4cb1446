package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/sync"
)

func TestCorrelatePairsTaggedGroups(t *testing.T) {
	source := []directory.SourceGroup{
		{StableID: "G1", DisplayName: "Sales", Mail: "sales@x"},
		{StableID: "G2", DisplayName: "Engineering", Mail: "eng@x"},
	}
	target := []directory.TargetGroup{
		{ID: "10", ExternalID: "DDG;G1", Name: "Sales"},
		{ID: "11", ExternalID: "DDG;G3", Name: "Old Team"},
		{ID: "12", ExternalID: "HR;G2", Name: "Payroll"},
		{ID: "13", Name: "Manually Created"},
	}

	corr := sync.Correlate(context.Background(), source, target)

	require.Len(t, corr.Pairs, 2)
	assert.Equal(t, "10", corr.Pairs["G1"].ID)
	assert.Equal(t, "11", corr.Pairs["G3"].ID)

	// Only the tagged group with no source counterpart is an orphan; foreign
	// and untagged groups are out of scope entirely.
	require.Len(t, corr.Orphans, 1)
	assert.Equal(t, "11", corr.Orphans[0].ID)
	assert.Equal(t, 0, corr.Malformed)
}

func TestCorrelateMalformedExternalID(t *testing.T) {
	target := []directory.TargetGroup{
		{ID: "10", ExternalID: "DDG", Name: "No Delimiter"},
		{ID: "11", ExternalID: "DDG;", Name: "No Suffix"},
		{ID: "12", ExternalID: "DDG;G1", Name: "Fine"},
	}

	corr := sync.Correlate(context.Background(), []directory.SourceGroup{{StableID: "G1"}}, target)

	assert.Equal(t, 2, corr.Malformed)
	assert.Len(t, corr.Pairs, 1)
	assert.Empty(t, corr.Orphans)
}

func TestCorrelateDuplicateExternalIDKeepsFirst(t *testing.T) {
	target := []directory.TargetGroup{
		{ID: "10", ExternalID: "DDG;G1"},
		{ID: "11", ExternalID: "DDG;G1"},
	}

	corr := sync.Correlate(context.Background(), []directory.SourceGroup{{StableID: "G1"}}, target)

	require.Len(t, corr.Pairs, 1)
	assert.Equal(t, "10", corr.Pairs["G1"].ID)
}

func TestCorrelateLongerTagSharingPrefixIsForeign(t *testing.T) {
	target := []directory.TargetGroup{
		{ID: "10", ExternalID: "DDGX;G1"},
	}

	corr := sync.Correlate(context.Background(), nil, target)

	assert.Empty(t, corr.Pairs)
	assert.Empty(t, corr.Orphans)
	assert.Equal(t, 0, corr.Malformed)
}

func TestCorrelateEmptyTarget(t *testing.T) {
	corr := sync.Correlate(context.Background(), []directory.SourceGroup{{StableID: "G1"}}, nil)

	assert.Empty(t, corr.Pairs)
	assert.Empty(t, corr.Orphans)
}
