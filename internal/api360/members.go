package api360

import (
	"context"
	"net/http"

	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/logging"
)

// GroupMembers retrieves a group's member listing. Only user members are
// returned; nested groups and departments are outside the engine's scope.
func (c *Client) GroupMembers(ctx context.Context, id string) ([]directory.TargetUser, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return nil, err
	}
	var resp membersResponse
	if err := c.call(ctx, http.MethodGet, c.url("/groups/%d/members", gid), nil, &resp); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("group_id", id).
		Int("users", len(resp.Users)).
		Int("groups", len(resp.Groups)).
		Int("departments", len(resp.Departments)).
		Msg("fetched group members")

	members := make([]directory.TargetUser, 0, len(resp.Users))
	for _, u := range resp.Users {
		members = append(members, u.toTargetUser())
	}
	return members, nil
}

// AddMember adds a member to a group. The returned flag mirrors the added
// indicator: false without error means the member was already present.
func (c *Client) AddMember(ctx context.Context, groupID string, memberType directory.MemberType, memberID string) (bool, error) {
	gid, err := parseGroupID(groupID)
	if err != nil {
		return false, err
	}
	body := memberPayload{Type: string(memberType), ID: memberID}
	var resp memberChangeResponse
	if err := c.call(ctx, http.MethodPost, c.url("/groups/%d/members", gid), body, &resp); err != nil {
		return false, err
	}
	return resp.Added, nil
}

// RemoveMember removes a member from a group. The returned flag mirrors the
// deleted indicator: false without error means the member was not present.
func (c *Client) RemoveMember(ctx context.Context, groupID string, memberType directory.MemberType, memberID string) (bool, error) {
	gid, err := parseGroupID(groupID)
	if err != nil {
		return false, err
	}
	endpoint := c.url("/groups/%d/members/%s/%s", gid, string(memberType), memberID)
	var resp memberChangeResponse
	if err := c.call(ctx, http.MethodDelete, endpoint, nil, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}
