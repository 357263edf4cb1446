package api360

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// Groups retrieves every group in the organization, paging until the
// reported last page. The slice is fully materialized so callers can run
// multiple passes over one consistent snapshot.
func (c *Client) Groups(ctx context.Context) ([]directory.TargetGroup, error) {
	log := logging.FromContext(ctx)

	var groups []directory.TargetGroup
	page := 1
	pages := 1
	for page <= pages {
		endpoint := c.url("/groups?page=%d&perPage=%d", page, constants.GroupsPerPage)
		var resp groupsResponse
		if err := c.call(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, err
		}
		for _, g := range resp.Groups {
			groups = append(groups, g.toTargetGroup())
		}
		log.Debug().
			Int("page", page).
			Int("pages", resp.Pages).
			Int("groups", len(resp.Groups)).
			Msg("fetched group page")

		pages = resp.Pages
		page++
		if page > constants.MaxPages {
			return nil, errors.NewAPIError(endpoint, 0,
				fmt.Sprintf("group listing exceeded %d pages", constants.MaxPages))
		}
	}

	log.Info().Int("groups", len(groups)).Msg("fetched organization groups")
	return groups, nil
}

// CreateGroup creates a group and returns the service-assigned record.
func (c *Client) CreateGroup(ctx context.Context, payload directory.GroupPayload) (directory.TargetGroup, error) {
	body := groupPayload{
		Name:        payload.Name,
		Label:       payload.Label,
		Description: payload.Description,
		ExternalID:  payload.ExternalID,
	}
	var created apiGroup
	if err := c.call(ctx, http.MethodPost, c.url("/groups"), body, &created); err != nil {
		return directory.TargetGroup{}, err
	}
	return created.toTargetGroup(), nil
}

// PatchGroup applies a partial update to a group.
func (c *Client) PatchGroup(ctx context.Context, id string, patch directory.Patch) (directory.TargetGroup, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return directory.TargetGroup{}, err
	}
	var updated apiGroup
	if err := c.call(ctx, http.MethodPatch, c.url("/groups/%d", gid), patch, &updated); err != nil {
		return directory.TargetGroup{}, err
	}
	return updated.toTargetGroup(), nil
}

// DeleteGroup deletes a group. The returned flag mirrors the service's
// removed indicator: false without error means the group was already gone.
func (c *Client) DeleteGroup(ctx context.Context, id string) (bool, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return false, err
	}
	var resp groupDeleteResponse
	if err := c.call(ctx, http.MethodDelete, c.url("/groups/%d", gid), nil, &resp); err != nil {
		return false, err
	}
	return resp.Removed, nil
}

// parseGroupID parses the string group id used across the engine back into the
// service's numeric form.
func parseGroupID(id string) (int, error) {
	gid, err := strconv.Atoi(id)
	if err != nil {
		return 0, &errors.ValidationError{
			Field:   "groupId",
			Value:   id,
			Message: "not a numeric group id",
		}
	}
	return gid, nil
}
