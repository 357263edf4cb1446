package api360

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// userCache holds the last fetched user snapshot. The full organization
// listing is expensive and the engine reads it more than once per run.
type userCache struct {
	users     []directory.TargetUser
	fetchedAt time.Time
	maxAge    time.Duration
}

func (uc *userCache) fresh(now time.Time) bool {
	return uc.users != nil && now.Sub(uc.fetchedAt) <= uc.maxAge
}

// Users retrieves the organization's user accounts, serving from the cache
// while it is fresh. Robot accounts and ids below the cloud-uid floor are
// filtered out: those are service artifacts the sync must never touch.
func (c *Client) Users(ctx context.Context) ([]directory.TargetUser, error) {
	now := c.clock.Now()
	if c.users.fresh(now) {
		logging.FromContext(ctx).Debug().
			Int("users", len(c.users.users)).
			Msg("serving user snapshot from cache")
		return c.users.users, nil
	}

	users, err := c.fetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	c.users.users = users
	c.users.fetchedAt = now
	return users, nil
}

// RefreshUsers drops the cache and fetches a fresh snapshot.
func (c *Client) RefreshUsers(ctx context.Context) ([]directory.TargetUser, error) {
	c.users.users = nil
	return c.Users(ctx)
}

func (c *Client) fetchUsers(ctx context.Context) ([]directory.TargetUser, error) {
	log := logging.FromContext(ctx)

	var users []directory.TargetUser
	filtered := 0
	page := 1
	pages := 1
	for page <= pages {
		endpoint := c.url("/users?page=%d&perPage=%d", page, constants.UsersPerPage)
		var resp usersResponse
		if err := c.call(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, err
		}
		for _, u := range resp.Users {
			if !cloudAccount(u) {
				filtered++
				continue
			}
			users = append(users, u.toTargetUser())
		}
		log.Debug().
			Int("page", page).
			Int("pages", resp.Pages).
			Int("users", len(resp.Users)).
			Msg("fetched user page")

		pages = resp.Pages
		page++
		if page > constants.MaxPages {
			return nil, errors.NewAPIError(endpoint, 0,
				fmt.Sprintf("user listing exceeded %d pages", constants.MaxPages))
		}
	}

	log.Info().
		Int("users", len(users)).
		Int("filtered", filtered).
		Msg("fetched organization users")
	return users, nil
}

// cloudAccount reports whether an account is a regular cloud user rather
// than a robot or a portal artifact.
func cloudAccount(u apiUser) bool {
	if u.IsRobot {
		return false
	}
	id, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return false
	}
	return id >= constants.MinCloudUserID
}
