package api360

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/retry"
)

func testClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []Option{
		WithBaseURL(server.URL),
		WithRetryPolicy(retry.Policy{Attempts: 3, Delay: 0}),
	}
	return New("42", "test-token", append(base, opts...)...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGroupsPagination(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OAuth test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/directory/v1/org/42/groups", r.URL.Path)

		switch r.URL.Query().Get("page") {
		case "1":
			writeJSON(t, w, map[string]any{
				"groups": []map[string]any{
					{"id": 10, "name": "Engineering", "label": "eng", "externalId": "DDG;G1", "membersCount": 3},
				},
				"page": 1, "pages": 2,
			})
		case "2":
			writeJSON(t, w, map[string]any{
				"groups": []map[string]any{
					{"id": 11, "name": "Manual"},
				},
				"page": 2, "pages": 2,
			})
		default:
			t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	c := testClient(t, handler)
	groups, err := c.Groups(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, directory.TargetGroup{
		ID: "10", ExternalID: "DDG;G1", Name: "Engineering", Label: "eng", MemberCount: 3,
	}, groups[0])
	assert.Equal(t, "11", groups[1].ID)
}

func TestUsersFiltersRobotsAndPortalAccounts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"users": []map[string]any{
				{"id": "1130000000000001", "nickname": "alice", "aliases": []string{"a.smith"}},
				{"id": "1130000000000002", "nickname": "robot", "isRobot": true},
				{"id": "999", "nickname": "portal"},
				{"id": "not-a-number", "nickname": "weird"},
			},
			"page": 1, "pages": 1,
		})
	})

	c := testClient(t, handler)
	users, err := c.Users(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Nickname)
	assert.Equal(t, []string{"a.smith"}, users[0].Aliases)
}

func TestUsersCacheHonorsTTL(t *testing.T) {
	fetches := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		writeJSON(t, w, map[string]any{
			"users": []map[string]any{
				{"id": "1130000000000001", "nickname": "alice"},
			},
			"page": 1, "pages": 1,
		})
	})

	clock := clockwork.NewFakeClock()
	c := testClient(t, handler, WithClock(clock), WithUserCacheTTL(15*time.Minute))

	_, err := c.Users(context.Background())
	require.NoError(t, err)
	_, err = c.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetches, "second call within TTL must hit the cache")

	clock.Advance(16 * time.Minute)
	_, err = c.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "stale cache must refetch")

	_, err = c.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fetches, "explicit refresh must refetch")
}

func TestCreateGroup(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Engineering", body["name"])
		assert.Equal(t, "DDG;G1", body["externalId"])

		writeJSON(t, w, map[string]any{
			"id": 77, "name": "Engineering", "label": "eng", "externalId": "DDG;G1",
		})
	})

	c := testClient(t, handler)
	created, err := c.CreateGroup(context.Background(), directory.GroupPayload{
		Name: "Engineering", Label: "eng", ExternalID: "DDG;G1",
	})

	require.NoError(t, err)
	assert.Equal(t, "77", created.ID)
	assert.Equal(t, "DDG;G1", created.ExternalID)
}

func TestDeleteGroupRemovedFlag(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/directory/v1/org/42/groups/77", r.URL.Path)
		writeJSON(t, w, map[string]any{"id": 77, "removed": false})
	})

	c := testClient(t, handler)
	removed, err := c.DeleteGroup(context.Background(), "77")

	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeleteGroupRejectsNonNumericID(t *testing.T) {
	c := testClient(t, http.NotFoundHandler())
	_, err := c.DeleteGroup(context.Background(), "abc")
	assert.True(t, errors.IsValidation(err))
}

func TestGroupMembersReturnsOnlyUsers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directory/v1/org/42/groups/10/members", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"users": []map[string]any{
				{"id": "1130000000000001", "nickname": "alice"},
			},
			"groups":      []map[string]any{{"id": 5, "name": "Nested"}},
			"departments": []map[string]any{{"id": 2, "name": "HR"}},
		})
	})

	c := testClient(t, handler)
	members, err := c.GroupMembers(context.Background(), "10")

	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Nickname)
}

func TestAddAndRemoveMemberFlags(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body memberPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "user", body.Type)
			writeJSON(t, w, map[string]any{"id": body.ID, "type": "user", "added": true})
		case http.MethodDelete:
			assert.Equal(t, "/directory/v1/org/42/groups/10/members/user/111", r.URL.Path)
			writeJSON(t, w, map[string]any{"id": "111", "type": "user", "deleted": false})
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	})

	c := testClient(t, handler)

	added, err := c.AddMember(context.Background(), "10", directory.MemberTypeUser, "111")
	require.NoError(t, err)
	assert.True(t, added)

	removed, err := c.RemoveMember(context.Background(), "10", directory.MemberTypeUser, "111")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestServerErrorsAreRetried(t *testing.T) {
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "try later", http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, map[string]any{"groups": []map[string]any{}, "page": 1, "pages": 1})
	})

	c := testClient(t, handler)
	_, err := c.Groups(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "no such group", http.StatusNotFound)
	})

	c := testClient(t, handler)
	_, err := c.GroupMembers(context.Background(), "10")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCheckToken(t *testing.T) {
	for _, tc := range []struct {
		status int
		ok     bool
	}{
		{http.StatusOK, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
	} {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			c := testClient(t, handler)

			err := c.CheckToken(context.Background())
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsTokenInvalid(err))
			}
		})
	}
}
