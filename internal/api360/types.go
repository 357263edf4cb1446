package api360

import (
	"strconv"

	"github.com/teamdir/groupsync/pkg/directory"
)

// Wire structures for the directory API.

type groupsResponse struct {
	Groups  []apiGroup `json:"groups"`
	Page    int        `json:"page"`
	Pages   int        `json:"pages"`
	PerPage int        `json:"perPage"`
	Total   int        `json:"total"`
}

type apiGroup struct {
	ID           int    `json:"id"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Label        string `json:"label"`
	Description  string `json:"description"`
	ExternalID   string `json:"externalId"`
	MembersCount int    `json:"membersCount"`
}

func (g apiGroup) toTargetGroup() directory.TargetGroup {
	return directory.TargetGroup{
		ID:          strconv.Itoa(g.ID),
		ExternalID:  g.ExternalID,
		Name:        g.Name,
		Label:       g.Label,
		Description: g.Description,
		MemberCount: g.MembersCount,
	}
}

type usersResponse struct {
	Users   []apiUser `json:"users"`
	Page    int       `json:"page"`
	Pages   int       `json:"pages"`
	PerPage int       `json:"perPage"`
	Total   int       `json:"total"`
}

type apiUser struct {
	ID       string      `json:"id"`
	Nickname string      `json:"nickname"`
	Email    string      `json:"email"`
	Aliases  []string    `json:"aliases"`
	IsRobot  bool        `json:"isRobot"`
	Name     apiUserName `json:"name"`
}

type apiUserName struct {
	First  string `json:"first"`
	Last   string `json:"last"`
	Middle string `json:"middle"`
}

func (u apiUser) toTargetUser() directory.TargetUser {
	name := u.Name.Last
	if u.Name.First != "" {
		if name != "" {
			name += " "
		}
		name += u.Name.First
	}
	return directory.TargetUser{
		ID:       u.ID,
		Nickname: u.Nickname,
		Aliases:  u.Aliases,
		Email:    u.Email,
		Name:     name,
	}
}

type membersResponse struct {
	Users       []apiUser   `json:"users"`
	Groups      []apiGroup  `json:"groups"`
	Departments []apiMember `json:"departments"`
}

type apiMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// memberPayload is the add-member request body.
type memberPayload struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type memberChangeResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Added   bool   `json:"added"`
	Deleted bool   `json:"deleted"`
}

type groupDeleteResponse struct {
	ID      int  `json:"id"`
	Removed bool `json:"removed"`
}

// groupPayload is the create-group request body.
type groupPayload struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	ExternalID  string `json:"externalId,omitempty"`
}
