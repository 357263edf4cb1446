// Package ldap reads the authoritative source directory: dynamic
// distribution groups and person entries. Group snapshots feed the sync
// engine; a fetch failure here is fatal for the run because syncing against
// a partial source would delete groups that still exist.
package ldap

import (
	"context"
	"fmt"

	ldapv3 "github.com/go-ldap/ldap/v3"

	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// Well-known attribute and class names in the source directory schema.
const (
	attrObjectClass = "objectClass"
	attrObjectGUID  = "objectGUID"
	attrCN          = "cn"
	attrDisplayName = "displayName"
	attrMail        = "mail"
	attrDescription = "description"

	classDynamicGroup = "msExchDynamicDistributionList"
	classPerson       = "person"
)

// DefaultGroupAttributes are requested for group entries when the config
// does not override the list.
var DefaultGroupAttributes = []string{
	attrObjectClass, attrObjectGUID, attrCN, attrDisplayName, attrMail, attrDescription,
}

// DefaultUserAttributes are requested for person entries.
var DefaultUserAttributes = []string{
	attrObjectClass, attrCN, attrDisplayName, attrMail,
}

// Config holds the connection and search parameters for the source
// directory.
type Config struct {
	Host     string
	Port     int
	UseTLS   bool
	BindDN   string
	Password string

	GroupBaseDN     string
	GroupFilter     string
	GroupAttributes []string

	UserBaseDN     string
	UserFilter     string
	UserAttributes []string
}

// searcher is the slice of the LDAP connection the source uses. The real
// implementation is *ldapv3.Conn.
type searcher interface {
	Search(*ldapv3.SearchRequest) (*ldapv3.SearchResult, error)
	Close() error
}

// Source fetches snapshots from the source directory. Every fetch opens a
// fresh connection; the engine runs infrequently enough that pooling buys
// nothing.
type Source struct {
	cfg  Config
	dial func(cfg Config) (searcher, error)
}

// New creates a Source for the given configuration.
func New(cfg Config) *Source {
	if len(cfg.GroupAttributes) == 0 {
		cfg.GroupAttributes = DefaultGroupAttributes
	}
	if len(cfg.UserAttributes) == 0 {
		cfg.UserAttributes = DefaultUserAttributes
	}
	if cfg.GroupFilter == "" {
		cfg.GroupFilter = "(objectClass=" + classDynamicGroup + ")"
	}
	if cfg.UserFilter == "" {
		cfg.UserFilter = "(objectClass=" + classPerson + ")"
	}
	return &Source{cfg: cfg, dial: dialAndBind}
}

func dialAndBind(cfg Config) (searcher, error) {
	scheme := "ldap"
	if cfg.UseTLS {
		scheme = "ldaps"
	}
	url := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)

	conn, err := ldapv3.DialURL(url)
	if err != nil {
		return nil, errors.WrapAPI(url, 0, err)
	}
	if err := conn.Bind(cfg.BindDN, cfg.Password); err != nil {
		_ = conn.Close()
		return nil, errors.WrapAPI(url, 0, err)
	}
	return conn, nil
}

// Groups fetches the dynamic distribution groups from the source directory
// as immutable SourceGroup snapshots.
func (s *Source) Groups(ctx context.Context) ([]directory.SourceGroup, error) {
	log := logging.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := s.dial(s.cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	log.Info().
		Str("base_dn", s.cfg.GroupBaseDN).
		Str("filter", s.cfg.GroupFilter).
		Msg("searching source directory for groups")

	result, err := conn.Search(ldapv3.NewSearchRequest(
		s.cfg.GroupBaseDN,
		ldapv3.ScopeWholeSubtree, ldapv3.NeverDerefAliases, 0, 0, false,
		s.cfg.GroupFilter,
		s.cfg.GroupAttributes,
		nil,
	))
	if err != nil {
		return nil, errors.WrapAPI(s.cfg.GroupBaseDN, 0, err)
	}

	groups := make([]directory.SourceGroup, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if !hasObjectClass(entry, classDynamicGroup) {
			continue
		}
		groups = append(groups, groupFromEntry(entry))
	}

	log.Info().
		Int("entries", len(result.Entries)).
		Int("groups", len(groups)).
		Msg("fetched source groups")
	return groups, nil
}

// Person is a source directory user entry, retained for diagnostics.
type Person struct {
	DN          string
	CN          string
	DisplayName string
	Mail        string
}

// Users fetches person entries from the source directory.
func (s *Source) Users(ctx context.Context) ([]Person, error) {
	log := logging.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := s.dial(s.cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	log.Info().
		Str("base_dn", s.cfg.UserBaseDN).
		Str("filter", s.cfg.UserFilter).
		Msg("searching source directory for users")

	result, err := conn.Search(ldapv3.NewSearchRequest(
		s.cfg.UserBaseDN,
		ldapv3.ScopeWholeSubtree, ldapv3.NeverDerefAliases, 0, 0, false,
		s.cfg.UserFilter,
		s.cfg.UserAttributes,
		nil,
	))
	if err != nil {
		return nil, errors.WrapAPI(s.cfg.UserBaseDN, 0, err)
	}

	users := make([]Person, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if !hasObjectClass(entry, classPerson) {
			continue
		}
		users = append(users, Person{
			DN:          entry.DN,
			CN:          entry.GetAttributeValue(attrCN),
			DisplayName: entry.GetAttributeValue(attrDisplayName),
			Mail:        entry.GetAttributeValue(attrMail),
		})
	}

	log.Info().Int("users", len(users)).Msg("fetched source users")
	return users, nil
}

func hasObjectClass(entry *ldapv3.Entry, class string) bool {
	for _, v := range entry.GetAttributeValues(attrObjectClass) {
		if v == class {
			return true
		}
	}
	return false
}

// groupFromEntry maps a directory entry to a SourceGroup. The cn stands in
// for an empty displayName, matching the export tooling that names roster
// files after it.
func groupFromEntry(entry *ldapv3.Entry) directory.SourceGroup {
	name := entry.GetAttributeValue(attrDisplayName)
	if name == "" {
		name = entry.GetAttributeValue(attrCN)
	}
	return directory.SourceGroup{
		StableID:    stableID(entry),
		DisplayName: name,
		Mail:        entry.GetAttributeValue(attrMail),
		Description: entry.GetAttributeValue(attrDescription),
	}
}

// stableID extracts the entry's objectGUID. The attribute arrives as 16 raw
// bytes; anything else is passed through as-is.
func stableID(entry *ldapv3.Entry) string {
	raw := entry.GetRawAttributeValue(attrObjectGUID)
	if len(raw) != 16 {
		return entry.GetAttributeValue(attrObjectGUID)
	}
	return guidString(raw)
}

// guidString formats 16 raw objectGUID bytes in the directory's canonical
// form: the first three fields are little-endian, the rest big-endian.
func guidString(b []byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9],
		b[10], b[11], b[12], b[13], b[14], b[15])
}
