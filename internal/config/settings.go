// Package config loads and validates the engine's runtime settings from the
// environment, an optional .env file, and an optional config file.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teamdir/groupsync/internal/ldap"
	"github.com/teamdir/groupsync/internal/roster"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// Settings holds everything a sync run needs to connect to both
// directories and find its roster files.
type Settings struct {
	// Target directory API.
	APIBaseURL string
	OrgID      string
	OAuthToken string

	// Source directory.
	LDAPHost          string
	LDAPPort          int
	LDAPSEnabled      bool
	LDAPUser          string
	LDAPPassword      string
	GroupBaseDN       string
	GroupSearchFilter string
	GroupAttributes   []string
	UserBaseDN        string
	UserSearchFilter  string
	UserAttributes    []string

	// Roster files.
	RosterDir      string
	RosterEncoding string
	RosterPrefix   string

	// Diagnostics.
	DiagnosticsEnabled bool
	DiagnosticsDir     string

	// Run mode.
	DryRun bool
}

// Keys read from the environment or config file.
const (
	keyOAuthToken     = "OAUTH_TOKEN"
	keyOrgID          = "ORG_ID"
	keyAPIBaseURL     = "API_BASE_URL"
	keyLDAPHost       = "LDAP_HOST"
	keyLDAPPort       = "LDAP_PORT"
	keyLDAPSEnabled   = "LDAPS_ENABLED"
	keyLDAPUser       = "LDAP_USER"
	keyLDAPPassword   = "LDAP_PASSWORD"
	keyGroupBaseDN    = "LDAP_GROUP_BASE_DN"
	keyGroupFilter    = "LDAP_GROUP_SEARCH_FILTER"
	keyGroupAttribs   = "ATTRIB_GROUP_LIST"
	keyUserBaseDN     = "LDAP_USER_BASE_DN"
	keyUserFilter     = "LDAP_USER_SEARCH_FILTER"
	keyUserAttribs    = "ATTRIB_USER_LIST"
	keyRosterDir      = "GROUPS_MEMBERS_FILE_DIR"
	keyRosterEncoding = "GROUPS_MEMBERS_FILE_ENCODING"
	keyRosterPrefix   = "GROUPS_MEMBERS_FILE_PREFIX"
	keyDiagnostics    = "ENABLE_DIAGNOSTICS"
	keyDiagnosticsDir = "GROUP_MEMBERS_DIAG_DIR"
	keyDryRun         = "DRY_RUN"
)

// Load reads settings from the environment. A .env file in the working
// directory is merged in first when present; configFile, if non-empty,
// names an additional viper config file. Validation collects every missing
// required key so one run reports the whole problem.
func Load(configFile string) (*Settings, error) {
	if err := godotenv.Load(); err == nil {
		logging.Default().Debug().Msg("loaded .env file")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(keyAPIBaseURL, "")
	v.SetDefault(keyLDAPPort, 389)
	v.SetDefault(keyRosterDir, ".")
	v.SetDefault(keyRosterEncoding, roster.EncodingUTF8)
	v.SetDefault(keyRosterPrefix, "")
	v.SetDefault(keyDiagnosticsDir, "./diagnostics")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading config file "+configFile, err)
		}
	}

	s := &Settings{
		APIBaseURL: v.GetString(keyAPIBaseURL),
		OrgID:      v.GetString(keyOrgID),
		OAuthToken: v.GetString(keyOAuthToken),

		LDAPHost:          v.GetString(keyLDAPHost),
		LDAPPort:          v.GetInt(keyLDAPPort),
		LDAPSEnabled:      v.GetBool(keyLDAPSEnabled),
		LDAPUser:          v.GetString(keyLDAPUser),
		LDAPPassword:      v.GetString(keyLDAPPassword),
		GroupBaseDN:       v.GetString(keyGroupBaseDN),
		GroupSearchFilter: v.GetString(keyGroupFilter),
		GroupAttributes:   splitList(v.GetString(keyGroupAttribs)),
		UserBaseDN:        v.GetString(keyUserBaseDN),
		UserSearchFilter:  v.GetString(keyUserFilter),
		UserAttributes:    splitList(v.GetString(keyUserAttribs)),

		RosterDir:      v.GetString(keyRosterDir),
		RosterEncoding: v.GetString(keyRosterEncoding),
		RosterPrefix:   v.GetString(keyRosterPrefix),

		DiagnosticsEnabled: v.GetBool(keyDiagnostics),
		DiagnosticsDir:     v.GetString(keyDiagnosticsDir),

		DryRun: v.GetBool(keyDryRun),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports every missing required setting at once.
func (s *Settings) Validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{keyOAuthToken, s.OAuthToken},
		{keyOrgID, s.OrgID},
		{keyLDAPHost, s.LDAPHost},
		{keyLDAPUser, s.LDAPUser},
		{keyLDAPPassword, s.LDAPPassword},
		{keyGroupBaseDN, s.GroupBaseDN},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if s.LDAPPort <= 0 {
		missing = append(missing, keyLDAPPort)
	}

	if len(missing) > 0 {
		return errors.NewConfigError("settings",
			"missing required settings: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// LDAPConfig derives the source directory configuration.
func (s *Settings) LDAPConfig() ldap.Config {
	return ldap.Config{
		Host:            s.LDAPHost,
		Port:            s.LDAPPort,
		UseTLS:          s.LDAPSEnabled,
		BindDN:          s.LDAPUser,
		Password:        s.LDAPPassword,
		GroupBaseDN:     s.GroupBaseDN,
		GroupFilter:     s.GroupSearchFilter,
		GroupAttributes: s.GroupAttributes,
		UserBaseDN:      s.UserBaseDN,
		UserFilter:      s.UserSearchFilter,
		UserAttributes:  s.UserAttributes,
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
