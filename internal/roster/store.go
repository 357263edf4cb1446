// Package roster reads membership export files and writes diagnostic
// member snapshots. Exports are produced by legacy directory tooling, so
// the reader tolerates their quirks: semicolon delimiters, quoted values,
// and non-UTF-8 encodings.
package roster

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// Supported values for the export file encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"
	EncodingKOI8R       = "koi8-r"
)

// Store reads per-group membership export files from a directory. It
// implements the sync engine's MemberSource.
type Store struct {
	fs       afero.Fs
	dir      string
	prefix   string
	encoding string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFs replaces the filesystem, used by tests.
func WithFs(fs afero.Fs) StoreOption {
	return func(s *Store) { s.fs = fs }
}

// WithPrefix overrides the export filename prefix.
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// WithEncoding sets the export file encoding. Unrecognized values fall back
// to UTF-8 at read time.
func WithEncoding(enc string) StoreOption {
	return func(s *Store) { s.encoding = enc }
}

// NewStore creates a Store over the given export directory.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		fs:       afero.NewOsFs(),
		dir:      dir,
		prefix:   constants.RosterFilePrefix,
		encoding: EncodingUTF8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Filename returns the export filename for a group: the prefix plus the
// display name with spaces replaced by underscores.
func (s *Store) Filename(displayName string) string {
	return s.prefix + strings.ReplaceAll(displayName, " ", "_") + ".csv"
}

// Members reads the wanted membership of a source group from its export
// file. Addresses sit in the second column; the header row is skipped and
// values are stripped of surrounding quotes. A missing file is an empty
// membership, not an error: the export job may simply not cover the group.
func (s *Store) Members(group directory.SourceGroup) ([]directory.Handle, error) {
	log := logging.Default()

	if group.DisplayName == "" {
		return nil, &errors.ValidationError{
			Field:   "displayName",
			Message: "group has no display name, cannot locate export file",
		}
	}

	path := filepath.Join(s.dir, s.Filename(group.DisplayName))
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	if !exists {
		log.Warn().Str("group", group.DisplayName).Str("path", path).
			Msg("membership export not found, treating as empty")
		return nil, nil
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	handles, err := s.parse(f)
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}

	log.Info().
		Str("group", group.DisplayName).
		Str("path", path).
		Int("members", len(handles)).
		Msg("read membership export")
	return handles, nil
}

func (s *Store) parse(r io.Reader) ([]directory.Handle, error) {
	reader := csv.NewReader(s.decode(r))
	reader.Comma = constants.RosterDelimiter
	reader.FieldsPerRecord = -1

	var handles []directory.Handle
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(row) < 2 {
			continue
		}
		addr := strings.Trim(strings.TrimSpace(row[1]), `"'`)
		if addr == "" {
			continue
		}
		h, ok := directory.HandleFromAddress(addr)
		if !ok {
			continue
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// decode wraps the raw file reader in the configured charset decoder. UTF-8
// input may start with a BOM written by spreadsheet tools.
func (s *Store) decode(r io.Reader) io.Reader {
	var enc encoding.Encoding
	switch s.encoding {
	case EncodingWindows1251:
		enc = charmap.Windows1251
	case EncodingKOI8R:
		enc = charmap.KOI8R
	default:
		enc = unicode.UTF8BOM
	}
	return transform.NewReader(r, enc.NewDecoder())
}
