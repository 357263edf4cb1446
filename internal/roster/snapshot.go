package roster

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/directory"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// utf8BOM is prepended to snapshot files so spreadsheet tools pick the
// right charset when opening them.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Diagnostics writes per-group member snapshots for troubleshooting. It
// implements the sync engine's SnapshotWriter.
type Diagnostics struct {
	fs  afero.Fs
	dir string
}

// NewDiagnostics creates a Diagnostics writer rooted at dir.
func NewDiagnostics(dir string, opts ...DiagnosticsOption) *Diagnostics {
	d := &Diagnostics{
		fs:  afero.NewOsFs(),
		dir: dir,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiagnosticsOption configures a Diagnostics writer.
type DiagnosticsOption func(*Diagnostics)

// WithDiagnosticsFs replaces the filesystem, used by tests.
func WithDiagnosticsFs(fs afero.Fs) DiagnosticsOption {
	return func(d *Diagnostics) { d.fs = fs }
}

// WriteSnapshot writes the target-side member list of a group to
// <dir>/<safe group name>.csv.
func (d *Diagnostics) WriteSnapshot(groupName string, members []directory.TargetUser) error {
	if err := d.fs.MkdirAll(d.dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", d.dir, err)
	}

	path := filepath.Join(d.dir, safeFilename(groupName)+".csv")
	f, err := d.fs.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(utf8BOM); err != nil {
		return errors.WrapIO("write", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = constants.RosterDelimiter
	if err := w.Write([]string{"id", "nickname", "email", "name"}); err != nil {
		return errors.WrapIO("write", path, err)
	}
	for _, m := range members {
		if err := w.Write([]string{m.ID, m.Nickname, m.Email, m.Name}); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapIO("write", path, err)
	}

	logging.Default().Info().
		Str("group", groupName).
		Str("path", path).
		Int("members", len(members)).
		Msg("wrote member snapshot")
	return nil
}

// safeFilename strips characters that are unsafe in filenames and replaces
// spaces with underscores.
func safeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if safe == "" {
		return "unnamed_group"
	}
	return safe
}
