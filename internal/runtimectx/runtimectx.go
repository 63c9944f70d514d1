// Package runtimectx captures the single immutable snapshot of the invoking
// host that every other pipeline stage reads from: the user/group identity
// to mirror into the container, the working directory, the process id used
// for container-name uniqueness, the auto-detected project directory, and
// whether stdin is a tty.
package runtimectx

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"golang.org/x/term"

	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/util"
)

// projectMarker is the config file name whose presence marks a candidate
// project root during upward auto-detection.
const projectMarker = ".ctenv.toml"

// Context is the immutable runtime snapshot. It is captured exactly once
// per invocation and never mutated afterward; every later stage (config
// loading, template substitution, spec resolution) reads from it.
type Context struct {
	UserName  string
	UserID    int
	UserHome  string
	GroupName string
	GroupID   int
	Cwd       string
	PID       int
	// ProjectDir is the auto-detected project root: the nearest ancestor
	// of Cwd (inclusive) containing a .ctenv.toml, stopping at (never
	// entering) the user's home directory and never crossing a mount
	// boundary. Falls back to Cwd if no marker is found.
	ProjectDir string
	TTY        bool
}

// Capture snapshots the current process's identity and environment.
func Capture() (*Context, error) {
	u, err := user.Current()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindPath, "cannot determine current user")
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, cerrors.Wrapf(err, cerrors.KindPath, "unparseable uid %q", u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, cerrors.Wrapf(err, cerrors.KindPath, "unparseable gid %q", u.Gid)
	}
	groupName := u.Gid
	if g, gerr := user.LookupGroupId(u.Gid); gerr == nil {
		groupName = g.Name
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindPath, "cannot determine working directory")
	}
	cwd, err = util.RealPath(cwd)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindPath, "cannot resolve working directory")
	}

	return &Context{
		UserName:   u.Username,
		UserID:     uid,
		UserHome:   u.HomeDir,
		GroupName:  groupName,
		GroupID:    gid,
		Cwd:        cwd,
		PID:        os.Getpid(),
		ProjectDir: detectProjectDir(cwd, u.HomeDir),
		TTY:        term.IsTerminal(int(os.Stdin.Fd())),
	}, nil
}

// detectProjectDir walks upward from cwd looking for a .ctenv.toml marker,
// stopping at (never entering) home and never crossing a mount boundary.
// It falls back to cwd itself when no marker is found, since auto-detection
// is a convenience, not a requirement — a project with no config file is
// still a valid invocation target.
func detectProjectDir(cwd, home string) string {
	stopAt := home
	if stopAt == "" {
		stopAt = filepath.Dir(cwd)
	}
	found := util.WalkUpForFile(cwd, projectMarker, stopAt)
	if found == "" {
		return cwd
	}
	return filepath.Dir(found)
}
