package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, ".ctenv.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFile_DefaultsAndContainers(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
image = "alpine:3"
network = "bridge"

[containers.dev]
image = "dev-image"
default = true

[containers.ci]
image = "ci-image"
`)

	lf, err := LoadFile(path)
	require.NoError(t, err)

	img, ok := lf.Defaults.Image.Get()
	require.True(t, ok)
	assert.Equal(t, "alpine:3", img)

	require.Contains(t, lf.Containers, "dev")
	devImg, ok := lf.Containers["dev"].Image.Get()
	require.True(t, ok)
	assert.Equal(t, "dev-image", devImg)
	isDefault, ok := lf.Containers["dev"].Default.Get()
	require.True(t, ok)
	assert.True(t, isDefault)
}

func TestLoadFile_NotsetLiteralParsesToUnset(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
image = "NOTSET"
`)
	lf, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, lf.Defaults.Image.IsUnset())
}

func TestLoadFile_UnknownTopLevelKeyRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
image = "alpine:3"

[bogus]
foo = 1
`)
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
not_a_real_field = "x"
`)
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_RelativePathsResolveAgainstFileDir(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
project_dir = "subdir"
`)
	lf, err := LoadFile(path)
	require.NoError(t, err)
	pd, ok := lf.Defaults.ProjectDir.Get()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "subdir"), pd)
}

func TestLoadFile_WorkdirAutoNotResolvedAsPath(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
workdir = "auto"
`)
	lf, err := LoadFile(path)
	require.NoError(t, err)
	wd, ok := lf.Defaults.Workdir.Get()
	require.True(t, ok)
	assert.Equal(t, "auto", wd)
}

func TestLoadFile_VolumeHostResolvedOptionsPreserved(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
volumes = ["data:/container/data:ro"]
`)
	lf, err := LoadFile(path)
	require.NoError(t, err)
	vols, ok := lf.Defaults.Volumes.Get()
	require.True(t, ok)
	require.Len(t, vols, 1)
	assert.Equal(t, filepath.Join(dir, "data")+":/container/data:ro", vols[0])
}

func TestLoadFile_UlimitsAcceptIntOrString(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults]
[defaults.ulimits]
nofile = 1024
nproc = "2048:4096"
`)
	lf, err := LoadFile(path)
	require.NoError(t, err)
	u, ok := lf.Defaults.Ulimits.Get()
	require.True(t, ok)
	assert.Equal(t, "1024", u["nofile"])
	assert.Equal(t, "2048:4096", u["nproc"])
}

func TestLoadFile_BuildTableEmptyContextSentinel(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults.build]
dockerfile_content = "FROM alpine"
context = "-"
`)
	lf, err := LoadFile(path)
	require.NoError(t, err)
	bc, ok := lf.Defaults.Build.Get()
	require.True(t, ok)
	ctx, ok := bc.Context.Get()
	require.True(t, ok)
	assert.Equal(t, "-", ctx)
}

func TestLoadFile_UnknownBuildFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, `
[defaults.build]
not_real = "x"
`)
	_, err := LoadFile(path)
	require.Error(t, err)
}
