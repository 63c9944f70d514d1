package spec

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctenv/ctenv/internal/config"
	"github.com/ctenv/ctenv/internal/runtimectx"
	"github.com/ctenv/ctenv/internal/template"
	"github.com/ctenv/ctenv/internal/ui"
)

func testRC(cwd, projectDir string) *runtimectx.Context {
	return &runtimectx.Context{
		UserName:   "alice",
		UserID:     1000,
		UserHome:   "/home/alice",
		GroupName:  "alice",
		GroupID:    1000,
		Cwd:        cwd,
		PID:        777,
		ProjectDir: projectDir,
		TTY:        false,
	}
}

func withGosu(t *testing.T, cc *config.ContainerConfig) *config.ContainerConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gosu")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	cc.GosuPath = config.Of(path)
	return cc
}

func TestResolve_AutoProjectMountDefault(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		Image:            config.Of("alpine:3"),
		AutoProjectMount: config.Of(true),
		ProjectTarget:    config.Of("/workspace"),
		Workdir:          config.Of("auto"),
		ContainerName:    config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.Len(t, s.Volumes, 1)
	assert.Equal(t, projectDir, s.Volumes[0].Host)
	assert.Equal(t, "/workspace", s.Volumes[0].Container)
	assert.Equal(t, "/workspace", s.Workdir)
}

func TestResolve_WorkdirFollowsCwdSubdirectory(t *testing.T) {
	projectDir := t.TempDir()
	cwd := filepath.Join(projectDir, "src")
	require.NoError(t, os.MkdirAll(cwd, 0o755))

	cc := withGosu(t, &config.ContainerConfig{
		Image:            config.Of("alpine:3"),
		AutoProjectMount: config.Of(true),
		ProjectTarget:    config.Of("/workspace"),
		Workdir:          config.Of("auto"),
		ContainerName:    config.Of("fixed-name"),
	})
	rc := testRC(cwd, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/workspace", "src"), s.Workdir)
}

func TestResolve_WorkdirExplicitMustBeAbsolute(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		Image:         config.Of("alpine:3"),
		ProjectTarget: config.Of("/workspace"),
		Workdir:       config.Of("relative/path"),
		ContainerName: config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	_, err := Resolve(cc, rc, vars)
	require.Error(t, err)
}

func TestResolve_SubpathsOnlyWhenAutoMountDisabled(t *testing.T) {
	projectDir := t.TempDir()
	sub := filepath.Join(projectDir, "app")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cc := withGosu(t, &config.ContainerConfig{
		Image:            config.Of("alpine:3"),
		AutoProjectMount: config.Of(false),
		ProjectTarget:    config.Of("/workspace"),
		Subpaths:         config.Of([]string{sub}),
		Workdir:          config.Of("auto"),
		ContainerName:    config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.Len(t, s.Volumes, 1)
	assert.Equal(t, sub, s.Volumes[0].Host)
	assert.Equal(t, filepath.Join("/workspace", "app"), s.Volumes[0].Container)
}

func TestResolve_SubpathOutsideProjectDirRejected(t *testing.T) {
	projectDir := t.TempDir()
	outside := t.TempDir()

	cc := withGosu(t, &config.ContainerConfig{
		Image:            config.Of("alpine:3"),
		AutoProjectMount: config.Of(false),
		ProjectTarget:    config.Of("/workspace"),
		Subpaths:         config.Of([]string{outside}),
		ContainerName:    config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	_, err := Resolve(cc, rc, vars)
	require.Error(t, err)
}

func TestResolve_ContainerNamingIncludesPID(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, config.Defaults())
	cc.Image = config.Of("alpine:3")
	cc.ProjectTarget = config.Of("/workspace")
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)
	expanded, err := template.Expand(cc, vars)
	require.NoError(t, err)

	s, err := Resolve(expanded, rc, vars)
	require.NoError(t, err)
	assert.Contains(t, s.ContainerName, "777")
}

func TestResolve_ImageAndBuildMutuallyExclusive(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		Image:         config.Of("alpine:3"),
		Build:         config.Of(&config.BuildConfig{Dockerfile: config.Of("Dockerfile")}),
		ContainerName: config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	_, err := Resolve(cc, rc, vars)
	require.Error(t, err)
}

func TestResolve_UlimitsNormalized(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		Image:         config.Of("alpine:3"),
		ContainerName: config.Of("fixed-name"),
		Ulimits:       config.Of(map[string]string{"nofile": "1024:2048"}),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.Len(t, s.Ulimits, 1)
	assert.Equal(t, "nofile", s.Ulimits[0].Name)
	assert.Equal(t, int64(1024), s.Ulimits[0].Soft)
	assert.Equal(t, int64(2048), s.Ulimits[0].Hard)
}

func TestResolve_EnvSplitsPassthroughFromAssignment(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		Image:         config.Of("alpine:3"),
		ContainerName: config.Of("fixed-name"),
		Env:           config.Of([]string{"FOO=bar", "PASSTHROUGH_VAR"}),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.Len(t, s.Env, 2)
	assert.Equal(t, EnvEntry{Name: "FOO", Value: "bar"}, s.Env[0])
	assert.Equal(t, EnvEntry{Name: "PASSTHROUGH_VAR", Passthrough: true}, s.Env[1])
}

func TestResolve_BuildContextResolvesRelativeToProjectDir(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		ContainerName: config.Of("fixed-name"),
		Build: config.Of(&config.BuildConfig{
			Dockerfile: config.Of(filepath.Join(projectDir, "Dockerfile")),
			Context:    config.Of("build-ctx"),
		}),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.NotNil(t, s.Build)
	assert.Equal(t, filepath.Join(projectDir, "build-ctx"), s.Build.Context)
	assert.False(t, s.Build.EmptyContext)
}

func TestResolve_BuildEmptyContextSentinel(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		ContainerName: config.Of("fixed-name"),
		Build: config.Of(&config.BuildConfig{
			DockerfileContent: config.Of("FROM alpine"),
			Context:           config.Of("-"),
		}),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.NotNil(t, s.Build)
	assert.True(t, s.Build.EmptyContext)
}

func TestResolve_BuildPlatformInheritedFromContainerConfig(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		ContainerName: config.Of("fixed-name"),
		Platform:      config.Of("linux/arm64"),
		Build: config.Of(&config.BuildConfig{
			DockerfileContent: config.Of("FROM alpine"),
		}),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	require.NotNil(t, s.Build)
	assert.Equal(t, "linux/arm64", s.Build.Platform)
}

func TestResolve_WorkdirOutsideMountPointsWarns(t *testing.T) {
	projectDir := t.TempDir()
	var buf bytes.Buffer
	ui.Configure(ui.Config{ErrWriter: &buf})
	defer ui.Configure(ui.Config{Verbosity: ui.VerbosityNormal})

	cc := withGosu(t, &config.ContainerConfig{
		Image:            config.Of("alpine:3"),
		AutoProjectMount: config.Of(true),
		ProjectTarget:    config.Of("/workspace"),
		Workdir:          config.Of("/elsewhere"),
		ContainerName:    config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", s.Workdir)
	assert.Contains(t, buf.String(), "/elsewhere")
}

func TestResolve_WorkdirUnderMountPointDoesNotWarn(t *testing.T) {
	projectDir := t.TempDir()
	var buf bytes.Buffer
	ui.Configure(ui.Config{ErrWriter: &buf})
	defer ui.Configure(ui.Config{Verbosity: ui.VerbosityNormal})

	cc := withGosu(t, &config.ContainerConfig{
		Image:            config.Of("alpine:3"),
		AutoProjectMount: config.Of(true),
		ProjectTarget:    config.Of("/workspace"),
		Workdir:          config.Of("auto"),
		ContainerName:    config.Of("fixed-name"),
	})
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	_, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestResolve_GosuPathExplicitMustExist(t *testing.T) {
	projectDir := t.TempDir()
	cc := &config.ContainerConfig{
		Image:         config.Of("alpine:3"),
		ContainerName: config.Of("fixed-name"),
		GosuPath:      config.Of(filepath.Join(projectDir, "does-not-exist")),
	}
	rc := testRC(projectDir, projectDir)
	vars := template.VarsFor(cc, rc)

	_, err := Resolve(cc, rc, vars)
	require.Error(t, err)
}

func TestResolve_TTYAutoFollowsRuntimeContext(t *testing.T) {
	projectDir := t.TempDir()
	cc := withGosu(t, &config.ContainerConfig{
		Image:         config.Of("alpine:3"),
		ContainerName: config.Of("fixed-name"),
		TTY:           config.Of("auto"),
	})
	rc := testRC(projectDir, projectDir)
	rc.TTY = true
	vars := template.VarsFor(cc, rc)

	s, err := Resolve(cc, rc, vars)
	require.NoError(t, err)
	assert.True(t, s.TTY)
}
