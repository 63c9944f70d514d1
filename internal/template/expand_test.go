package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctenv/ctenv/internal/config"
	"github.com/ctenv/ctenv/internal/runtimectx"
)

func testContext() *runtimectx.Context {
	return &runtimectx.Context{
		UserName:   "alice",
		UserID:     1000,
		UserHome:   "/home/alice",
		GroupName:  "alice",
		GroupID:    1000,
		Cwd:        "/home/alice/project",
		PID:        4242,
		ProjectDir: "/home/alice/project",
		TTY:        false,
	}
}

func TestVarsFor_PopulatesRuntimeAndConfigFields(t *testing.T) {
	cc := &config.ContainerConfig{Image: config.Of("alpine:3")}
	rc := testContext()
	v := VarsFor(cc, rc)

	out, err := ExpandString("${image}/${user_name}/${pid}", v, "test")
	require.NoError(t, err)
	assert.Equal(t, "alpine:3/alice/4242", out)
}

func TestVarsFor_ProjectDirFallsBackToRuntimeContext(t *testing.T) {
	cc := &config.ContainerConfig{}
	rc := testContext()
	v := VarsFor(cc, rc)

	out, err := ExpandString("${project_dir|slug}", v, "container_name")
	require.NoError(t, err)
	assert.Equal(t, "-home-alice-project", out)
}

func TestExpand_DefaultContainerNameTemplate(t *testing.T) {
	cc := config.Defaults()
	rc := testContext()
	v := VarsFor(cc, rc)

	out, err := Expand(cc, v)
	require.NoError(t, err)
	name, ok := out.ContainerName.Get()
	require.True(t, ok)
	assert.Equal(t, "ctenv--home-alice-project-4242", name)
}

func TestExpand_UnsetFieldsStayUnset(t *testing.T) {
	cc := &config.ContainerConfig{}
	v := VarsFor(cc, testContext())

	out, err := Expand(cc, v)
	require.NoError(t, err)
	assert.True(t, out.Image.IsUnset())
	assert.True(t, out.Workdir.IsUnset())
}

func TestExpand_BuildSubrecordExpanded(t *testing.T) {
	bc := &config.BuildConfig{Tag: config.Of("ctenv/${project_dir|slug}")}
	cc := &config.ContainerConfig{Build: config.Of(bc)}
	v := VarsFor(cc, testContext())

	out, err := Expand(cc, v)
	require.NoError(t, err)
	gotBC, ok := out.Build.Get()
	require.True(t, ok)
	tag, ok := gotBC.Tag.Get()
	require.True(t, ok)
	assert.Equal(t, "ctenv/-home-alice-project", tag)
}
