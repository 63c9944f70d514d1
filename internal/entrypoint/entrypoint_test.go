package entrypoint

import (
	"strings"
	"testing"

	"github.com/google/shlex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctenv/ctenv/internal/spec"
)

func baseSpec() *spec.ContainerSpec {
	return &spec.ContainerSpec{
		UserName:  "alice",
		UserID:    1000,
		UserHome:  "/home/alice",
		GroupName: "alice",
		GroupID:   1000,
		Command:   "echo hello",
	}
}

func TestGenerate_HeaderIsPosixStrict(t *testing.T) {
	s := baseSpec()
	script, err := Generate(s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\nset -eu\n"))
}

func TestGenerate_DualCompatGroupAndUserDispatch(t *testing.T) {
	s := baseSpec()
	script, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, script, "command -v groupadd")
	assert.Contains(t, script, "addgroup -g")
	assert.Contains(t, script, "command -v useradd")
	assert.Contains(t, script, "adduser -D -H")
}

func TestGenerate_QuotesIdentityValuesWithSpecialCharacters(t *testing.T) {
	s := baseSpec()
	s.UserName = "o'brien"
	script, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, script, `'o'\''brien'`)
}

func TestGenerate_SudoSetupOnlyWhenRequested(t *testing.T) {
	without, err := Generate(baseSpec())
	require.NoError(t, err)
	assert.NotContains(t, without, "sudoers.d/ctenv")

	s := baseSpec()
	s.Sudo = true
	withSudo, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, withSudo, "sudoers.d/ctenv")
	assert.Contains(t, withSudo, "NOPASSWD:ALL")
}

func TestGenerate_ChownVolumeRequiresAbsoluteContainerPath(t *testing.T) {
	s := baseSpec()
	s.Volumes = []spec.Volume{{Host: "/host/data", Container: "relative", Chown: true}}
	_, err := Generate(s)
	require.Error(t, err)
}

func TestGenerate_ChownVolumeEmitsChownCommand(t *testing.T) {
	s := baseSpec()
	s.Volumes = []spec.Volume{{Host: "/host/data", Container: "/data", Chown: true}}
	script, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, script, "chown -R 1000:1000 '/data'")
}

func TestGenerate_PostStartCommandsRunBeforeExec(t *testing.T) {
	s := baseSpec()
	s.PostStartCommands = []string{"echo one", "echo two"}
	script, err := Generate(s)
	require.NoError(t, err)
	execIdx := strings.Index(script, "ctenv_sh_is_bash")
	oneIdx := strings.Index(script, "echo one")
	twoIdx := strings.Index(script, "echo two")
	require.True(t, oneIdx >= 0 && twoIdx >= 0 && execIdx >= 0)
	assert.True(t, oneIdx < twoIdx)
	assert.True(t, twoIdx < execIdx)
}

func TestGenerate_PS1PreservedWithNorcGuardForBash(t *testing.T) {
	s := baseSpec()
	s.Env = []spec.EnvEntry{{Name: "PS1", Value: "$ "}}
	script, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, script, "export PS1=")
	assert.Contains(t, script, "--norc")
	assert.Contains(t, script, `ctenv_sh_is_bash" = "1"`)
}

func TestGenerate_NoPS1MeansNoNorcGuard(t *testing.T) {
	s := baseSpec()
	script, err := Generate(s)
	require.NoError(t, err)
	assert.NotContains(t, script, "export PS1=")
	assert.NotContains(t, script, "--norc")
}

func TestGenerate_TTYAddsInteractiveShellFlag(t *testing.T) {
	s := baseSpec()
	s.TTY = true
	script, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, script, `ctenv_sh_args="-i -c"`)
}

func TestGenerate_FinalExecUsesGosuAndQuotesCommand(t *testing.T) {
	s := baseSpec()
	s.Command = "echo $HOME; rm -rf /"
	script, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, script, "exec '/usr/local/bin/ctenv-gosu' 'alice' /bin/sh $ctenv_sh_args")
	assert.Contains(t, script, `'echo $HOME; rm -rf /'`)
}

// The quoted command on the final exec line must re-tokenize as exactly one
// shell word, regardless of embedded spaces, quotes, or shell metacharacters.
func TestGenerate_QuotedCommandRoundTripsThroughShellLexer(t *testing.T) {
	cases := []string{
		"echo hello",
		"echo $HOME; rm -rf /",
		`echo "nested" 'quotes'`,
		"printf 'a\tb\nc'",
	}
	for _, cmd := range cases {
		s := baseSpec()
		s.Command = cmd
		script, err := Generate(s)
		require.NoError(t, err)

		execLine := script[strings.LastIndex(script, "exec "):]
		tokens, err := shlex.Split(execLine)
		require.NoError(t, err)
		require.NotEmpty(t, tokens)
		assert.Equal(t, cmd, tokens[len(tokens)-1])
	}
}
