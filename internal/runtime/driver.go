// Package runtime builds the docker/podman argument vector from a resolved
// ContainerSpec and generated entrypoint script, then executes it in the
// foreground, forwarding stdio and the child's exit status.
package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/ctenv/ctenv/internal/common"
	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/spec"
	"github.com/ctenv/ctenv/internal/ui"
)

// BuildArgs assembles the `run` argument vector for s, given the host
// path the materialized entrypoint script will be mounted from; the gosu
// binary's host path comes from s.GosuHostPath. It never resolves the
// runtime binary itself — callers resolve it once via ResolveBinary.
func BuildArgs(s *spec.ContainerSpec, entrypointHostPath string) []string {
	var args []string
	args = append(args, "run", "--rm", "--init", "--user=root")
	args = append(args, "--name="+s.ContainerName)

	if s.TTY {
		args = append(args, "-it")
	} else {
		args = append(args, "-i")
	}

	if s.Runtime == "podman" && os.Geteuid() != 0 {
		args = append(args, "--userns=keep-id")
	}

	if s.Platform != "" {
		args = append(args, "--platform="+s.Platform)
	}
	if s.Network != "" {
		args = append(args, "--network="+s.Network)
	}

	for _, u := range s.Ulimits {
		args = append(args, "--ulimit", u.String())
	}

	for _, v := range s.Volumes {
		args = append(args, "--volume="+renderVolume(v))
	}
	args = append(args, "--volume="+s.GosuHostPath+":"+common.GosuContainerPath+":ro")
	args = append(args, "--volume="+entrypointHostPath+":"+common.EntrypointContainerPath+":ro")

	args = append(args, "--workdir="+s.Workdir)

	for _, e := range s.Env {
		if e.Passthrough {
			args = append(args, "-e", e.Name)
		} else {
			args = append(args, "-e", e.Name+"="+e.Value)
		}
	}

	args = append(args, "--entrypoint=/bin/sh")
	args = append(args, s.RunArgs...)
	args = append(args, "--label="+common.ManagedLabel)
	args = append(args, s.Image)
	args = append(args, common.EntrypointContainerPath)

	return args
}

func renderVolume(v spec.Volume) string {
	var opts []string
	if v.ReadOnly {
		opts = append(opts, "ro")
	}
	if v.SELinux != "" {
		opts = append(opts, v.SELinux)
	}
	s := v.Host + ":" + v.Container
	if len(opts) > 0 {
		s += ":" + strings.Join(opts, ",")
	}
	return s
}

// ResolveBinary looks up the configured runtime ("docker" or "podman") on
// PATH. Callers resolve once per invocation and reuse the result for both
// the image builder and the run invocation, so a missing runtime surfaces
// as the same RuntimeNotFoundError regardless of which stage hits it first.
func ResolveBinary(name string) (string, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", cerrors.Wrapf(err, cerrors.KindRuntimeNotFound, "runtime %q not found on PATH", name).
			With("runtime", name)
	}
	return bin, nil
}

// Run materializes the entrypoint script to a temp file (removed on every
// exit path), executes `<runtimeBin> <args>` in the foreground with
// inherited stdio, and returns the child's exit code. In dry-run mode it
// prints the reproducible, quoted argument vector and returns 0 without
// executing anything. runtimeBin must already be a resolved path (see
// ResolveBinary).
func Run(s *spec.ContainerSpec, runtimeBin, entrypointScript string, dryRun bool) (int, error) {
	if dryRun {
		args := BuildArgs(s, "<entrypoint-script>")
		ui.Info("dry-run: %s", quoteCommand(runtimeBin, args))
		return 0, nil
	}

	tmpFile, err := os.CreateTemp("", "ctenv-entrypoint-*.sh")
	if err != nil {
		return 0, cerrors.Wrap(err, cerrors.KindPath, "cannot create entrypoint temp file")
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(entrypointScript); err != nil {
		tmpFile.Close()
		return 0, cerrors.Wrap(err, cerrors.KindPath, "cannot write entrypoint temp file")
	}
	if err := tmpFile.Chmod(0o755); err != nil {
		tmpFile.Close()
		return 0, cerrors.Wrap(err, cerrors.KindPath, "cannot chmod entrypoint temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return 0, cerrors.Wrap(err, cerrors.KindPath, "cannot finalize entrypoint temp file")
	}

	args := BuildArgs(s, tmpFile.Name())
	cmd := exec.Command(runtimeBin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitCodeOf(exitErr), nil
	}
	return 0, cerrors.Wrapf(runErr, cerrors.KindRuntimeNotFound, "failed to execute %s", s.Runtime).With("runtime", s.Runtime)
}

func quoteCommand(bin string, args []string) string {
	parts := []string{bin}
	for _, a := range args {
		if strings.ContainsAny(a, " \t\n'\"$") {
			parts = append(parts, "'"+strings.ReplaceAll(a, "'", `'\''`)+"'")
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}

func exitCodeOf(err *exec.ExitError) int {
	if ws, ok := err.Sys().(interface {
		Signaled() bool
		Signal() syscall.Signal
	}); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	if status, ok := err.Sys().(interface{ ExitStatus() int }); ok {
		if code := status.ExitStatus(); code >= 0 {
			return code
		}
	}
	return 1
}

// DockerCompatibleName validates a runtime binary name is one of the two
// this tool knows how to drive: "docker" or "podman".
func DockerCompatibleName(name string) error {
	if name != "docker" && name != "podman" {
		return fmt.Errorf("unsupported runtime %q: must be \"docker\" or \"podman\"", name)
	}
	return nil
}
