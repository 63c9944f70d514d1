// Package imagebuild invokes the container runtime's own build subcommand
// when a resolved ContainerSpec requests one, ahead of the run invocation.
package imagebuild

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/spec"
	"github.com/ctenv/ctenv/internal/ui"
)

// Build runs `<runtimeBin> build` for bs and returns the tag that was
// built, ready to substitute as the run invocation's image. It always
// builds before the caller proceeds to run — there is no separate queued
// step; the caller simply calls Build first.
func Build(runtimeBin string, bs *spec.BuildSpec, dryRun bool) (string, error) {
	if bs.Dockerfile == "" && bs.DockerfileContent == "" {
		return "", cerrors.New(cerrors.KindPath, "build requested with neither dockerfile nor dockerfile_content")
	}

	contextDir := bs.Context
	var cleanup func()
	if bs.EmptyContext {
		dir, err := os.MkdirTemp("", "ctenv-build-context-")
		if err != nil {
			return "", cerrors.Wrap(err, cerrors.KindBuildFailure, "cannot create empty build context")
		}
		cleanup = func() { os.RemoveAll(dir) }
		contextDir = dir
	}
	if cleanup != nil {
		defer cleanup()
	}

	args := []string{"build"}
	if bs.Dockerfile != "" {
		args = append(args, "-f", bs.Dockerfile)
	} else {
		args = append(args, "-f", "-")
	}
	if bs.Platform != "" {
		args = append(args, "--platform", bs.Platform)
	}
	for k, v := range bs.Args {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, "-t", bs.Tag, contextDir)

	if dryRun {
		ui.Info("dry-run build: %s %s", runtimeBin, quoteArgs(args))
		return bs.Tag, nil
	}

	if bs.Dockerfile == "" {
		if strings.TrimSpace(bs.DockerfileContent) == "" {
			return "", cerrors.New(cerrors.KindPath, "build.dockerfile_content is empty")
		}
	}
	if bs.Dockerfile != "" {
		if _, err := os.Stat(bs.Dockerfile); err != nil {
			return "", cerrors.Wrapf(err, cerrors.KindPath, "build dockerfile %q does not exist", bs.Dockerfile).With("path", bs.Dockerfile)
		}
	}
	if !bs.EmptyContext {
		if info, err := os.Stat(contextDir); err != nil || !info.IsDir() {
			return "", cerrors.Newf(cerrors.KindPath, "build context %q does not exist", contextDir).With("path", contextDir)
		}
	}

	cmd := exec.Command(runtimeBin, args...)
	if bs.Dockerfile == "" {
		cmd.Stdin = strings.NewReader(bs.DockerfileContent)
	} else {
		cmd.Stdin = os.Stdin
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// Verbose mode streams the build log live, which would scramble a
	// spinner's redraws, so the spinner only covers the default/quiet case;
	// verbose output goes straight to the error writer instead.
	var spinner *ui.Spinner
	var stdout bytes.Buffer
	if ui.IsVerbose() {
		cmd.Stdout = ui.ErrWriter()
	} else {
		spinner = ui.StartSpinner(fmt.Sprintf("Building %s...", bs.Tag))
		cmd.Stdout = &stdout
	}

	if err := cmd.Run(); err != nil {
		if spinner != nil {
			spinner.Fail("Image build failed")
		}
		return "", cerrors.Wrapf(err, cerrors.KindBuildFailure, "image build failed").
			With("runtime", runtimeBin).With("value", stderr.String()+stdout.String())
	}

	if spinner != nil {
		spinner.Success(fmt.Sprintf("Built %s", bs.Tag))
	}
	return bs.Tag, nil
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\n'\"$") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
