// Package entrypoint generates the POSIX shell script that runs as root
// inside the container: it creates a group and user matching the host
// identity, optionally chowns volumes and installs sudo, runs post-start
// commands, and finally drops privileges and execs the user command.
//
// The script must work unmodified against both GNU coreutils images and
// BusyBox images, so every identity-management step dispatches on
// `command -v` rather than assuming one tool family.
package entrypoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctenv/ctenv/internal/common"
	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/spec"
)

// Generate renders the complete entrypoint script for s.
func Generate(s *spec.ContainerSpec) (string, error) {
	var b strings.Builder

	writeHeader(&b)
	writeGroupSetup(&b, s)
	writeUserSetup(&b, s)
	writeHomeSetup(&b, s)
	if s.Sudo {
		writeSudoSetup(&b, s)
	}
	if err := writeChownVolumes(&b, s); err != nil {
		return "", err
	}
	writePostStartCommands(&b, s)
	writeExec(&b, s)

	return b.String(), nil
}

func writeHeader(b *strings.Builder) {
	b.WriteString("#!/bin/sh\n")
	b.WriteString("set -eu\n")
	b.WriteString("IFS=' \t\n'\n\n")
}

func writeGroupSetup(b *strings.Builder, s *spec.ContainerSpec) {
	gid := strconv.Itoa(s.GroupID)
	groupName := common.ShellQuote(s.GroupName)
	fmt.Fprintf(b, "if getent group %s >/dev/null 2>&1; then\n", gid)
	fmt.Fprintf(b, "  ctenv_group=$(getent group %s | cut -d: -f1)\n", gid)
	b.WriteString("else\n")
	b.WriteString("  if command -v groupadd >/dev/null 2>&1; then\n")
	fmt.Fprintf(b, "    groupadd -g %s %s\n", gid, groupName)
	b.WriteString("  else\n")
	fmt.Fprintf(b, "    addgroup -g %s %s\n", gid, groupName)
	b.WriteString("  fi\n")
	fmt.Fprintf(b, "  ctenv_group=%s\n", groupName)
	b.WriteString("fi\n\n")
}

func writeUserSetup(b *strings.Builder, s *spec.ContainerSpec) {
	uid := strconv.Itoa(s.UserID)
	gid := strconv.Itoa(s.GroupID)
	userName := common.ShellQuote(s.UserName)
	home := common.ShellQuote(s.UserHome)
	fmt.Fprintf(b, "if getent passwd %s >/dev/null 2>&1; then\n", uid)
	fmt.Fprintf(b, "  ctenv_user=$(getent passwd %s | cut -d: -f1)\n", uid)
	b.WriteString("else\n")
	b.WriteString("  if command -v useradd >/dev/null 2>&1; then\n")
	fmt.Fprintf(b, "    useradd -u %s -g %s -d %s -M -s /bin/sh %s\n", uid, gid, home, userName)
	b.WriteString("  else\n")
	fmt.Fprintf(b, "    adduser -D -H -u %s -G \"$ctenv_group\" -h %s %s\n", uid, home, userName)
	b.WriteString("  fi\n")
	fmt.Fprintf(b, "  ctenv_user=%s\n", userName)
	b.WriteString("fi\n\n")
}

func writeHomeSetup(b *strings.Builder, s *spec.ContainerSpec) {
	home := common.ShellQuote(s.UserHome)
	fmt.Fprintf(b, "mkdir -p %s\n", home)
	fmt.Fprintf(b, "chown %d:%d %s\n\n", s.UserID, s.GroupID, home)
}

func writeSudoSetup(b *strings.Builder, s *spec.ContainerSpec) {
	b.WriteString("if ! command -v sudo >/dev/null 2>&1; then\n")
	b.WriteString("  if command -v apt-get >/dev/null 2>&1; then\n")
	b.WriteString("    apt-get update >/dev/null 2>&1 && apt-get install -y sudo >/dev/null 2>&1\n")
	b.WriteString("  elif command -v yum >/dev/null 2>&1; then\n")
	b.WriteString("    yum install -y sudo >/dev/null 2>&1\n")
	b.WriteString("  elif command -v dnf >/dev/null 2>&1; then\n")
	b.WriteString("    dnf install -y sudo >/dev/null 2>&1\n")
	b.WriteString("  elif command -v apk >/dev/null 2>&1; then\n")
	b.WriteString("    apk add --no-cache sudo >/dev/null 2>&1\n")
	b.WriteString("  fi\n")
	b.WriteString("fi\n")
	b.WriteString("if command -v sudo >/dev/null 2>&1; then\n")
	fmt.Fprintf(b, "  echo \"$ctenv_user ALL=(ALL) NOPASSWD:ALL\" > /etc/sudoers.d/ctenv\n")
	b.WriteString("  chmod 0440 /etc/sudoers.d/ctenv\n")
	b.WriteString("fi\n\n")
}

func writeChownVolumes(b *strings.Builder, s *spec.ContainerSpec) error {
	for _, v := range s.Volumes {
		if !v.Chown {
			continue
		}
		if !strings.HasPrefix(v.Container, "/") {
			return cerrors.Newf(cerrors.KindVolumeSyntax, "chown volume container path %q is not absolute", v.Container).
				With("field", "volumes").With("path", v.Container)
		}
		fmt.Fprintf(b, "chown -R %d:%d %s\n", s.UserID, s.GroupID, common.ShellQuote(v.Container))
	}
	b.WriteString("\n")
	return nil
}

func writePostStartCommands(b *strings.Builder, s *spec.ContainerSpec) {
	for _, cmd := range s.PostStartCommands {
		fmt.Fprintf(b, "sh -c %s\n", common.ShellQuote(cmd))
	}
	if len(s.PostStartCommands) > 0 {
		b.WriteString("\n")
	}
}

func writeExec(b *strings.Builder, s *spec.ContainerSpec) {
	b.WriteString("ctenv_sh_is_bash=0\n")
	b.WriteString("if [ \"$(basename \"$(readlink -f /bin/sh 2>/dev/null || echo /bin/sh)\")\" = \"bash\" ]; then ctenv_sh_is_bash=1; fi\n\n")

	fmt.Fprintf(b, "export HOME=%s\n", common.ShellQuote(s.UserHome))
	fmt.Fprintf(b, "export USER=%s\n", common.ShellQuote(s.UserName))
	fmt.Fprintf(b, "export LOGNAME=%s\n", common.ShellQuote(s.UserName))
	b.WriteString("export SHELL=/bin/sh\n")

	ps1, hasPS1 := lookupEnv(s.Env, "PS1")
	if hasPS1 {
		fmt.Fprintf(b, "export PS1=%s\n", common.ShellQuote(ps1))
	}
	b.WriteString("\n")

	b.WriteString("ctenv_sh_args=\"-c\"\n")
	if s.TTY {
		b.WriteString("ctenv_sh_args=\"-i -c\"\n")
	}
	if hasPS1 {
		b.WriteString("if [ \"$ctenv_sh_is_bash\" = \"1\" ]; then ctenv_sh_args=\"--norc $ctenv_sh_args\"; fi\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "exec %s %s /bin/sh $ctenv_sh_args %s\n",
		common.ShellQuote(common.GosuContainerPath),
		common.ShellQuote(s.UserName),
		common.ShellQuote(s.Command))
}

func lookupEnv(env []spec.EnvEntry, name string) (string, bool) {
	for _, e := range env {
		if e.Name == name && !e.Passthrough {
			return e.Value, true
		}
	}
	return "", false
}
