package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	cerrors "github.com/ctenv/ctenv/internal/errors"
)

// notsetLiteral is the string that, at any scalar position in a config
// file, reparses to the unset sentinel rather than a concrete value.
const notsetLiteral = "NOTSET"

// tomlDocument is the two-section table-of-tables shape every config file
// follows: a global `defaults` table and a `containers` table of tables.
type tomlDocument struct {
	Defaults   map[string]interface{}            `toml:"defaults"`
	Containers map[string]map[string]interface{} `toml:"containers"`
}

// LoadedFile is one parsed config file: its defaults layer plus its named
// container layers, both already path-resolved relative to this file's
// own directory.
type LoadedFile struct {
	Path       string
	Defaults   *ContainerConfig
	Containers map[string]*ContainerConfig
}

// LoadFile reads and parses a single config file into a LoadedFile. Every
// relative path embedded in the file (project_dir, project_target,
// workdir, gosu_path, volume/subpath host paths, build dockerfile/context)
// is resolved relative to filepath.Dir(path) before this function returns.
func LoadFile(path string) (*LoadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, cerrors.KindConfigLoad, "cannot read config file").With("file", path)
	}

	var doc tomlDocument
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, cerrors.Wrapf(err, cerrors.KindConfigParse, "invalid TOML syntax").With("file", path)
	}

	for _, key := range meta.Undecoded() {
		ks := key.String()
		if ks != "defaults" && ks != "containers" && !strings.HasPrefix(ks, "containers.") {
			return nil, cerrors.Newf(cerrors.KindConfigSchema, "unknown top-level key %q", ks).With("file", path)
		}
	}

	dir := filepath.Dir(path)

	lf := &LoadedFile{Path: path, Containers: make(map[string]*ContainerConfig)}

	defaults, err := buildContainerConfig(doc.Defaults, dir, path, "defaults")
	if err != nil {
		return nil, err
	}
	lf.Defaults = defaults

	for name, tbl := range doc.Containers {
		cc, err := buildContainerConfig(tbl, dir, path, fmt.Sprintf("containers.%s", name))
		if err != nil {
			return nil, err
		}
		lf.Containers[name] = cc
	}

	return lf, nil
}

var knownFields = map[string]bool{
	"image": true, "command": true, "project_dir": true, "project_target": true,
	"auto_project_mount": true, "subpaths": true, "workdir": true, "gosu_path": true,
	"container_name": true, "tty": true, "sudo": true, "network": true, "platform": true,
	"ulimits": true, "env": true, "volumes": true, "post_start_commands": true,
	"run_args": true, "runtime": true, "build": true, "default": true,
}

var knownBuildFields = map[string]bool{
	"dockerfile": true, "dockerfile_content": true, "context": true, "tag": true, "args": true,
}

func buildContainerConfig(m map[string]interface{}, fileDir, filePath, location string) (*ContainerConfig, error) {
	cc := &ContainerConfig{ConfigFilePath: filePath}

	for key := range m {
		if !knownFields[key] {
			return nil, cerrors.Newf(cerrors.KindConfigSchema, "unknown field %q", key).
				With("file", filePath).With("container", location)
		}
	}

	errCtx := func(err error) error {
		if err == nil {
			return nil
		}
		if ce, ok := cerrors.As(err); ok {
			return ce.With("file", filePath).With("container", location)
		}
		return err
	}

	var err error
	if cc.Image, err = stringField(m, "image"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Command, err = stringField(m, "command"); err != nil {
		return nil, errCtx(err)
	}
	if cc.ProjectDir, err = pathField(m, "project_dir", fileDir); err != nil {
		return nil, errCtx(err)
	}
	if cc.ProjectTarget, err = pathField(m, "project_target", fileDir); err != nil {
		return nil, errCtx(err)
	}
	if cc.AutoProjectMount, err = boolField(m, "auto_project_mount"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Subpaths, err = volumeListField(m, "subpaths", fileDir); err != nil {
		return nil, errCtx(err)
	}
	if cc.Workdir, err = pathField(m, "workdir", fileDir); err != nil {
		return nil, errCtx(err)
	}
	if cc.GosuPath, err = pathField(m, "gosu_path", fileDir); err != nil {
		return nil, errCtx(err)
	}
	if cc.ContainerName, err = stringField(m, "container_name"); err != nil {
		return nil, errCtx(err)
	}
	if cc.TTY, err = ttyField(m, "tty"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Sudo, err = boolField(m, "sudo"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Network, err = stringField(m, "network"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Platform, err = stringField(m, "platform"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Ulimits, err = ulimitMapField(m, "ulimits"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Env, err = stringListField(m, "env"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Volumes, err = volumeListField(m, "volumes", fileDir); err != nil {
		return nil, errCtx(err)
	}
	if cc.PostStartCommands, err = stringListField(m, "post_start_commands"); err != nil {
		return nil, errCtx(err)
	}
	if cc.RunArgs, err = stringListField(m, "run_args"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Runtime, err = stringField(m, "runtime"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Default, err = boolField(m, "default"); err != nil {
		return nil, errCtx(err)
	}
	if cc.Build, err = buildField(m, "build", fileDir, filePath, location); err != nil {
		return nil, errCtx(err)
	}

	return cc, nil
}

func isNotset(v interface{}) bool {
	s, ok := v.(string)
	return ok && s == notsetLiteral
}

func stringField(m map[string]interface{}, key string) (Value[string], error) {
	v, ok := m[key]
	if !ok {
		return Unset[string](), nil
	}
	if isNotset(v) {
		return Unset[string](), nil
	}
	s, ok := v.(string)
	if !ok {
		return Value[string]{}, cerrors.Newf(cerrors.KindConfigType, "field %q: expected string, got %T", key, v).With("field", key)
	}
	return Of(s), nil
}

func boolField(m map[string]interface{}, key string) (Value[bool], error) {
	v, ok := m[key]
	if !ok {
		return Unset[bool](), nil
	}
	if isNotset(v) {
		return Unset[bool](), nil
	}
	b, ok := v.(bool)
	if !ok {
		return Value[bool]{}, cerrors.Newf(cerrors.KindConfigType, "field %q: expected bool, got %T", key, v).With("field", key)
	}
	return Of(b), nil
}

func ttyField(m map[string]interface{}, key string) (Value[string], error) {
	v, ok := m[key]
	if !ok {
		return Unset[string](), nil
	}
	if isNotset(v) {
		return Unset[string](), nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return Of("yes"), nil
		}
		return Of("no"), nil
	case string:
		return Of(t), nil
	default:
		return Value[string]{}, cerrors.Newf(cerrors.KindConfigType, "field %q: expected bool or string, got %T", key, v).With("field", key)
	}
}

func pathField(m map[string]interface{}, key, fileDir string) (Value[string], error) {
	sv, err := stringField(m, key)
	if err != nil {
		return sv, err
	}
	s, ok := sv.Get()
	if !ok {
		return sv, nil
	}
	if s == "auto" {
		return sv, nil
	}
	return Of(resolveRel(fileDir, s)), nil
}

func resolveRel(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(dir, p))
}

func stringListField(m map[string]interface{}, key string) (Value[[]string], error) {
	v, ok := m[key]
	if !ok {
		return Unset[[]string](), nil
	}
	if isNotset(v) {
		return Unset[[]string](), nil
	}
	list, err := toStringList(v, key)
	if err != nil {
		return Value[[]string]{}, err
	}
	return Of(list), nil
}

func toStringList(v interface{}, key string) ([]string, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, cerrors.Newf(cerrors.KindConfigType, "field %q: expected list of strings, got %T", key, v).With("field", key)
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, cerrors.Newf(cerrors.KindConfigType, "field %q: expected list of strings, found element of type %T", key, item).With("field", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// volumeListField resolves the host-path component (text before the first
// ':') of each volume/subpath spec string relative to fileDir,
// leaving the container-path and options components untouched. Full
// grammar validation (unknown options, empty host) happens later in the
// spec resolver, which re-parses the now-absolute string.
func volumeListField(m map[string]interface{}, key, fileDir string) (Value[[]string], error) {
	sv, err := stringListField(m, key)
	if err != nil {
		return sv, err
	}
	list, ok := sv.Get()
	if !ok {
		return sv, nil
	}
	resolved := make([]string, len(list))
	for i, spec := range list {
		resolved[i] = resolveVolumeHost(spec, fileDir)
	}
	return Of(resolved), nil
}

func resolveVolumeHost(spec, fileDir string) string {
	host, rest, hasRest := strings.Cut(spec, ":")
	if host == "" {
		return spec // invalid; surfaced later as VolumeSyntaxError
	}
	host = resolveRel(fileDir, host)
	if hasRest {
		return host + ":" + rest
	}
	return host
}

func ulimitMapField(m map[string]interface{}, key string) (Value[map[string]string], error) {
	v, ok := m[key]
	if !ok {
		return Unset[map[string]string](), nil
	}
	if isNotset(v) {
		return Unset[map[string]string](), nil
	}
	tbl, ok := v.(map[string]interface{})
	if !ok {
		return Value[map[string]string]{}, cerrors.Newf(cerrors.KindConfigType, "field %q: expected table", key).With("field", key)
	}
	out := make(map[string]string, len(tbl))
	for name, raw := range tbl {
		switch t := raw.(type) {
		case int64:
			out[name] = strconv.FormatInt(t, 10)
		case string:
			out[name] = t
		default:
			return Value[map[string]string]{}, cerrors.Newf(cerrors.KindConfigType, "ulimit %q: expected int or string, got %T", name, raw).With("field", key)
		}
	}
	return Of(out), nil
}

func buildField(m map[string]interface{}, key, fileDir, filePath, location string) (Value[*BuildConfig], error) {
	v, ok := m[key]
	if !ok {
		return Unset[*BuildConfig](), nil
	}
	if isNotset(v) {
		return Unset[*BuildConfig](), nil
	}
	tbl, ok := v.(map[string]interface{})
	if !ok {
		return Value[*BuildConfig]{}, cerrors.Newf(cerrors.KindConfigType, "field %q: expected table", key).With("field", key)
	}

	for k := range tbl {
		if !knownBuildFields[k] {
			return Value[*BuildConfig]{}, cerrors.Newf(cerrors.KindConfigSchema, "unknown build field %q", k).
				With("file", filePath).With("container", location)
		}
	}

	bc := &BuildConfig{}
	var err error
	if bc.Dockerfile, err = pathField(tbl, "dockerfile", fileDir); err != nil {
		return Value[*BuildConfig]{}, err
	}
	if bc.DockerfileContent, err = stringField(tbl, "dockerfile_content"); err != nil {
		return Value[*BuildConfig]{}, err
	}
	if ctxVal, err := stringField(tbl, "context"); err != nil {
		return Value[*BuildConfig]{}, err
	} else if s, ok := ctxVal.Get(); ok && s != "-" {
		bc.Context = Of(resolveRel(fileDir, s))
	} else {
		bc.Context = ctxVal
	}
	if bc.Tag, err = stringField(tbl, "tag"); err != nil {
		return Value[*BuildConfig]{}, err
	}
	if argsRaw, ok := tbl["args"]; ok && !isNotset(argsRaw) {
		argsTbl, ok := argsRaw.(map[string]interface{})
		if !ok {
			return Value[*BuildConfig]{}, cerrors.Newf(cerrors.KindConfigType, "build field \"args\": expected table")
		}
		args := make(map[string]string, len(argsTbl))
		for k, rv := range argsTbl {
			s, ok := rv.(string)
			if !ok {
				return Value[*BuildConfig]{}, cerrors.Newf(cerrors.KindConfigType, "build arg %q: expected string, got %T", k, rv)
			}
			args[k] = s
		}
		bc.Args = Of(args)
	} else if ok && isNotset(argsRaw) {
		bc.Args = Unset[map[string]string]()
	}

	return Of(bc), nil
}
