package docker

import (
	"path/filepath"
	"strings"
)

// TranslatePath maps a host path under hostDir to the same location under
// containerDir. Paths outside hostDir are returned unchanged, so msbuild
// switches such as "/property:Platform=x64" pass through untouched.
//
// The container side uses backslashes when containerDir looks like a
// Windows path (drive letter or backslash), forward slashes otherwise.
func TranslatePath(hostPath, hostDir, containerDir string) string {
	rel, ok := relativeTo(hostPath, hostDir)
	if !ok {
		return hostPath
	}

	if rel == "" {
		return containerDir
	}

	sep := "/"
	if isWindowsPath(containerDir) {
		sep = `\`
	}
	base := strings.TrimRight(containerDir, `/\`)
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return base + sep + strings.Join(parts, sep)
}

// TranslateArgs applies TranslatePath to every argument.
func TranslateArgs(args []string, hostDir, containerDir string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = TranslatePath(a, hostDir, containerDir)
	}
	return out
}

// relativeTo returns p relative to dir when p is dir itself or lies
// beneath it.
func relativeTo(p, dir string) (string, bool) {
	if p == "" || dir == "" || !filepath.IsAbs(p) {
		return "", false
	}
	p = filepath.Clean(p)
	dir = filepath.Clean(dir)
	if p == dir {
		return "", true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return strings.TrimPrefix(p, prefix), true
}

func isWindowsPath(p string) bool {
	if strings.Contains(p, `\`) {
		return true
	}
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}
