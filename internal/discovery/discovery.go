// Package discovery locates the solution, project, manifest and version
// files that drive a nuget-cpp run.
//
// Every lookup that expects a single file is strict: zero candidates is a
// "not found" error and two or more is an "ambiguous" error. There is no
// tie-breaking by name, because a directory with two solutions almost always
// means the user pointed the tool at the wrong place.
//
// The expected layout is:
//
//	<workingDir>/
//	├── App.sln
//	├── nuget/              (optional, packs the whole solution)
//	│   ├── App.nuspec
//	│   └── VERSION
//	└── Lib/
//	    ├── Lib.vcxproj
//	    └── nuget/
//	        ├── Lib.nuspec
//	        └── VERSION
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// FindSolution returns the single file with suffix ext directly under
// workingDir.
func FindSolution(workingDir, ext string) (string, error) {
	return findSingle(workingDir, ext, "solution")
}

// FindProjectDirs returns the immediate subdirectories of workingDir that
// contain a subdirectory named packagingDir, in lexical order. An empty
// result is not an error here; callers decide whether they need projects.
func FindProjectDirs(workingDir, packagingDir string) ([]string, error) {
	entries, err := readDir(workingDir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if !isDir(workingDir, entry) {
			continue
		}
		candidate := filepath.Join(workingDir, entry.Name())
		if HasPackagingDir(candidate, packagingDir) {
			dirs = append(dirs, candidate)
		}
	}
	return dirs, nil
}

// FindProjectFile returns the single file with suffix ext directly under
// projectDir.
func FindProjectFile(projectDir, ext string) (string, error) {
	return findSingle(projectDir, ext, "project")
}

// FindProjects combines FindProjectDirs and FindProjectFile. The first
// project directory without exactly one project file aborts discovery.
func FindProjects(workingDir, packagingDir, ext string) ([]model.Project, error) {
	dirs, err := FindProjectDirs(workingDir, packagingDir)
	if err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(dirs))
	for _, dir := range dirs {
		file, err := FindProjectFile(dir, ext)
		if err != nil {
			return nil, err
		}
		projects = append(projects, model.Project{Dir: dir, File: file})
	}
	return projects, nil
}

// FindManifest returns the single file with suffix ext directly under
// packagingDir.
func FindManifest(packagingDir, ext string) (string, error) {
	return findSingle(packagingDir, ext, "manifest")
}

// FindVersion reads packagingDir/name and returns its content with leading
// and trailing whitespace removed. An empty version is rejected because
// `nuget pack -version ""` fails with a far less helpful message.
func FindVersion(packagingDir, name string) (string, error) {
	path := filepath.Join(packagingDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", model.WrapCLIError(model.ExitNotFound,
				fmt.Sprintf("no %s file found in %s", name, packagingDir), err)
		}
		return "", model.WrapCLIError(model.ExitIOError,
			fmt.Sprintf("failed to read %s", path), err)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", model.NewCLIError(model.ExitNotFound,
			fmt.Sprintf("%s is empty", path))
	}
	return version, nil
}

// FindPackage resolves the manifest and version of a packaging directory.
func FindPackage(packagingDir, manifestExt, versionFile string) (model.Package, error) {
	manifest, err := FindManifest(packagingDir, manifestExt)
	if err != nil {
		return model.Package{}, err
	}
	version, err := FindVersion(packagingDir, versionFile)
	if err != nil {
		return model.Package{}, err
	}
	return model.Package{Dir: packagingDir, Manifest: manifest, Version: version}, nil
}

// HasPackagingDir reports whether dir contains a directory named name.
func HasPackagingDir(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.IsDir()
}

// BuildTarget derives the msbuild /t: target name from a project file path:
// the base name without its extension, with every '.' replaced by '_'
// (msbuild does not accept dots in solution-level target names).
//
//	Foo.Bar.vcxproj -> Foo_Bar
func BuildTarget(projectFile string) string {
	base := filepath.Base(projectFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, ".", "_")
}

// findSingle lists the regular files directly under dir whose extension
// matches ext (case-insensitive) and requires exactly one match. kind is
// used in error messages ("solution", "project", "manifest").
func findSingle(dir, ext, kind string) (string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, entry := range entries {
		if isDir(dir, entry) {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}

	switch len(matches) {
	case 0:
		return "", model.NewCLIError(model.ExitNotFound,
			fmt.Sprintf("no %s file (*%s) found in %s", kind, ext, dir))
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = filepath.Base(m)
		}
		return "", model.NewCLIError(model.ExitAmbiguous,
			fmt.Sprintf("too many %s files (*%s) found in %s: %s",
				kind, ext, dir, strings.Join(names, ", ")))
	}
}

// readDir wraps os.ReadDir, translating failures into CLIErrors.
// os.ReadDir returns entries sorted by file name.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitNotFound,
				fmt.Sprintf("directory not found: %s", dir), err)
		}
		return nil, model.WrapCLIError(model.ExitIOError,
			fmt.Sprintf("failed to read directory %s", dir), err)
	}
	return entries, nil
}

// isDir reports whether entry is a directory, following symlinks so that a
// linked project directory is treated like a real one.
func isDir(parent string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}
