package docker

import (
	"time"
)

// Label keys set on every build container. They let a later run find and
// remove containers left behind by an interrupted run.
const (
	// LabelPrefix namespaces all nuget-cpp labels.
	LabelPrefix = "nuget-cpp."

	// LabelManagedBy marks containers created by this tool.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelStep records the step label, e.g. "msbuild Lib.vcxproj (ARM)".
	LabelStep = LabelPrefix + "step"

	// LabelWorkdir records the host directory that was bind-mounted.
	LabelWorkdir = LabelPrefix + "workdir"

	// LabelCreatedAt records the RFC 3339 creation time.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the value of LabelManagedBy.
const ManagedByValue = "nuget-cpp"

// BuildLabels returns the labels for a build container.
func BuildLabels(step, hostDir string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelStep:      step,
		LabelWorkdir:   hostDir,
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// IsManaged reports whether a label set belongs to a nuget-cpp container.
func IsManaged(labels map[string]string) bool {
	return labels[LabelManagedBy] == ManagedByValue
}
