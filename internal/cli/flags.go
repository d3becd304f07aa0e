package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

var _ pflag.Value = (*archListValue)(nil)

// archListValue is a pflag.Value collecting --build architectures.
//
// The flag may be repeated (-b x64 -b ARM) and each occurrence may hold a
// comma-separated list (-b x64,ARM). Every token is validated as it is
// parsed, so an unknown architecture fails flag parsing with a message that
// names the offending value.
type archListValue struct {
	archs *[]model.Architecture
}

func newArchListValue(p *[]model.Architecture) *archListValue {
	return &archListValue{archs: p}
}

func (v *archListValue) String() string {
	if v.archs == nil {
		return ""
	}
	parts := make([]string, len(*v.archs))
	for i, a := range *v.archs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func (v *archListValue) Set(s string) error {
	for _, token := range strings.Split(s, ",") {
		arch, err := model.ParseArchitecture(strings.TrimSpace(token))
		if err != nil {
			return err
		}
		*v.archs = append(*v.archs, arch)
	}
	return nil
}

func (v *archListValue) Type() string {
	return "arch"
}
