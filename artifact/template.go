package artifact

import (
	"runtime"
	"strings"
	"text/template"
)

// unameArch maps GOARCH values to the names `uname -m` reports, which is what most
// release assets are named after.
var unameArch = map[string]string{
	"amd64":   "x86_64",
	"arm64":   "aarch64",
	"386":     "i386",
	"arm":     "armv7l",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"riscv64": "riscv64",
}

// Platform contains the fields asset patterns and target globs can refer to.
type Platform struct {
	// GOOS is the operating system target (e.g., "linux", "darwin")
	GOOS string
	// GOARCH is the architecture target (e.g., "amd64", "arm64")
	GOARCH string
	// Arch is the machine name for GOARCH as `uname -m` prints it (e.g., "x86_64")
	Arch string
}

// Host returns the platform this program runs on.
func Host() Platform {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

// PlatformFor builds the platform for a GOOS/GOARCH pair.
func PlatformFor(goos, goarch string) Platform {
	arch, ok := unameArch[goarch]
	if !ok {
		arch = goarch
	}
	return Platform{GOOS: goos, GOARCH: goarch, Arch: arch}
}

// Resolve executes the provided format string as a template with the Platform's fields.
// Strings without template actions are returned untouched.
func (p Platform) Resolve(format string) (string, error) {
	if !strings.Contains(format, "{{") {
		return format, nil
	}

	tmpl, err := template.New("artifact").Option("missingkey=error").Parse(format)
	if err != nil {
		return "", err
	}

	var bld strings.Builder
	if err := tmpl.Execute(&bld, p); err != nil {
		return "", err
	}

	return bld.String(), nil
}

// MustResolve is like [Platform.Resolve] but panics if the template can't be resolved.
func (p Platform) MustResolve(format string) string {
	resolved, err := p.Resolve(format)
	if err != nil {
		panic(err)
	}
	return resolved
}
