// Package platform seeds the built-in macros that describe the host the
// preprocessor is running on.
package platform

import (
	"runtime"

	"github.com/minz/fpxpp/pkg/macro"
)

// Seed adds the standard built-in macros (__STDF__, __FPX__, and, on
// Windows, _WIN32 / _WIN64) to the table.
func Seed(t *macro.Table) {
	t.AddSimple("__STDF__", "1")
	t.AddSimple("__FPX__", "1")

	if runtime.GOOS == "windows" {
		t.AddSimple("_WIN32", "1")
		if is64BitArch(runtime.GOARCH) {
			t.AddSimple("_WIN64", "1")
		}
	}
}

func is64BitArch(arch string) bool {
	switch arch {
	case "amd64", "arm64", "ppc64", "ppc64le", "mips64", "mips64le", "riscv64", "s390x":
		return true
	default:
		return false
	}
}
