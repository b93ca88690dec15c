package pathutil

import "testing"

func TestBasename(t *testing.T) {
	if got := Basename("/a/b/file.F90", true); got != "file.F90" {
		t.Errorf("Basename(keepExt=true) = %q, want file.F90", got)
	}
	if got := Basename("/a/b/file.F90", false); got != "file" {
		t.Errorf("Basename(keepExt=false) = %q, want file", got)
	}
}

func TestDirname(t *testing.T) {
	if got := Dirname("/a/b/file.F90"); got != "/a/b" {
		t.Errorf("Dirname = %q, want /a/b", got)
	}
}

func TestIsRooted(t *testing.T) {
	if !IsRooted("/a/b") {
		t.Error("/a/b should be rooted")
	}
	if IsRooted("a/b") {
		t.Error("a/b should not be rooted")
	}
}

func TestJoin(t *testing.T) {
	if got := Join("/a/b", "c.inc"); got != "/a/b/c.inc" {
		t.Errorf("Join = %q, want /a/b/c.inc", got)
	}
}
