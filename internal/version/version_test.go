package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3"
	got := String()
	want := "1.2.3 (commit " + GitSHA + ", built " + BuildTime + ")"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
