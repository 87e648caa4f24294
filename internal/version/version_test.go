package version

import "testing"

func TestUserAgent(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "1.2.0", "abc123"
	if got, want := UserAgent(), "dao-risk/1.2.0 (+abc123)"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
	if got, want := String(), "1.2.0 (abc123) built unknown"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
