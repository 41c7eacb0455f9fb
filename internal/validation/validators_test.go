package validation

import "testing"

func TestValidateSessionID(t *testing.T) {
	cases := []struct {
		id      string
		wantErr bool
	}{
		{"abc123", false},
		{"session_01-a", false},
		{"", true},
		{"../etc", true},
		{"a/b", true},
	}
	for _, c := range cases {
		err := ValidateSessionID(c.id)
		if (err != nil) != c.wantErr {
			t.Errorf("ValidateSessionID(%q) err=%v, wantErr=%v", c.id, err, c.wantErr)
		}
	}
}

func TestValidateRepoRelativePath(t *testing.T) {
	if err := ValidateRepoRelativePath("/etc/passwd"); err == nil {
		t.Error("expected error for absolute path")
	}
	if err := ValidateRepoRelativePath("../secrets"); err == nil {
		t.Error("expected error for traversal")
	}
	if err := ValidateRepoRelativePath("src/main.go"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateCommitSHA(t *testing.T) {
	if err := ValidateCommitSHA("deadbeef"); err == nil {
		t.Error("expected error for short sha")
	}
	valid := "0123456789abcdef0123456789abcdef01234567"
	if err := ValidateCommitSHA(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
