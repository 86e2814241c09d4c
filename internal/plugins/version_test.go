package plugins

import "testing"

func TestCompareVersions(t *testing.T) {
	testCases := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2", "1.2.0", 0},
		{"1.2.0", "1.2", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.2.9", "1.3.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"2.0.0", "1.99.99", 1},
		{"1.2.3.4", "1.2.3.5", -1},
		{"v1.0.0", "1.0.0", 0},
		{"1.0.0-beta", "1.0.0", 0}, // non-numeric components compare as 0
		{"", "0.0.0", 0},
	}

	for _, tc := range testCases {
		if got := CompareVersions(tc.v1, tc.v2); got != tc.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tc.v1, tc.v2, got, tc.want)
		}
	}
}

func TestIsNewerVersion(t *testing.T) {
	if !IsNewerVersion("1.2.9", "1.3.0") {
		t.Error("1.3.0 should be newer than 1.2.9")
	}
	if IsNewerVersion("1.3.0", "1.2.9") {
		t.Error("1.2.9 should not be newer than 1.3.0")
	}
	if IsNewerVersion("1.2", "1.2.0") {
		t.Error("1.2.0 should not be newer than 1.2")
	}
}

func TestIsValidVersion(t *testing.T) {
	valid := []string{"1.0.0", "v2.3.4", "0.1.0"}
	for _, v := range valid {
		if !IsValidVersion(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	invalid := []string{"", "not-a-version", "one.two.three"}
	for _, v := range invalid {
		if IsValidVersion(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}
