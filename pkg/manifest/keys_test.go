// SPDX-License-Identifier: MPL-2.0

package manifest

import "testing"

func TestCanonicalKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"id", "id"},
		{"appId", "id"},
		{"app-id", "id"},
		{"runtimeVersion", "runtime-version"},
		{"runtime-version", "runtime-version"},
		{"runtime_version", "runtime-version"},
		{"sdkFlatpakref", "sdk-flatpakref"},
		{"finishArgs", "finish-args"},
		{"extraFlatpakBuilderArgs", "extra-flatpak-builder-args"},
		{"bundleRepoURL", "bundle-repo-url"},
		{"URLPath", "url-path"},
		{"gpgSign", "gpg-sign"},
		{"x11Socket", "x11-socket"},
	}
	for _, tt := range tests {
		if got := CanonicalKey(tt.in); got != tt.want {
			t.Errorf("CanonicalKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeKeys_CanonicalWins(t *testing.T) {
	t.Parallel()

	got := CanonicalizeKeys(map[string]any{
		"finishArgs":  "camel",
		"finish-args": "kebab",
		"appId":       "org.a.B",
	})
	if got["finish-args"] != "kebab" {
		t.Errorf("finish-args = %v, want the canonical spelling to win", got["finish-args"])
	}
	if got["id"] != "org.a.B" {
		t.Errorf("id = %v, want appId to map onto id", got["id"])
	}
	if _, ok := got["finishArgs"]; ok {
		t.Error("non-canonical key should not survive")
	}
}

func TestCanonicalizeKeys_NestedUntouched(t *testing.T) {
	t.Parallel()

	module := map[string]any{"buildCommands": []any{"make"}}
	got := CanonicalizeKeys(map[string]any{"modules": []any{module}})
	mods := got["modules"].([]any)
	if _, ok := mods[0].(map[string]any)["buildCommands"]; !ok {
		t.Error("nested module keys must pass through unchanged")
	}
}
