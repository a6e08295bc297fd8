package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func saveAndRestore() func() {
	v, c, b, bt := Version, GitCommit, GitBranch, BuildTime
	return func() {
		Version, GitCommit, GitBranch, BuildTime = v, c, b, bt
	}
}

func TestGetVersionInfoDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit = "dev", ""

	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("expected dev, got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev builds are not releases")
	}
}

func TestGetVersionInfoTruncatesCommit(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit = "1.2.0", "0123456789abcdef"

	info := GetVersionInfo()
	if info.GitCommit != "0123456" {
		t.Errorf("expected short commit, got %q", info.GitCommit)
	}
}

func TestApplyBuildInfo(t *testing.T) {
	info := &Info{Version: "1.0.0", BuildTime: ""}
	applyBuildInfo(info, &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abcdef1234"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})
	if info.GitCommit != "abcdef1234" || !info.IsDirty || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("expected go version, got %q", info.GoVersion)
	}

	explicit := &Info{GitCommit: "fixed", BuildTime: "yesterday"}
	applyBuildInfo(explicit, &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "other"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
	}})
	if explicit.GitCommit != "fixed" || explicit.BuildTime != "yesterday" {
		t.Errorf("ldflags values must win, got %+v", explicit)
	}
}

func TestGetShortVersion(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit = "1.2.0", "abc1234"

	got := GetShortVersion()
	if !strings.HasPrefix(got, "1.2.0-abc1234") {
		t.Errorf("expected 1.2.0-abc1234 prefix, got %q", got)
	}
}
