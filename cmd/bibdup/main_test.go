package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	setupCLIEnv(t)

	out, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if out, err = runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatalf("expected error without --overwrite, got:\n%s", out)
	}
}

func TestConfigShow(t *testing.T) {
	configPath := setupCLIEnv(t)

	out, err := runCLI(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	requireContains(t, out, "[thresholds]")
	requireContains(t, out, "auto_merge = 85")
}

func TestAddThenAutoMergeDuplicate(t *testing.T) {
	configPath := setupCLIEnv(t)

	out, err := runCLI(t, "--config", configPath, "add", "Original Paper", "--doi", "10.1/X")
	if err != nil {
		t.Fatalf("add original: %v\n%s", err, out)
	}
	requireContains(t, out, "0 merged")

	out, err = runCLI(t, "--config", configPath, "add", "Duplicate Paper", "--doi", "10.1/X")
	if err != nil {
		t.Fatalf("add duplicate: %v\n%s", err, out)
	}
	requireContains(t, out, "1 merged")
	requireContains(t, out, "Exact DOI match")
}

func TestScanFlagsReviewTierMatch(t *testing.T) {
	configPath := setupCLIEnv(t)

	out, err := runCLI(t, "--config", configPath, "add", "Deep Learning Basics",
		"--author", "Smith, J.", "--date", "2017", "--no-dedup")
	if err != nil {
		t.Fatalf("seed record: %v\n%s", err, out)
	}

	out, err = runCLI(t, "--config", configPath, "add", "Deep Learning Basics",
		"--author", "Smith, Jane", "--date", "2020", "--no-dedup")
	if err != nil {
		t.Fatalf("add record: %v\n%s", err, out)
	}
	key := addedKey(t, out)

	out, err = runCLI(t, "--config", configPath, "scan", key)
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	requireContains(t, out, "Flagged for review")
	requireContains(t, out, "1 flagged")
	requireContains(t, out, key)
}

func TestScanRequiresSelection(t *testing.T) {
	configPath := setupCLIEnv(t)

	if out, err := runCLI(t, "--config", configPath, "scan"); err == nil {
		t.Fatalf("expected error without keys or --since, got:\n%s", out)
	}
}

func TestScanSince(t *testing.T) {
	configPath := setupCLIEnv(t)

	out, err := runCLI(t, "--config", configPath, "add", "Lone Paper", "--no-dedup")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}

	out, err = runCLI(t, "--config", configPath, "scan", "--since", "1h")
	if err != nil {
		t.Fatalf("scan --since: %v\n%s", err, out)
	}
	requireContains(t, out, "Scanned 1 record(s)")
	requireContains(t, out, "0 merged")
}

func TestDeleteCommand(t *testing.T) {
	configPath := setupCLIEnv(t)

	out, err := runCLI(t, "--config", configPath, "add", "Disposable Paper", "--no-dedup")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	key := addedKey(t, out)

	out, err = runCLI(t, "--config", configPath, "delete", key)
	if err != nil {
		t.Fatalf("delete: %v\n%s", err, out)
	}
	requireContains(t, out, "Deleted record "+key)

	out, err = runCLI(t, "--config", configPath, "delete", key)
	if err == nil {
		t.Fatalf("expected error deleting twice, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "already deleted") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScanJSONOutput(t *testing.T) {
	configPath := setupCLIEnv(t)

	out, err := runCLI(t, "--config", configPath, "add", "Solo Paper", "--no-dedup")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	key := addedKey(t, out)

	out, err = runCLI(t, "--config", configPath, "--json", "scan", key)
	if err != nil {
		t.Fatalf("scan --json: %v\n%s", err, out)
	}
	requireContains(t, out, `"processed": true`)
	requireContains(t, out, `"auto_merged": []`)
}
