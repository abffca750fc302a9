package main

import (
	"testing"

	"github.com/atomicstack/bzl/internal/config"
)

func TestCollectTTYDetailsIncludesStandardDescriptors(t *testing.T) {
	info := collectTTYDetails()
	if len(info.Probes) != 3 {
		t.Fatalf("expected 3 probe entries, got %d", len(info.Probes))
	}
	expected := []string{"stdin", "stdout", "stderr"}
	for i, name := range expected {
		if info.Probes[i].Name != name {
			t.Fatalf("expected probe %d name %q, got %q", i, name, info.Probes[i].Name)
		}
	}
}

func TestStartupTracePayloadIncludesFlags(t *testing.T) {
	settings := config.Settings{
		Scope:      "//services/...",
		Kinds:      []string{"genrule"},
		SSHHost:    "dev@build-host",
		SSHDir:     "/src/repo",
		TTLMinutes: 60,
		Logging: config.Logging{
			FilePath: "trace.log",
			Trace:    true,
		},
		Flags: map[string]string{
			"scope":  "//services/...",
			"ssh":    "dev@build-host",
			"sshDir": "/src/repo",
		},
		Args: []string{"--ssh", "dev@build-host"},
	}

	payload := startupTracePayload(settings)

	flagsValue, ok := payload["flags"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected flags map in payload")
	}
	if flagsValue["scope"] != "//services/..." {
		t.Fatalf("expected scope flag, got %v", flagsValue["scope"])
	}
	if flagsValue["ssh"] != "dev@build-host" {
		t.Fatalf("expected ssh flag, got %v", flagsValue["ssh"])
	}
	argv, ok := payload["argv"].([]string)
	if !ok || len(argv) != 2 {
		t.Fatalf("expected argv in payload, got %v", payload["argv"])
	}
	if _, ok := payload["tty"].(ttyDetails); !ok {
		t.Fatalf("expected tty details in payload")
	}
}
