package bazel

import (
	"reflect"
	"testing"
)

func TestParseCatalogGroupsTargetsByModule(t *testing.T) {
	raw := "//services/alerts:generate_client\n" +
		"//services/alerts:generate_docs\n" +
		"//tools/proto:compile\n"
	catalog := ParseCatalog(raw, "genrule")
	if len(catalog.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(catalog.Modules))
	}
	alerts := catalog.Module("//services/alerts")
	if alerts == nil {
		t.Fatalf("expected //services/alerts module")
	}
	if len(alerts.Targets) != 2 {
		t.Fatalf("expected 2 targets in //services/alerts, got %d", len(alerts.Targets))
	}
	first := alerts.Targets[0]
	if first.Label != "//services/alerts:generate_client" {
		t.Fatalf("unexpected label %q", first.Label)
	}
	if first.Name != "generate_client" {
		t.Fatalf("unexpected name %q", first.Name)
	}
	if first.Kind != "genrule" {
		t.Fatalf("unexpected kind %q", first.Kind)
	}
	if first.Module != "//services/alerts" {
		t.Fatalf("unexpected module %q", first.Module)
	}
	if catalog.TargetCount() != 3 {
		t.Fatalf("expected 3 targets total, got %d", catalog.TargetCount())
	}
}

func TestParseCatalogPreservesFirstSeenModuleOrder(t *testing.T) {
	raw := "//zz:one\n//aa:two\n//zz:three\n"
	catalog := ParseCatalog(raw, "genrule")
	if len(catalog.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(catalog.Modules))
	}
	if catalog.Modules[0].Path != "//zz" {
		t.Fatalf("expected //zz first, got %q", catalog.Modules[0].Path)
	}
	if catalog.Modules[1].Path != "//aa" {
		t.Fatalf("expected //aa second, got %q", catalog.Modules[1].Path)
	}
}

func TestParseCatalogSkipsNonLabelLines(t *testing.T) {
	raw := "Loading: 0 packages loaded\n" +
		"\n" +
		"//ok:target\n" +
		"//missing-colon\n" +
		"//empty-name:\n" +
		"  \n"
	catalog := ParseCatalog(raw, "genrule")
	if catalog.TargetCount() != 1 {
		t.Fatalf("expected 1 target, got %d", catalog.TargetCount())
	}
	if catalog.Modules[0].Path != "//ok" {
		t.Fatalf("unexpected module %q", catalog.Modules[0].Path)
	}
}

func TestParseCatalogEmptyOutputIsValid(t *testing.T) {
	catalog := ParseCatalog("", "genrule")
	if catalog == nil {
		t.Fatalf("expected catalog, got nil")
	}
	if len(catalog.Modules) != 0 {
		t.Fatalf("expected 0 modules, got %d", len(catalog.Modules))
	}
	if catalog.TargetCount() != 0 {
		t.Fatalf("expected 0 targets, got %d", catalog.TargetCount())
	}
}

func TestCatalogModuleReturnsNilForUnknownPath(t *testing.T) {
	catalog := ParseCatalog("//a:b\n", "genrule")
	if catalog.Module("//nope") != nil {
		t.Fatalf("expected nil for unknown module")
	}
	var empty *Catalog
	if empty.Module("//a") != nil {
		t.Fatalf("expected nil module on nil catalog")
	}
	if empty.TargetCount() != 0 {
		t.Fatalf("expected 0 targets on nil catalog")
	}
}

func TestParseKindsDeduplicatesAndSorts(t *testing.T) {
	raw := "genrule rule //a:one\n" +
		"sh_binary rule //a:two\n" +
		"genrule rule //b:three\n" +
		"alias rule //c:four\n" +
		"malformed\n"
	kinds := ParseKinds(raw)
	want := []string{"alias", "genrule", "sh_binary"}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
}
