package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := LoadCatalog(CatalogConfig{})
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if got := len(catalog.Categories); got != 7 {
		t.Errorf("categories = %d, want 7", got)
	}
	if !catalog.HasSubCategory("Electrical", "Wiring and cabling") {
		t.Error("Electrical should contain Wiring and cabling")
	}
	if catalog.HasSubCategory("Plumbing & Drainage", "Wiring and cabling") {
		t.Error("Plumbing & Drainage must not contain Wiring and cabling")
	}
	if !catalog.HasPlace("Accommodation") || !catalog.HasBranch("Dematagoda CK") {
		t.Error("default places/branches missing")
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := []byte("categories:\n  - name: Signage\n    subcategories: [Lightbox]\nplaces: [Outlet]\nbranches: [Galle]\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(CatalogConfig{Path: path})
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if names := catalog.CategoryNames(); len(names) != 1 || names[0] != "Signage" {
		t.Errorf("CategoryNames = %v", names)
	}
}

func TestParseCatalogRejectsBrokenTables(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":          "places: [Outlet]\nbranches: [Galle]\n",
		"no subcategory": "categories:\n  - name: A\nplaces: [Outlet]\nbranches: [Galle]\n",
		"duplicate":      "categories:\n  - name: A\n    subcategories: [x]\n  - name: A\n    subcategories: [y]\nplaces: [Outlet]\nbranches: [Galle]\n",
		"no branches":    "categories:\n  - name: A\n    subcategories: [x]\nplaces: [Outlet]\n",
		"not yaml":       "categories: [",
	}
	for name, raw := range cases {
		if _, err := ParseCatalog([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
