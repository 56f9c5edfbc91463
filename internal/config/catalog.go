package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/streetburger/issuedesk/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Categories []struct {
		Name          string   `yaml:"name"`
		SubCategories []string `yaml:"subcategories"`
	} `yaml:"categories"`
	Places   []string `yaml:"places"`
	Branches []string `yaml:"branches"`
}

// LoadCatalog reads the category/place/branch table from cfg.Path, or the
// built-in table when no path is configured.
func LoadCatalog(cfg CatalogConfig) (domain.Catalog, error) {
	raw := defaultCatalog
	if cfg.Path != "" {
		content, err := os.ReadFile(cfg.Path)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
		raw = content
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML catalog and checks it is usable.
func ParseCatalog(raw []byte) (domain.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	catalog := domain.Catalog{
		Places:   file.Places,
		Branches: file.Branches,
	}
	seen := make(map[string]struct{}, len(file.Categories))
	for _, entry := range file.Categories {
		if entry.Name == "" {
			return domain.Catalog{}, errors.New("catalog: category without a name")
		}
		if _, dup := seen[entry.Name]; dup {
			return domain.Catalog{}, fmt.Errorf("catalog: duplicate category %q", entry.Name)
		}
		if len(entry.SubCategories) == 0 {
			return domain.Catalog{}, fmt.Errorf("catalog: category %q has no subcategories", entry.Name)
		}
		seen[entry.Name] = struct{}{}
		catalog.Categories = append(catalog.Categories, domain.Category{
			Name:          entry.Name,
			SubCategories: entry.SubCategories,
		})
	}
	if len(catalog.Categories) == 0 {
		return domain.Catalog{}, errors.New("catalog: no categories")
	}
	if len(catalog.Places) == 0 || len(catalog.Branches) == 0 {
		return domain.Catalog{}, errors.New("catalog: places and branches are required")
	}
	return catalog, nil
}
