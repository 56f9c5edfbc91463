package domain

// Category groups the subcategories an issue may be filed under.
type Category struct {
	Name          string
	SubCategories []string
}

// Catalog is the configuration table of categories, places and branches.
type Catalog struct {
	Categories []Category
	Places     []string
	Branches   []string
}

// CategoryNames returns the category names in configured order.
func (c Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, category := range c.Categories {
		names = append(names, category.Name)
	}
	return names
}

// SubCategories returns the subcategories of a category, or nil when unknown.
func (c Catalog) SubCategories(category string) []string {
	for _, entry := range c.Categories {
		if entry.Name == category {
			return entry.SubCategories
		}
	}
	return nil
}

// HasCategory reports whether the category is configured.
func (c Catalog) HasCategory(category string) bool {
	for _, entry := range c.Categories {
		if entry.Name == category {
			return true
		}
	}
	return false
}

// HasSubCategory reports whether sub belongs to category.
func (c Catalog) HasSubCategory(category, sub string) bool {
	return contains(c.SubCategories(category), sub)
}

// HasPlace reports whether the place is configured.
func (c Catalog) HasPlace(place string) bool {
	return contains(c.Places, place)
}

// HasBranch reports whether the branch location is configured.
func (c Catalog) HasBranch(branch string) bool {
	return contains(c.Branches, branch)
}

// ReconcileSubCategory keeps sub only while it belongs to category.
func (c Catalog) ReconcileSubCategory(category, sub string) string {
	if sub == "" || !c.HasSubCategory(category, sub) {
		return ""
	}
	return sub
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
