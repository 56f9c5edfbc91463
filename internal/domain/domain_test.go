package domain

import (
	"encoding/base64"
	"strings"
	"testing"
)

var testCatalog = Catalog{
	Categories: []Category{
		{Name: "Electrical", SubCategories: []string{"Wiring and cabling", "Lighting and switches"}},
		{Name: "Plumbing & Drainage", SubCategories: []string{"Leak repairs", "Drain blockages"}},
	},
	Places:   []string{"Outlet", "Accommodation"},
	Branches: []string{"Galle", "Kotte"},
}

func TestParseCoercesUnknownValues(t *testing.T) {
	t.Parallel()

	if got := ParseStatus("in_progress"); got != IssueStatusInProgress {
		t.Errorf("ParseStatus(in_progress) = %s", got)
	}
	if got := ParseStatus("ARCHIVED"); got != IssueStatusOpen {
		t.Errorf("ParseStatus(ARCHIVED) = %s, want OPEN", got)
	}
	if got := ParsePriority(""); got != IssuePriorityMedium {
		t.Errorf("ParsePriority('') = %s, want MEDIUM", got)
	}
	if got := ParsePriority("critical"); got != IssuePriorityCritical {
		t.Errorf("ParsePriority(critical) = %s", got)
	}
	if got := ParseRole("superuser"); got != RoleStaff {
		t.Errorf("ParseRole(superuser) = %s, want STAFF", got)
	}
	if got := ParseRole("manager"); got != RoleManager {
		t.Errorf("ParseRole(manager) = %s", got)
	}
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	if got := IssueStatusInProgress.Label(); got != "IN PROGRESS" {
		t.Errorf("Label = %q", got)
	}
}

func TestReconcileSubCategoryClearsOnCategoryChange(t *testing.T) {
	t.Parallel()

	if got := testCatalog.ReconcileSubCategory("Plumbing & Drainage", "Wiring and cabling"); got != "" {
		t.Errorf("incompatible subcategory kept: %q", got)
	}
	if got := testCatalog.ReconcileSubCategory("Electrical", "Wiring and cabling"); got != "Wiring and cabling" {
		t.Errorf("compatible subcategory dropped: %q", got)
	}
}

func validDraft() IssueDraft {
	return IssueDraft{
		Title:       "AC not cooling",
		Description: "Dining area unit blows warm air",
		Category:    "Electrical",
		SubCategory: "Wiring and cabling",
		Place:       "Outlet",
		Location:    "Galle",
		Priority:    IssuePriorityHigh,
	}
}

func TestDraftValidate(t *testing.T) {
	t.Parallel()

	if err := validDraft().Validate(testCatalog); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	cases := map[string]struct {
		mutate func(*IssueDraft)
		field  string
	}{
		"missing title":       {func(d *IssueDraft) { d.Title = "" }, "title"},
		"foreign subcategory": {func(d *IssueDraft) { d.SubCategory = "Leak repairs" }, "subCategory"},
		"unknown category":    {func(d *IssueDraft) { d.Category = "Magic" }, "category"},
		"unknown branch":      {func(d *IssueDraft) { d.Location = "Atlantis" }, "location"},
		"unknown place":       {func(d *IssueDraft) { d.Place = "Roof" }, "place"},
		"bad priority":        {func(d *IssueDraft) { d.Priority = "URGENT" }, "priority"},
	}
	for name, tc := range cases {
		draft := validDraft()
		tc.mutate(&draft)
		err := draft.Validate(testCatalog)
		problems, ok := err.(FieldErrors)
		if !ok {
			t.Errorf("%s: error = %v, want FieldErrors", name, err)
			continue
		}
		if _, found := problems[tc.field]; !found {
			t.Errorf("%s: problems = %v, want field %s", name, problems, tc.field)
		}
	}
}

func TestAttachmentSizeCap(t *testing.T) {
	t.Parallel()

	small := base64.StdEncoding.EncodeToString([]byte("hello"))
	big := base64.StdEncoding.EncodeToString(make([]byte, MaxAttachmentBytes+1))

	if err := ValidateAttachments([]Attachment{{Name: "a.txt", Data: "data:text/plain;base64," + small}}); err != nil {
		t.Errorf("small data URI rejected: %v", err)
	}
	err := ValidateAttachments([]Attachment{{Name: "big.bin", Data: big}})
	if err == nil || !strings.Contains(err.Error(), "1 MiB") {
		t.Errorf("oversized attachment error = %v", err)
	}
	if err := ValidateAttachments([]Attachment{{Name: "junk", Data: "%%%"}}); err == nil {
		t.Error("invalid base64 accepted")
	}
}

func TestPatchEmpty(t *testing.T) {
	t.Parallel()

	if !(IssuePatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	title := "x"
	if (IssuePatch{Title: &title}).Empty() {
		t.Error("patch with title should not be empty")
	}
}
