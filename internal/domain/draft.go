package domain

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// MaxAttachmentBytes caps the decoded size of a single attachment.
const MaxAttachmentBytes = 1 << 20

// FieldErrors maps a form field to the reason it was rejected.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return strings.Join(parts, "; ")
}

// IssueDraft is the content of the issue form.
type IssueDraft struct {
	Title       string
	Description string
	Category    string
	SubCategory string
	Place       string
	Location    string
	Priority    IssuePriority
	Attachments []Attachment
}

// Normalize trims free-text fields.
func (d IssueDraft) Normalize() IssueDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.SubCategory = strings.TrimSpace(d.SubCategory)
	d.Place = strings.TrimSpace(d.Place)
	d.Location = strings.TrimSpace(d.Location)
	return d
}

// Validate checks required fields and catalog membership. It returns nil or FieldErrors.
func (d IssueDraft) Validate(catalog Catalog) error {
	problems := FieldErrors{}
	required := map[string]string{
		"title":       d.Title,
		"description": d.Description,
		"category":    d.Category,
		"subCategory": d.SubCategory,
		"place":       d.Place,
		"location":    d.Location,
		"priority":    string(d.Priority),
	}
	for field, value := range required {
		if value == "" {
			problems[field] = "required"
		}
	}

	if d.Category != "" && !catalog.HasCategory(d.Category) {
		problems["category"] = "unknown category"
	} else if d.SubCategory != "" && !catalog.HasSubCategory(d.Category, d.SubCategory) {
		problems["subCategory"] = "not part of the selected category"
	}
	if d.Place != "" && !catalog.HasPlace(d.Place) {
		problems["place"] = "unknown place"
	}
	if d.Location != "" && !catalog.HasBranch(d.Location) {
		problems["location"] = "unknown branch"
	}
	if d.Priority != "" && !d.Priority.Valid() {
		problems["priority"] = "unknown priority"
	}
	if err := ValidateAttachments(d.Attachments); err != nil {
		problems["attachments"] = err.Error()
	}

	if len(problems) > 0 {
		return problems
	}
	return nil
}

// ValidateAttachments rejects undecodable or oversized inline files.
func ValidateAttachments(attachments []Attachment) error {
	for _, attachment := range attachments {
		size, err := decodedSize(attachment.Data)
		if err != nil {
			return fmt.Errorf("%s is not valid base64", attachment.Name)
		}
		if size > MaxAttachmentBytes {
			return fmt.Errorf("%s exceeds the 1 MiB limit", attachment.Name)
		}
	}
	return nil
}

// decodedSize accepts bare base64 or a data: URI.
func decodedSize(data string) (int, error) {
	if idx := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return 0, err
	}
	return len(decoded), nil
}
