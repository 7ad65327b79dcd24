// Package template manages the versioned attribute schema: publishing
// immutable version snapshots and validating contact attribute payloads
// against the latest one. Stored payloads are never migrated in place;
// a field removed from the template simply stops being validated while
// historical values remain readable.
package template

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
	"github.com/marloe/tend/internal/temporal"
)

// Field types accepted in a template definition.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
)

// Field describes one attribute slot: its type, display metadata, and
// declared validation rules.
type Field struct {
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Format      string   `json:"format,omitempty" yaml:"format"`
	Reminder    string   `json:"reminder,omitempty" yaml:"reminder"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern"`
	Min         *float64 `json:"min,omitempty" yaml:"min"`
	Max         *float64 `json:"max,omitempty" yaml:"max"`
}

// Category groups related fields.
type Category struct {
	Description string           `json:"description,omitempty" yaml:"description"`
	Fields      map[string]Field `json:"fields" yaml:"fields"`
}

// Categories is a full template definition.
type Categories map[string]Category

// Version is one immutable snapshot of the template. Checksum
// fingerprints the definition so republishing an unchanged one can be
// skipped.
type Version struct {
	Version    int        `json:"version"`
	Categories Categories `json:"categories"`
	Checksum   string     `json:"checksum"`
	CreatedAt  time.Time  `json:"created_at"`
}

// checkDefinition rejects malformed templates at publish time: unknown
// field types and patterns that do not compile.
func checkDefinition(cats Categories) error {
	for catName, cat := range cats {
		for fieldName, f := range cat.Fields {
			path := catName + "." + fieldName
			switch f.Type {
			case TypeString, TypeNumber, TypeBoolean, TypeDate:
			default:
				return apperr.Validation("%s: unknown field type %q", path, f.Type)
			}
			if f.Pattern != "" {
				if _, err := regexp.Compile(f.Pattern); err != nil {
					return apperr.Validation("%s: invalid pattern: %v", path, err)
				}
			}
		}
	}
	return nil
}

// Validate checks a sparse attribute payload against this version.
// Every present field must exist in the template and pass its declared
// rules; missing fields are never an error. Failures name the offending
// category.field path and the rule violated.
func (v *Version) Validate(attrs domain.Attributes) error {
	for catName, fields := range attrs {
		cat, ok := v.Categories[catName]
		if !ok {
			return apperr.Validation("%s: unknown category", catName)
		}
		for fieldName, value := range fields {
			path := catName + "." + fieldName
			f, ok := cat.Fields[fieldName]
			if !ok {
				return apperr.Validation("%s: unknown field", path)
			}
			if err := f.validateValue(path, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f Field) validateValue(path string, value any) error {
	if value == nil {
		return apperr.Validation("%s: null values are not stored; omit the field instead", path)
	}
	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return apperr.Validation("%s: expected string, got %T", path, value)
		}
		if f.Pattern != "" {
			re := regexp.MustCompile(f.Pattern) // compiled at publish time, known valid
			if err := validation.Validate(s, validation.Match(re)); err != nil {
				return apperr.Validation("%s: %v (pattern %s)", path, err, f.Pattern)
			}
		}
	case TypeNumber:
		n, ok := toFloat(value)
		if !ok {
			return apperr.Validation("%s: expected number, got %T", path, value)
		}
		var rules []validation.Rule
		if f.Min != nil {
			rules = append(rules, validation.Min(*f.Min))
		}
		if f.Max != nil {
			rules = append(rules, validation.Max(*f.Max))
		}
		if err := validation.Validate(n, rules...); err != nil {
			return apperr.Validation("%s: %v", path, err)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return apperr.Validation("%s: expected boolean, got %T", path, value)
		}
	case TypeDate:
		s, ok := value.(string)
		if !ok {
			return apperr.Validation("%s: expected RFC 3339 date string, got %T", path, value)
		}
		if _, err := temporal.Parse(s); err != nil {
			return apperr.Validation("%s: %v", path, err)
		}
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
