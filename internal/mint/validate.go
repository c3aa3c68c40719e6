package mint

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// DefaultMaxImageBytes caps uploaded images
const DefaultMaxImageBytes int64 = 10 << 20

// Attribute is one key/value trait attached to a minted item
type Attribute struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// Image is an uploaded image file
type Image struct {
	Filename string
	Data     []byte
}

// Form is the user input for one mint
type Form struct {
	Name        string      `json:"name" validate:"min=3"`
	Description string      `json:"description" validate:"min=10"`
	Attributes  []Attribute `json:"attributes" validate:"dive"`
	Image       *Image      `json:"image" validate:"required"`
}

// Normalize trims the free-text fields in place
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	for i := range f.Attributes {
		f.Attributes[i].Key = strings.TrimSpace(f.Attributes[i].Key)
		f.Attributes[i].Value = strings.TrimSpace(f.Attributes[i].Value)
	}
}

// AttributeMap flattens attributes, later keys winning
func (f *Form) AttributeMap() map[string]string {
	m := make(map[string]string, len(f.Attributes))
	for _, a := range f.Attributes {
		m[a.Key] = a.Value
	}
	return m
}

func (f *Form) attributeVectors() (keys, values []string) {
	keys = make([]string, 0, len(f.Attributes))
	values = make([]string, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		keys = append(keys, a.Key)
		values = append(values, a.Value)
	}
	return keys, values
}

// ValidationError lists per-field problems with a form
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "invalid mint form: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validator checks mint forms before any network call
type Validator struct {
	validate      *validator.Validate
	maxImageBytes int64
}

// NewValidator creates a validator; maxImageBytes <= 0 uses DefaultMaxImageBytes
func NewValidator(maxImageBytes int64) *Validator {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v, maxImageBytes: maxImageBytes}
}

// MaxImageBytes is the configured upload cap
func (v *Validator) MaxImageBytes() int64 {
	return v.maxImageBytes
}

// Validate normalizes f and returns a *ValidationError when it is unusable
func (v *Validator) Validate(f *Form) error {
	f.Normalize()
	fields := map[string]string{}

	if err := v.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			key := strings.TrimPrefix(fe.Namespace(), "Form.")
			fields[key] = message(key, fe)
		}
	}

	if f.Image != nil {
		switch size := int64(len(f.Image.Data)); {
		case size == 0:
			fields["image"] = "image is required"
		case size > v.maxImageBytes:
			fields["image"] = fmt.Sprintf("image is %s, the limit is %s",
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(v.maxImageBytes)))
		default:
			if mt := mimetype.Detect(f.Image.Data); !strings.HasPrefix(mt.String(), "image/") {
				fields["image"] = fmt.Sprintf("file must be an image, got %s", mt.String())
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "required":
		return field + " is required"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
