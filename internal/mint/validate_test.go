package mint

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidateAcceptsValidForm(t *testing.T) {
	f := validForm()
	f.Name = "  Badge  "
	require.NoError(t, NewValidator(0).Validate(f))
	assert.Equal(t, "Badge", f.Name)
}

func TestValidateName(t *testing.T) {
	v := NewValidator(0)

	f := validForm()
	f.Name = "ab"
	assert.Contains(t, fieldErrors(t, v.Validate(f)), "name")

	f = validForm()
	f.Name = "   ab   "
	assert.Equal(t, "name must be at least 3 characters", fieldErrors(t, v.Validate(f))["name"])

	f = validForm()
	f.Name = "abc"
	assert.NoError(t, v.Validate(f))

	f = validForm()
	f.Name = "äöü"
	assert.NoError(t, v.Validate(f))
}

func TestValidateDescription(t *testing.T) {
	v := NewValidator(0)

	f := validForm()
	f.Description = "too short"
	assert.Equal(t, "description must be at least 10 characters", fieldErrors(t, v.Validate(f))["description"])

	f = validForm()
	f.Description = "exactly10!"
	assert.NoError(t, v.Validate(f))
}

func TestValidateImage(t *testing.T) {
	v := NewValidator(64)

	f := validForm()
	f.Image = nil
	assert.Equal(t, "image is required", fieldErrors(t, v.Validate(f))["image"])

	f = validForm()
	f.Image.Data = nil
	assert.Equal(t, "image is required", fieldErrors(t, v.Validate(f))["image"])

	f = validForm()
	f.Image.Data = append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	assert.Contains(t, fieldErrors(t, v.Validate(f))["image"], "the limit is 64 B")

	f = validForm()
	f.Image.Data = []byte("%PDF-1.4 not an image")
	assert.Contains(t, fieldErrors(t, v.Validate(f))["image"], "application/pdf")
}

func TestValidateAttributes(t *testing.T) {
	f := validForm()
	f.Attributes = append(f.Attributes, Attribute{Key: "  ", Value: "x"})
	fields := fieldErrors(t, NewValidator(0).Validate(f))
	assert.Equal(t, "attributes[2].key is required", fields["attributes[2].key"])
}

func TestValidateCollectsEveryField(t *testing.T) {
	fields := fieldErrors(t, NewValidator(0).Validate(&Form{Name: "x", Description: "y"}))
	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "image")
}

func TestDefaultMaxImageBytes(t *testing.T) {
	assert.Equal(t, int64(10<<20), NewValidator(0).MaxImageBytes())
}
