package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/apperr"
)

type sample struct {
	Name     string `json:"name" validate:"min=2,max=5"`
	Email    string `json:"email" validate:"omitempty,email"`
	Duration int    `json:"durationMinutes" validate:"min=5,max=480"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Name: "a", Duration: 30})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, "name must be at least 2 characters", apperr.Message(err))

	err = Struct(sample{Name: "abc", Duration: 481})
	assert.Equal(t, "durationMinutes must be at most 480", apperr.Message(err))

	err = Struct(sample{Name: "abc", Email: "nope", Duration: 30})
	assert.Equal(t, "email must be a valid email", apperr.Message(err))
}

func TestStructAcceptsValid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "abc", Duration: 5}))
	assert.NoError(t, Struct(sample{Name: "abc", Email: "a@b.co", Duration: 480}))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Dental":         "acme-dental",
		"  --Acme__Dental!! ": "acme-dental",
		"Café 24/7":           "caf-24-7",
		"already-ok":          "already-ok",
		"!!!":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "owner@acme.test", NormalizeEmail("  Owner@ACME.test "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
