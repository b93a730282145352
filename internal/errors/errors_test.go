package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("match_calendar", "date", `cannot parse date "tomorrow"`)
	assert.Equal(t, `schema error in match_calendar: field "date": cannot parse date "tomorrow"`, err.Error())
	assert.True(t, IsSchema(err))
	assert.False(t, IsIntegrity(err))
}

func TestIntegrityError(t *testing.T) {
	err := NewIntegrityError("appearance_panel", "duplicate key")
	assert.Equal(t, "integrity error in appearance_panel: duplicate key", err.Error())
	assert.True(t, IsIntegrity(err))
	assert.False(t, IsSchema(err))
}

func TestWrappedErrorsAreRecognized(t *testing.T) {
	schema := fmt.Errorf("loading feed: %w", NewSchemaError("f", "x", "bad"))
	assert.True(t, IsSchema(schema))

	integrity := fmt.Errorf("merging: %w", NewIntegrityError("t", "dup"))
	assert.True(t, IsIntegrity(integrity))

	assert.False(t, IsSchema(fmt.Errorf("plain")))
	assert.False(t, IsIntegrity(nil))
}
