package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRating_Validate(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"minimum value", 1, false},
		{"maximum value", 10, false},
		{"middle value", 7, false},
		{"zero rejected", 0, true},
		{"eleven rejected", 11, true},
		{"negative rejected", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating := &Rating{
				UserID:  1,
				MovieID: 42,
				Value:   tt.value,
				RatedAt: time.Now(),
			}

			err := rating.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "rating value must be between")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRating_WithoutNotes(t *testing.T) {
	rating := &Rating{
		UserID:  1,
		MovieID: 42,
		Value:   8,
		Notes:   sql.NullString{Valid: false},
	}

	assert.False(t, rating.Notes.Valid, "rating may not have notes")
	assert.NoError(t, rating.Validate())
}
