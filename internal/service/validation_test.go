package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"valid short", "a", false},
		{"valid typical", "abc1234", false},
		{"valid at limit", strings.Repeat("x", MaxSlugLength), false},
		{"empty", "", true},
		{"over limit", strings.Repeat("x", MaxSlugLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSlug)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCustomSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"valid", "my-menu_2024", false},
		{"minimum length", "abc", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 65), true},
		{"spaces", "my menu", true},
		{"slash", "a/b/c", true},
		{"unicode", "café", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustomSlug(tt.slug)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSlug)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/path?q=1", false},
		{"http", "http://example.com", false},
		{"empty", "", true},
		{"no scheme", "example.com/path", true},
		{"ftp", "ftp://example.com/file", true},
		{"javascript", "javascript:alert(1)", true},
		{"no host", "https://", true},
		{"too long", "https://example.com/" + strings.Repeat("a", maxTargetURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTargetURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
