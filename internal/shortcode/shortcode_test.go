package shortcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Len(t, code, GeneratedLen)
		assert.NoError(t, Validate(code), "generated code must satisfy custom code rules: %q", code)
	}
}

func TestGenerate_CandidatesVary(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 draws from a 48-bit space colliding down to one value would mean a
	// broken random source.
	assert.Greater(t, len(seen), 1)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "minimum length", code: "abc", wantErr: false},
		{name: "maximum length", code: "Ab12Cd3e", wantErr: false},
		{name: "hyphen and underscore allowed", code: "a-b_c", wantErr: false},
		{name: "digits only", code: "12345", wantErr: false},
		{name: "too short", code: "ab", wantErr: true},
		{name: "too long", code: "abcdefghi", wantErr: true},
		{name: "empty", code: "", wantErr: true},
		{name: "space", code: "ab cd", wantErr: true},
		{name: "slash", code: "ab/cd", wantErr: true},
		{name: "plus", code: "ab+cd", wantErr: true},
		{name: "non-ascii", code: "абвг", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCustomCode)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_CustomCodePassedThrough(t *testing.T) {
	code, err := New("my-code")
	require.NoError(t, err)
	assert.Equal(t, "my-code", code)
}

func TestNew_GeneratesWhenCustomEmpty(t *testing.T) {
	code, err := New("")
	require.NoError(t, err)
	assert.Len(t, code, GeneratedLen)
}

func TestNew_RejectsInvalidCustomCode(t *testing.T) {
	_, err := New("no")
	assert.ErrorIs(t, err, ErrInvalidCustomCode)
}
