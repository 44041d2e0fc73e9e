package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// photo_url historically arrived in several shapes; every one of them must
// normalize to a plain ordered []string on read.
func TestStringList_ScanNormalizesLegacyShapes(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  StringList
	}{
		{"json array", []byte(`["https://a.jpg","https://b.png"]`), StringList{"https://a.jpg", "https://b.png"}},
		{"bare json string", []byte(`"https://a.jpg"`), StringList{"https://a.jpg"}},
		{"double-encoded array", []byte(`"[\"https://a.jpg\",\"https://b.png\"]"`), StringList{"https://a.jpg", "https://b.png"}},
		{"raw url, not json", []byte(`https://a.jpg`), StringList{"https://a.jpg"}},
		{"string input", `["https://a.jpg"]`, StringList{"https://a.jpg"}},
		{"empty json string", []byte(`""`), nil},
		{"null", nil, nil},
		{"empty bytes", []byte{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, l.Scan(tt.input))
			assert.Equal(t, tt.want, l)
		})
	}
}

func TestStringList_ValueEmptyIsNull(t *testing.T) {
	var l StringList
	v, err := l.Value()
	require.NoError(t, err)
	assert.Nil(t, v, "empty list stores as NULL, not as an empty array")
}

func TestStringList_ValueMarshalsOrderedArray(t *testing.T) {
	l := StringList{"https://a.jpg", "https://b.png"}
	v, err := l.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["https://a.jpg","https://b.png"]`, string(v.([]byte)))
}

func TestUserType_Valid(t *testing.T) {
	assert.True(t, UserTypeAttendee.Valid())
	assert.True(t, UserTypeBrand.Valid())
	assert.False(t, UserType("organizer").Valid())
	assert.False(t, UserType("").Valid())
}
