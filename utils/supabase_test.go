package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupabaseStorage_RequiresCredentials(t *testing.T) {
	_, err := NewSupabaseStorage("", "key", "exports")
	assert.Error(t, err)

	_, err = NewSupabaseStorage("https://x.supabase.co", "key", "")
	assert.Error(t, err)
}

func TestSupabaseStorage_PublicURL(t *testing.T) {
	s, err := NewSupabaseStorage("https://x.supabase.co/", "key", "exports")
	require.NoError(t, err)

	assert.Equal(t,
		"https://x.supabase.co/storage/v1/object/public/exports/decks/a/b.json",
		s.PublicURL("/decks/a/b.json"))
}
