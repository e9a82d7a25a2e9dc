package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", "tok", nil)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ", "tok", nil)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	genID := uuid.New()
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flashcards/generate", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var cmd models.GenerateFlashcardsCommand
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cmd))
		assert.Equal(t, "some text", cmd.SourceText)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.GeneratedFlashcards{
			GenerationID:   genID,
			Model:          "m",
			Suggestions:    []models.FlashcardSuggestion{{Front: "Q", Back: "A", Source: models.SourceAIFull}},
			GeneratedCount: 1,
		})
	})

	out, err := c.Generate(context.Background(), "some text")

	require.NoError(t, err)
	assert.Equal(t, genID, out.GenerationID)
	assert.Len(t, out.Suggestions, 1)
}

func TestGenerate_APIError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"No flashcards generated","code":"EMPTY_RESULTS","message":"Try different content."}`)
	})

	_, err := c.Generate(context.Background(), "x")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "EMPTY_RESULTS", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Try different content.")
}

func TestSaveFlashcards_NothingSavedKeepsResult(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"data":[],"failed":[{"index":0,"error":"front must not be empty"}]}`)
	})

	res, err := c.SaveFlashcards(context.Background(), []models.CreateFlashcardInput{{Source: models.SourceManual}})

	require.Error(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "front must not be empty", res.Failed[0].Error)
}

func TestSaveFlashcards_PlainTextError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	res, err := c.SaveFlashcards(context.Background(), nil)

	assert.Nil(t, res)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad gateway", apiErr.Summary)
}

func TestExtractSourceText(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "notes.txt", fh.Filename)
		_ = json.NewEncoder(w).Encode(models.ExtractedSourceText{SourceText: string(data), Length: len(data)})
	})

	out, err := c.ExtractSourceText(context.Background(), "notes.txt", strings.NewReader("hello"))

	require.NoError(t, err)
	assert.Equal(t, "hello", out.SourceText)
	assert.Equal(t, 5, out.Length)
}
