package tooling

import (
	"context"
	"testing"

	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detailStore describes contact.name
type detailStore struct{}

func (detailStore) Children(_ context.Context, parent string) ([]vocabulary.Entry, error) {
	if parent == "contact" {
		return []vocabulary.Entry{{Name: "name", Path: "contact.name", Detail: "The full name of the contact", Kind: vocabulary.KindField}}, nil
	}
	return nil, nil
}

func (detailStore) Functions(context.Context) ([]vocabulary.Entry, error) {
	return nil, nil
}

func TestGetHover(t *testing.T) {
	api := NewAPIWithConfig(Config{Vocabulary: detailStore{}})
	api.OpenDocument("a.txt", "Hi @Contact.Name! Total @(1 + 2) or @(3", 1)
	ctx := context.Background()

	hover, err := api.GetHover(ctx, "a.txt", Position{Line: 0, Character: 5})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "@Contact.Name")
	assert.Contains(t, hover.Contents, "**Context path** in `contact`")
	assert.Contains(t, hover.Contents, "The full name of the contact")
	assert.Equal(t, Range{Start: Position{Line: 0, Character: 3}, End: Position{Line: 0, Character: 16}}, hover.Range)

	hover, err = api.GetHover(ctx, "a.txt", Position{Line: 0, Character: 26})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "@(1 + 2)")
	assert.NotContains(t, hover.Contents, "unterminated")

	hover, err = api.GetHover(ctx, "a.txt", Position{Line: 0, Character: 37})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "*(unterminated)*")

	hover, err = api.GetHover(ctx, "a.txt", Position{Line: 0, Character: 0})
	require.NoError(t, err)
	assert.Nil(t, hover)

	_, err = api.GetHover(ctx, "missing.txt", Position{})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
