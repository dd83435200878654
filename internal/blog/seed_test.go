package blog_test

import (
	"context"
	"testing"

	"comics-blog/internal/blog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
categories:
  - Comics
  - Films
posts:
  - title: "Iron Man #1"
    author: Stan Lee
    category: Comics
    body: Tony Stark builds a suit.
  - title: Iron Man (2008)
    author: Jon Favreau
    category: films
    body: The first MCU film.
`

func TestApplySeed(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed, err := blog.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Posts, 2)

	result, err := store.ApplySeed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, blog.SeedResult{Categories: 2, Posts: 2}, result)

	result, err = store.ApplySeed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, blog.SeedResult{}, result)

	posts, err := store.Posts().Filter(ctx, "Films")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Jon Favreau", posts[0].Author)
}

func TestApplySeedUnknownCategory(t *testing.T) {
	store := setupStore(t)

	seed, err := blog.ParseSeed([]byte("posts:\n  - title: Saga #1\n    category: Comics\n"))
	require.NoError(t, err)

	_, err = store.ApplySeed(context.Background(), seed)
	var verr *blog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	_, err := blog.ParseSeed([]byte("tags: [a]\n"))
	assert.Error(t, err)
}
