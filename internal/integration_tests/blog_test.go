package integrationtests

import (
	"context"
	"net/url"
	"testing"

	backend "comics-blog/internal/api"
	"comics-blog/internal/blog"
	"comics-blog/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

func TestBlogOnPostgres(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	db := createDB(t)
	store := blog.NewStore(db)

	router := chi.NewRouter()
	backend.NewBlogService(store.Posts(), store.Categories()).AddRoutes(router)

	for _, name := range []string{"Comics", "Films"} {
		var category api.Category
		require.NoError(t, httpRequest(router, "POST", "/categories", api.CategoryRequest{Name: name}, &category))
		assert.Equal(t, name, category.Name)
	}

	for _, req := range []api.CreatePostRequest{
		{Title: "Iron Man #1", Author: "Stan Lee", Body: "Tony Stark builds a suit.", Category: "Comics"},
		{Title: "Thor #1", Author: "Stan Lee", Body: "The god of thunder leaves Asgard.", Category: "comics"},
		{Title: "Iron Man (2008)", Author: "Jon Favreau", Body: "The first MCU film, 100% fun.", Category: "Films"},
	} {
		require.NoError(t, httpRequest(router, "POST", "/posts", req, nil))
	}

	var posts []api.Post
	require.NoError(t, httpRequest(router, "GET", "/posts", nil, &posts))
	require.Len(t, posts, 3)
	assert.Equal(t, "Iron Man (2008)", posts[0].Title)

	require.NoError(t, httpRequest(router, "GET", "/posts?category=COMICS", nil, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "Thor #1", posts[0].Title)

	query := url.QueryEscape(`title CONTAINS "iron" AND NOT category = "films"`)
	require.NoError(t, httpRequest(router, "GET", "/posts?q="+query, nil, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Iron Man #1", posts[0].Title)

	query = url.QueryEscape(`body CONTAINS "100%"`)
	require.NoError(t, httpRequest(router, "GET", "/posts?q="+query, nil, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Iron Man (2008)", posts[0].Title)

	err := httpRequest(router, "POST", "/categories", api.CategoryRequest{Name: "films"}, nil)
	assert.ErrorContains(t, err, "409")
}

func TestCategoryDeleteRestrictedOnPostgres(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	db := createDB(t)
	store := blog.NewStore(db)
	ctx := context.Background()

	comics, err := store.Categories().Create(ctx, "Comics")
	require.NoError(t, err)

	post, err := store.Posts().Create(ctx, blog.PostFields{Title: "Hulk #1", Author: "Stan Lee", Category: "Comics"})
	require.NoError(t, err)

	var verr *blog.ValidationError
	require.ErrorAs(t, store.Categories().Delete(ctx, comics.ID), &verr)

	require.NoError(t, store.Posts().Delete(ctx, post.ID))
	require.NoError(t, store.Categories().Delete(ctx, comics.ID))

	_, err = store.Categories().Get(ctx, comics.ID)
	assert.ErrorIs(t, err, blog.ErrNotFound)
}
