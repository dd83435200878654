package api

import (
	"net/http"
	"strings"

	"comics-blog/internal/blog"
	"comics-blog/internal/database"
	"comics-blog/pkg/api"

	"github.com/go-chi/chi/v5"
)

type BlogService struct {
	posts      blog.PostRepository
	categories blog.CategoryRepository
}

func NewBlogService(posts blog.PostRepository, categories blog.CategoryRepository) *BlogService {
	return &BlogService{posts: posts, categories: categories}
}

func (s *BlogService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListPosts))
		r.Post("/", RestHandler(s.CreatePost))
		r.Get("/{post_id}", RestHandler(s.GetPost))
		r.Put("/{post_id}", RestHandler(s.UpdatePost))
		r.Delete("/{post_id}", RestHandler(s.DeletePost))
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListCategories))
		r.Post("/", RestHandler(s.CreateCategory))
		r.Get("/{category_id}", RestHandler(s.GetCategory))
		r.Put("/{category_id}", RestHandler(s.UpdateCategory))
		r.Delete("/{category_id}", RestHandler(s.DeleteCategory))
	})
}

func (s *BlogService) ListPosts(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListPostsParams](r)
	if err != nil {
		return nil, err
	}

	var posts []database.Post
	switch {
	case strings.TrimSpace(params.Query) != "" && strings.TrimSpace(params.Category) != "":
		return nil, CodedErrorf(http.StatusBadRequest, "use either the category or the q parameter, not both")
	case strings.TrimSpace(params.Query) != "":
		posts, err = s.posts.Search(r.Context(), params.Query)
	case strings.TrimSpace(params.Category) != "":
		posts, err = s.posts.Filter(r.Context(), params.Category)
	default:
		posts, err = s.posts.List(r.Context())
	}
	if err != nil {
		return nil, repositoryError(err, "error listing posts")
	}

	return convertPosts(posts), nil
}

func (s *BlogService) GetPost(r *http.Request) (any, error) {
	id, err := URLParamID(r, "post_id")
	if err != nil {
		return nil, err
	}

	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		return nil, repositoryError(err, "error getting post")
	}

	return convertPost(post), nil
}

func (s *BlogService) CreatePost(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreatePostRequest](r)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.Create(r.Context(), blog.PostFields{
		Title:    req.Title,
		Author:   req.Author,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		return nil, repositoryError(err, "error creating post")
	}

	return convertPost(post), nil
}

func (s *BlogService) UpdatePost(r *http.Request) (any, error) {
	id, err := URLParamID(r, "post_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.UpdatePostRequest](r)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.Update(r.Context(), id, blog.PostFields{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		return nil, repositoryError(err, "error updating post")
	}

	return convertPost(post), nil
}

func (s *BlogService) DeletePost(r *http.Request) (any, error) {
	id, err := URLParamID(r, "post_id")
	if err != nil {
		return nil, err
	}

	if err := s.posts.Delete(r.Context(), id); err != nil {
		return nil, repositoryError(err, "error deleting post")
	}

	return nil, nil
}

func (s *BlogService) ListCategories(r *http.Request) (any, error) {
	categories, err := s.categories.List(r.Context())
	if err != nil {
		return nil, repositoryError(err, "error listing categories")
	}

	return convertCategories(categories), nil
}

func (s *BlogService) GetCategory(r *http.Request) (any, error) {
	id, err := URLParamID(r, "category_id")
	if err != nil {
		return nil, err
	}

	category, err := s.categories.Get(r.Context(), id)
	if err != nil {
		return nil, repositoryError(err, "error getting category")
	}

	return convertCategory(category), nil
}

func (s *BlogService) CreateCategory(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CategoryRequest](r)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.Create(r.Context(), req.Name)
	if err != nil {
		return nil, repositoryError(err, "error creating category")
	}

	return convertCategory(category), nil
}

func (s *BlogService) UpdateCategory(r *http.Request) (any, error) {
	id, err := URLParamID(r, "category_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.CategoryRequest](r)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.Update(r.Context(), id, req.Name)
	if err != nil {
		return nil, repositoryError(err, "error updating category")
	}

	return convertCategory(category), nil
}

func (s *BlogService) DeleteCategory(r *http.Request) (any, error) {
	id, err := URLParamID(r, "category_id")
	if err != nil {
		return nil, err
	}

	if err := s.categories.Delete(r.Context(), id); err != nil {
		return nil, repositoryError(err, "error deleting category")
	}

	return nil, nil
}
