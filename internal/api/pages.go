package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"comics-blog/internal/blog"

	"github.com/go-chi/chi/v5"
)

// PageService renders the public blog pages.
type PageService struct {
	posts      blog.PostRepository
	categories blog.CategoryRepository
	renderer   Renderer
}

func NewPageService(posts blog.PostRepository, categories blog.CategoryRepository, renderer Renderer) *PageService {
	return &PageService{posts: posts, categories: categories, renderer: renderer}
}

func (s *PageService) AddRoutes(r chi.Router) {
	r.Get("/", s.Home)
	r.Get("/article/{id}", s.ArticleDetails)
	r.Get("/category/{cats}/", s.Category)
	r.Get("/category_list/", s.CategoryList)
}

func (s *PageService) pageError(w http.ResponseWriter, err error) {
	var cerr *codedError
	if errors.As(err, &cerr) && cerr.code != http.StatusInternalServerError {
		http.Error(w, err.Error(), cerr.code)
		return
	}
	slog.Error("error loading page", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *PageService) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.pageError(w, err)
		return
	}
	categories, err := s.categories.List(r.Context())
	if err != nil {
		s.pageError(w, err)
		return
	}

	render(w, s.renderer, "home.html", map[string]any{
		"Posts":      posts,
		"Categories": categories,
	})
}

func (s *PageService) ArticleDetails(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamID(r, "id")
	if err != nil {
		s.pageError(w, err)
		return
	}

	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.pageError(w, repositoryError(err, "error loading post"))
		return
	}
	categories, err := s.categories.List(r.Context())
	if err != nil {
		s.pageError(w, err)
		return
	}

	render(w, s.renderer, "article_details.html", map[string]any{
		"Post":       post,
		"Categories": categories,
	})
}

func (s *PageService) Category(w http.ResponseWriter, r *http.Request) {
	cats := chi.URLParam(r, "cats")
	if unescaped, err := url.PathUnescape(cats); err == nil {
		cats = unescaped
	}

	posts, err := s.posts.Filter(r.Context(), cats)
	if err != nil {
		s.pageError(w, err)
		return
	}
	categories, err := s.categories.List(r.Context())
	if err != nil {
		s.pageError(w, err)
		return
	}

	render(w, s.renderer, "categories.html", map[string]any{
		"Category":   titleCase(cats),
		"Posts":      posts,
		"Categories": categories,
	})
}

func (s *PageService) CategoryList(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context())
	if err != nil {
		s.pageError(w, err)
		return
	}

	render(w, s.renderer, "category_list.html", map[string]any{
		"Categories": categories,
	})
}
