package api

import "time"

type Category struct {
	Id   uint   `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	Id        uint      `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type ListPostsParams struct {
	Category string `schema:"category"`
	Query    string `schema:"q"`
}

type CreatePostRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

// UpdatePostRequest has no author, a post keeps the author it was created with.
type UpdatePostRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}
