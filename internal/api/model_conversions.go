package api

import (
	"comics-blog/internal/database"
	"comics-blog/pkg/api"
)

func convertCategory(c database.Category) api.Category {
	return api.Category{
		Id:   c.ID,
		Name: c.Name,
	}
}

func convertCategories(cs []database.Category) []api.Category {
	categories := make([]api.Category, 0, len(cs))
	for _, c := range cs {
		categories = append(categories, convertCategory(c))
	}
	return categories
}

func convertPost(p database.Post) api.Post {
	post := api.Post{
		Id:        p.ID,
		Title:     p.Title,
		Author:    p.Author,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
	}
	if p.Category != nil {
		post.Category = convertCategory(*p.Category)
	} else {
		post.Category = api.Category{Id: p.CategoryID}
	}
	return post
}

func convertPosts(ps []database.Post) []api.Post {
	posts := make([]api.Post, 0, len(ps))
	for _, p := range ps {
		posts = append(posts, convertPost(p))
	}
	return posts
}
