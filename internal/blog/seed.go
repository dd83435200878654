package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"comics-blog/internal/database"

	"gopkg.in/yaml.v2"
)

type SeedPost struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Body     string `yaml:"body"`
	Category string `yaml:"category"`
}

// Seed is the content of a seed file:
//
//	categories: [Comics, Films]
//	posts:
//	  - title: Iron Man #1
//	    author: Stan Lee
//	    category: Comics
//	    body: ...
type Seed struct {
	Categories []string   `yaml:"categories"`
	Posts      []SeedPost `yaml:"posts"`
}

type SeedResult struct {
	Categories int
	Posts      int
}

func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.UnmarshalStrict(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("error parsing seed file: %w", err)
	}
	return seed, nil
}

// ApplySeed creates the categories and posts of seed that do not exist yet,
// so a seed file can be applied more than once. A post exists when a post
// with the same title is already in its category.
func (s *Store) ApplySeed(ctx context.Context, seed Seed) (SeedResult, error) {
	var result SeedResult

	for _, name := range seed.Categories {
		_, err := s.Categories().Create(ctx, name)
		switch {
		case errors.Is(err, ErrDuplicate):
			continue
		case err != nil:
			return result, fmt.Errorf("error seeding category '%s': %w", name, err)
		}
		result.Categories++
	}

	for _, post := range seed.Posts {
		var count int64
		err := s.db.WithContext(ctx).Model(&database.Post{}).
			Joins("JOIN categories ON categories.id = posts.category_id").
			Where("posts.title = ? AND LOWER(categories.name) = LOWER(?)", post.Title, post.Category).
			Count(&count).Error
		if err != nil {
			return result, fmt.Errorf("error checking post '%s': %w", post.Title, err)
		}
		if count > 0 {
			continue
		}

		if _, err := s.Posts().Create(ctx, PostFields(post)); err != nil {
			return result, fmt.Errorf("error seeding post '%s': %w", post.Title, err)
		}
		result.Posts++
	}

	slog.Info("seed applied", "categories", result.Categories, "posts", result.Posts)

	return result, nil
}
