package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"comics-blog/internal/database"

	"gorm.io/gorm"
)

type PostFields struct {
	Title    string
	Author   string
	Body     string
	Category string
}

type PostRepository interface {
	List(ctx context.Context) ([]database.Post, error)
	Get(ctx context.Context, id uint) (database.Post, error)
	Filter(ctx context.Context, category string) ([]database.Post, error)
	Search(ctx context.Context, query string) ([]database.Post, error)
	Create(ctx context.Context, fields PostFields) (database.Post, error)
	Update(ctx context.Context, id uint, fields PostFields) (database.Post, error)
	Delete(ctx context.Context, id uint) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]database.Category, error)
	Get(ctx context.Context, id uint) (database.Category, error)
	Create(ctx context.Context, name string) (database.Category, error)
	Update(ctx context.Context, id uint, name string) (database.Category, error)
	Delete(ctx context.Context, id uint) error
}

type Store struct {
	db *gorm.DB

	// SQLite only supports one writer at a time, so we need a lock
	// whenever we write to the database
	mu sync.Mutex
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Posts() *PostStore {
	return &PostStore{store: s}
}

func (s *Store) Categories() *CategoryStore {
	return &CategoryStore{store: s}
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type PostStore struct {
	store *Store
}

var _ PostRepository = (*PostStore)(nil)

func (p *PostStore) newest(ctx context.Context) *gorm.DB {
	return p.store.db.WithContext(ctx).Preload("Category").Order("posts.created_at DESC").Order("posts.id DESC")
}

func (p *PostStore) List(ctx context.Context) ([]database.Post, error) {
	var posts []database.Post
	if err := p.newest(ctx).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (p *PostStore) Get(ctx context.Context, id uint) (database.Post, error) {
	var post database.Post
	if err := p.store.db.WithContext(ctx).Preload("Category").First(&post, id).Error; err != nil {
		return post, translate(err)
	}
	return post, nil
}

func (p *PostStore) Filter(ctx context.Context, category string) ([]database.Post, error) {
	var posts []database.Post
	err := p.newest(ctx).
		Joins("JOIN categories ON categories.id = posts.category_id").
		Where("LOWER(categories.name) = LOWER(?)", strings.TrimSpace(category)).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("error filtering posts by category '%s': %w", category, err)
	}
	return posts, nil
}

func (p *PostStore) Search(ctx context.Context, query string) ([]database.Post, error) {
	filter, err := ParseQuery(query)
	if err != nil {
		return nil, &ValidationError{Field: "query", Reason: err.Error()}
	}

	clause, args := filter.Where()

	var posts []database.Post
	err = p.newest(ctx).
		Joins("JOIN categories ON categories.id = posts.category_id").
		Where(clause, args...).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("error searching posts: %w", err)
	}
	return posts, nil
}

func (p *PostStore) resolveCategory(txn *gorm.DB, name string) (database.Category, error) {
	var category database.Category
	name = strings.TrimSpace(name)
	if name == "" {
		return category, invalid("category", "a category is required")
	}

	if err := txn.Where("LOWER(name) = LOWER(?)", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return category, invalid("category", "unknown category '%s'", name)
		}
		return category, err
	}
	return category, nil
}

func (p *PostStore) Create(ctx context.Context, fields PostFields) (database.Post, error) {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return database.Post{}, invalid("title", "title cannot be empty")
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	txn := p.store.db.WithContext(ctx)

	category, err := p.resolveCategory(txn, fields.Category)
	if err != nil {
		return database.Post{}, err
	}

	post := database.Post{
		Title:      title,
		Author:     strings.TrimSpace(fields.Author),
		Body:       fields.Body,
		CategoryID: category.ID,
	}
	if err := txn.Create(&post).Error; err != nil {
		return database.Post{}, fmt.Errorf("error creating post: %w", translate(err))
	}
	post.Category = &category

	return post, nil
}

func (p *PostStore) Update(ctx context.Context, id uint, fields PostFields) (database.Post, error) {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return database.Post{}, invalid("title", "title cannot be empty")
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	var post database.Post
	err := p.store.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.First(&post, id).Error; err != nil {
			return translate(err)
		}

		category, err := p.resolveCategory(txn, fields.Category)
		if err != nil {
			return err
		}

		// The author of a post is fixed when it is created.
		updates := map[string]any{
			"title":       title,
			"body":        fields.Body,
			"category_id": category.ID,
		}
		if err := txn.Model(&post).Updates(updates).Error; err != nil {
			return fmt.Errorf("error updating post %d: %w", id, err)
		}
		post.Title, post.Body = title, fields.Body
		post.CategoryID, post.Category = category.ID, &category
		return nil
	})
	if err != nil {
		return database.Post{}, err
	}

	return post, nil
}

func (p *PostStore) Delete(ctx context.Context, id uint) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	res := p.store.db.WithContext(ctx).Delete(&database.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("error deleting post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type CategoryStore struct {
	store *Store
}

var _ CategoryRepository = (*CategoryStore)(nil)

func (c *CategoryStore) List(ctx context.Context) ([]database.Category, error) {
	var categories []database.Category
	if err := c.store.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}

func (c *CategoryStore) Get(ctx context.Context, id uint) (database.Category, error) {
	var category database.Category
	if err := c.store.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return category, translate(err)
	}
	return category, nil
}

// nameTaken reports whether another category already uses name. Names are
// compared case-insensitively since category pages are addressed by name.
func (c *CategoryStore) nameTaken(txn *gorm.DB, name string, exclude uint) (bool, error) {
	var count int64
	err := txn.Model(&database.Category{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exclude).
		Count(&count).Error
	return count > 0, err
}

func (c *CategoryStore) Create(ctx context.Context, name string) (database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.Category{}, invalid("name", "name cannot be empty")
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	txn := c.store.db.WithContext(ctx)

	taken, err := c.nameTaken(txn, name, 0)
	if err != nil {
		return database.Category{}, fmt.Errorf("error checking category name: %w", err)
	}
	if taken {
		return database.Category{}, ErrDuplicate
	}

	category := database.Category{Name: name}
	if err := txn.Create(&category).Error; err != nil {
		return database.Category{}, translate(err)
	}
	return category, nil
}

func (c *CategoryStore) Update(ctx context.Context, id uint, name string) (database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.Category{}, invalid("name", "name cannot be empty")
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var category database.Category
	err := c.store.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.First(&category, id).Error; err != nil {
			return translate(err)
		}

		taken, err := c.nameTaken(txn, name, id)
		if err != nil {
			return fmt.Errorf("error checking category name: %w", err)
		}
		if taken {
			return ErrDuplicate
		}

		if err := txn.Model(&category).Update("name", name).Error; err != nil {
			return translate(err)
		}
		category.Name = name
		return nil
	})
	if err != nil {
		return database.Category{}, err
	}
	return category, nil
}

func (c *CategoryStore) Delete(ctx context.Context, id uint) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	return c.store.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var category database.Category
		if err := txn.First(&category, id).Error; err != nil {
			return translate(err)
		}

		var posts int64
		if err := txn.Model(&database.Post{}).Where("category_id = ?", id).Count(&posts).Error; err != nil {
			return fmt.Errorf("error counting posts in category %d: %w", id, err)
		}
		if posts > 0 {
			return invalid("category", "'%s' still has %d posts", category.Name, posts)
		}

		if err := txn.Delete(&category).Error; err != nil {
			return fmt.Errorf("error deleting category %d: %w", id, err)
		}
		return nil
	})
}
