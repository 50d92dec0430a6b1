package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
)

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category model.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type categoryRepository struct {
	db db.DB
}

func NewCategoryRepository(db db.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r categoryRepository) CreateCategory(ctx context.Context, category model.Category) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, name, created_at)
		VALUES ($1, $2, $3)
	`, category.ID, category.Name, category.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r categoryRepository) GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	var c model.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, created_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("get category: %w", err)
	}

	return c, nil
}

func (r categoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Category])
	if err != nil {
		return nil, fmt.Errorf("collect categories: %w", err)
	}

	return categories, nil
}
