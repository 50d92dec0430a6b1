package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
)

type categoryRepository struct {
	store *Store
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category model.Category) error {
	return r.store.write(ctx, func(st *state) (func(*state), error) {
		for _, c := range st.categories {
			if c.ID == category.ID || c.Name == category.Name {
				return nil, repository.ErrCategoryExists
			}
		}

		st.categories[category.ID] = category

		return func(st *state) { delete(st.categories, category.ID) }, nil
	})
}

func (r *categoryRepository) GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	var category model.Category
	err := r.store.read(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return repository.ErrCategoryNotFound
		}
		category = c
		return nil
	})

	return category, err
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.store.read(ctx, func(st *state) error {
		categories = make([]model.Category, 0, len(st.categories))
		for _, c := range st.categories {
			categories = append(categories, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(categories, func(a, b model.Category) int {
		return strings.Compare(a.Name, b.Name)
	})

	return categories, nil
}
