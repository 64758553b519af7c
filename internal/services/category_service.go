package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
)

// defaultCategories are shared by every user and cannot be edited.
var defaultCategories = []struct {
	Name  string
	Type  models.CategoryType
	Icon  string
	Color string
}{
	{"Vivienda", models.CategoryTypeExpense, "home", "#8E44AD"},
	{"Alimentación", models.CategoryTypeExpense, "shopping-cart", "#27AE60"},
	{"Transporte", models.CategoryTypeExpense, "car", "#2980B9"},
	{"Salud", models.CategoryTypeExpense, "heart", "#C0392B"},
	{"Ocio", models.CategoryTypeExpense, "film", "#F39C12"},
	{"Suscripciones", models.CategoryTypeExpense, "repeat", "#16A085"},
	{"Viajes", models.CategoryTypeExpense, "plane", "#D35400"},
	{"Educación", models.CategoryTypeExpense, "book", "#2C3E50"},
	{"Otros gastos", models.CategoryTypeExpense, "tag", "#7F8C8D"},
	{"Salario", models.CategoryTypeIncome, "briefcase", "#1ABC9C"},
	{"Inversiones", models.CategoryTypeIncome, "trending-up", "#3498DB"},
	{"Otros ingresos", models.CategoryTypeIncome, "plus-circle", "#95A5A6"},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleTo scopes category queries to the user's own and the default categories.
func visibleTo(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(user_id = ? OR is_default = ?)", userID, true)
	}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(
	userID string,
	name string,
	categoryType models.CategoryType,
	icon string,
	color string,
	parentID *string,
) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Scopes(visibleTo(userID)).
		Where("name = ? AND type = ?", name, categoryType).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	if parentID != nil && *parentID != "" {
		if err := s.checkParent(userID, "", *parentID, categoryType); err != nil {
			return nil, err
		}
	} else {
		parentID = nil
	}

	category := &models.Category{
		UserID:   &userID,
		Name:     name,
		Type:     categoryType,
		Icon:     icon,
		Color:    color,
		ParentID: parentID,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// checkParent enforces a single nesting level: the parent must be visible,
// of the same type, and not itself a child.
func (s *categoryService) checkParent(userID, categoryID, parentID string, categoryType models.CategoryType) error {
	if parentID == categoryID {
		return apperrors.ErrSelfParentCategory
	}

	var parent models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id = ?", parentID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if parent.ParentID != nil {
		return apperrors.ErrCategoryTooDeep
	}
	if parent.Type != categoryType {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "parent category must have the same type")
	}

	if categoryID != "" {
		var children int64
		if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if children > 0 {
			return apperrors.ErrCategoryTooDeep
		}
	}
	return nil
}

// GetUserCategories lists the user's and the default categories, parents
// first, optionally filtered by type.
func (s *categoryService) GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	base := s.db.Model(&models.Category{}).Scopes(visibleTo(userID))
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}

	result, err := pagination.Find[models.Category](base, page, "is_default DESC, name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCategoryByID retrieves a category visible to the user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ownedCategory loads a category the user may modify.
func (s *categoryService) ownedCategory(userID, categoryID string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsDefault || category.UserID == nil {
		return nil, apperrors.ErrDefaultCategory
	}
	return category, nil
}

// UpdateCategory updates an existing category. An empty parentID detaches it.
func (s *categoryService) UpdateCategory(
	userID string,
	categoryID string,
	name string,
	icon string,
	color string,
	parentID *string,
) (*models.Category, error) {
	category, err := s.ownedCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if parentID != nil {
		if *parentID == "" {
			updates["parent_id"] = nil
		} else {
			if err := s.checkParent(userID, categoryID, *parentID, category.Type); err != nil {
				return nil, err
			}
			updates["parent_id"] = *parentID
		}
	}
	if name != "" && name != category.Name {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Scopes(visibleTo(userID)).
			Where("name = ? AND type = ? AND id <> ?", name, category.Type, categoryID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateCategory
		}
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetCategoryByID(userID, categoryID)
}

// DeleteCategory soft-deletes a category. Existing transactions keep their
// category_id reference for historical records.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.ownedCategory(userID, categoryID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SeedDefaults creates the default categories that do not exist yet and
// returns how many were created.
func (s *categoryService) SeedDefaults() (int, error) {
	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, def := range defaultCategories {
			var count int64
			if err := tx.Model(&models.Category{}).
				Where("is_default = ? AND name = ? AND type = ?", true, def.Name, def.Type).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			category := &models.Category{
				IsDefault: true,
				Name:      def.Name,
				Type:      def.Type,
				Icon:      def.Icon,
				Color:     def.Color,
			}
			if err := tx.Create(category).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}
