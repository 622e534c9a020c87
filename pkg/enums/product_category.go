package enums

import "fmt"

// ProductCategory is the closed set of catalog categories.
type ProductCategory string

const (
	ProductCategoryBouquets     ProductCategory = "bouquets"
	ProductCategoryRoses        ProductCategory = "roses"
	ProductCategoryTulips       ProductCategory = "tulips"
	ProductCategoryLilies       ProductCategory = "lilies"
	ProductCategoryOrchids      ProductCategory = "orchids"
	ProductCategorySunflowers   ProductCategory = "sunflowers"
	ProductCategoryPlants       ProductCategory = "plants"
	ProductCategoryArrangements ProductCategory = "arrangements"
	ProductCategoryGifts        ProductCategory = "gifts"
)

var validProductCategories = []ProductCategory{
	ProductCategoryBouquets,
	ProductCategoryRoses,
	ProductCategoryTulips,
	ProductCategoryLilies,
	ProductCategoryOrchids,
	ProductCategorySunflowers,
	ProductCategoryPlants,
	ProductCategoryArrangements,
	ProductCategoryGifts,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ProductCategories returns every category in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
