package enums

import "fmt"

// ProductCategory groups catalog products for filtering and reporting.
type ProductCategory string

const (
	ProductCategoryFood       ProductCategory = "food"
	ProductCategoryBeverage   ProductCategory = "beverage"
	ProductCategoryStaple     ProductCategory = "staple"
	ProductCategoryStationery ProductCategory = "stationery"
	ProductCategoryOther      ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryFood,
	ProductCategoryBeverage,
	ProductCategoryStaple,
	ProductCategoryStationery,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
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

// ProductCategories returns every known category in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}
