package enums

import (
	"fmt"
	"strings"
)

// ProductUnit is the unit of measure a product is sold in.
type ProductUnit string

const (
	ProductUnitEach     ProductUnit = "ea"
	ProductUnitPound    ProductUnit = "lb"
	ProductUnitOunce    ProductUnit = "oz"
	ProductUnitKilogram ProductUnit = "kg"
)

var validProductUnits = []ProductUnit{
	ProductUnitEach,
	ProductUnitPound,
	ProductUnitOunce,
	ProductUnitKilogram,
}

var productUnitLabels = map[ProductUnit]string{
	ProductUnitEach:     "each",
	ProductUnitPound:    "lb",
	ProductUnitOunce:    "oz",
	ProductUnitKilogram: "kg",
}

// String implements fmt.Stringer.
func (u ProductUnit) String() string {
	return string(u)
}

// Label is the customer-facing name of the unit.
func (u ProductUnit) Label() string {
	if label, ok := productUnitLabels[u]; ok {
		return label
	}
	return string(u)
}

// IsDiscrete reports whether quantities must be whole numbers.
func (u ProductUnit) IsDiscrete() bool {
	return u == ProductUnitEach
}

// IsValid reports whether the value is a known ProductUnit.
func (u ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductUnits {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
