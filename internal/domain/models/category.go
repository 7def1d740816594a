package models

import "encoding/json"

// Category is the product type of an item. The set is fixed at training
// time; anything else parses to CategoryOther, which has no feature column.
type Category int

const (
	CategoryOther Category = iota
	CategoryLaptop
	CategorySmartphone
	CategoryTablet
	CategoryTV
	CategoryRefrigerator
	CategoryWashingMachine
	CategoryAirConditioner
	CategoryMicrowave
)

var categoryNames = map[Category]string{
	CategoryLaptop:         "Laptop",
	CategorySmartphone:     "Smartphone",
	CategoryTablet:         "Tablet",
	CategoryTV:             "TV",
	CategoryRefrigerator:   "Refrigerator",
	CategoryWashingMachine: "Washing Machine",
	CategoryAirConditioner: "Air Conditioner",
	CategoryMicrowave:      "Microwave",
}

// KnownCategories lists every category with a training column, in a stable order.
func KnownCategories() []Category {
	return []Category{
		CategoryLaptop,
		CategorySmartphone,
		CategoryTablet,
		CategoryTV,
		CategoryRefrigerator,
		CategoryWashingMachine,
		CategoryAirConditioner,
		CategoryMicrowave,
	}
}

// ParseCategory maps a display name to a Category. Names must match exactly;
// "laptop" or " Laptop" is CategoryOther.
func ParseCategory(s string) Category {
	for c, name := range categoryNames {
		if name == s {
			return c
		}
	}
	return CategoryOther
}

// String returns the display name, or "Other".
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Other"
}

// Column returns the suffix used in Product_Type_* feature names.
// ok is false for CategoryOther.
func (c Category) Column() (string, bool) {
	name, ok := categoryNames[c]
	return name, ok
}

func (c Category) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseCategory(s)
	return nil
}

// UsagePattern describes how heavily an item was used.
type UsagePattern int

const (
	UsageOther UsagePattern = iota
	UsageLight
	UsageModerate
	UsageHeavy
)

var usageNames = map[UsagePattern]string{
	UsageLight:    "Light",
	UsageModerate: "Moderate",
	UsageHeavy:    "Heavy",
}

// ParseUsagePattern maps a name to a UsagePattern, UsageOther if unknown.
func ParseUsagePattern(s string) UsagePattern {
	for u, name := range usageNames {
		if name == s {
			return u
		}
	}
	return UsageOther
}

func (u UsagePattern) String() string {
	if name, ok := usageNames[u]; ok {
		return name
	}
	return "Other"
}

// Column returns the suffix used in Usage_Pattern_* feature names.
func (u UsagePattern) Column() (string, bool) {
	name, ok := usageNames[u]
	return name, ok
}

func (u UsagePattern) MarshalJSON() ([]byte, error) { return json.Marshal(u.String()) }

func (u *UsagePattern) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*u = ParseUsagePattern(s)
	return nil
}
