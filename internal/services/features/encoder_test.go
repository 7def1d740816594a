package features

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReValue/internal/domain/models"
)

func testSchema(t *testing.T) *models.FeatureSchema {
	t.Helper()
	s, err := models.NewFeatureSchema([]string{
		"Build_Quality", "User_Lifespan", "Condition", "Original_Price", "Used_Duration", "Expiry_Years",
		"Product_Type_Air Conditioner", "Product_Type_Laptop", "Product_Type_Smartphone", "Product_Type_Tablet",
		"Brand_Apple", "Brand_HP", "Brand_Samsung",
		"Usage_Pattern_Heavy", "Usage_Pattern_Light", "Usage_Pattern_Moderate",
	})
	require.NoError(t, err)
	return s
}

func valueOf(t *testing.T, v models.FeatureVector, name string) float64 {
	t.Helper()
	x, ok := v.Get(name)
	require.True(t, ok, "missing column %s", name)
	return x
}

func assertOneHot(t *testing.T, v models.FeatureVector, prefix, want string) {
	t.Helper()
	for _, n := range v.Names() {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		expected := 0.0
		if n == want {
			expected = 1
		}
		assert.Equal(t, expected, valueOf(t, v, n), n)
	}
}

func TestEncodeAllDefaults(t *testing.T) {
	s := testSchema(t)
	v, err := Encode(models.ItemAttributes{}, s)
	require.NoError(t, err)

	assert.Equal(t, 3.0, valueOf(t, v, ColBuildQuality))
	assert.Equal(t, 3.0, valueOf(t, v, ColCondition))
	assert.Equal(t, 50000.0, valueOf(t, v, ColOriginalPrice))
	assert.Equal(t, 2.0, valueOf(t, v, ColUsedDuration))
	assert.Equal(t, 5.0, valueOf(t, v, ColUserLifespan))
	assert.Equal(t, 5.0, valueOf(t, v, ColExpiryYears))
	assertOneHot(t, v, models.PrefixProductType, "Product_Type_Laptop")
	assertOneHot(t, v, models.PrefixBrand, "Brand_HP")
	assertOneHot(t, v, models.PrefixUsagePattern, "Usage_Pattern_Moderate")
}

func TestEncodeTabletSamsungScenario(t *testing.T) {
	s := testSchema(t)
	attrs := models.ItemAttributes{
		Category:      models.Ptr("Tablet"),
		Brand:         models.Ptr("Samsung"),
		Condition:     models.Ptr(4),
		OriginalPrice: models.Ptr(30000.0),
		UsedDuration:  models.Ptr(1.5),
		UserLifespan:  models.Ptr(4.0),
	}
	v, err := Encode(attrs, s)
	require.NoError(t, err)

	assertOneHot(t, v, models.PrefixProductType, "Product_Type_Tablet")
	assertOneHot(t, v, models.PrefixBrand, "Brand_Samsung")
	assert.Equal(t, 4.0, valueOf(t, v, ColExpiryYears))
	assert.Equal(t, 4.0, valueOf(t, v, ColCondition))
	assert.Equal(t, 30000.0, valueOf(t, v, ColOriginalPrice))
	assert.Equal(t, 1.5, valueOf(t, v, ColUsedDuration))
}

func TestEncodeUnknownCategoryLeavesGroupZero(t *testing.T) {
	s := testSchema(t)
	v, err := Encode(models.ItemAttributes{Category: models.Ptr("UnknownThing")}, s)
	require.NoError(t, err)
	assertOneHot(t, v, models.PrefixProductType, "")
	// other groups still use their defaults
	assertOneHot(t, v, models.PrefixBrand, "Brand_HP")
}

func TestEncodeKnownCategoryWithoutColumn(t *testing.T) {
	s := testSchema(t)
	// Microwave is a known category but this schema never saw it.
	v, err := Encode(models.ItemAttributes{Category: models.Ptr("Microwave")}, s)
	require.NoError(t, err)
	assertOneHot(t, v, models.PrefixProductType, "")
}

func TestEncodeUnknownBrandAndUsage(t *testing.T) {
	s := testSchema(t)
	v, err := Encode(models.ItemAttributes{
		Brand:        models.Ptr("Nokia"),
		UsagePattern: models.Ptr("Extreme"),
	}, s)
	require.NoError(t, err)
	assertOneHot(t, v, models.PrefixBrand, "")
	assertOneHot(t, v, models.PrefixUsagePattern, "")
}

func TestEncodeEmptyStringIsNotAbsent(t *testing.T) {
	s := testSchema(t)
	v, err := Encode(models.ItemAttributes{Category: models.Ptr(""), Brand: models.Ptr("")}, s)
	require.NoError(t, err)
	assertOneHot(t, v, models.PrefixProductType, "")
	assertOneHot(t, v, models.PrefixBrand, "")
}

func TestEncodeEveryKnownCategory(t *testing.T) {
	names := []string{"Condition"}
	for _, c := range models.KnownCategories() {
		col, ok := c.Column()
		require.True(t, ok)
		names = append(names, models.PrefixProductType+col)
	}
	s, err := models.NewFeatureSchema(names)
	require.NoError(t, err)

	for _, c := range models.KnownCategories() {
		v, err := Encode(models.ItemAttributes{Category: models.Ptr(c.String())}, s)
		require.NoError(t, err)
		col, _ := c.Column()
		assertOneHot(t, v, models.PrefixProductType, models.PrefixProductType+col)
	}
}

func TestEncodeExpiry(t *testing.T) {
	s := testSchema(t)

	v, err := Encode(models.ItemAttributes{UserLifespan: models.Ptr(7.0), ExpiryYears: models.Ptr(3.0)}, s)
	require.NoError(t, err)
	assert.Equal(t, 3.0, valueOf(t, v, ColExpiryYears))

	// zero expiry is treated like an absent one
	v, err = Encode(models.ItemAttributes{UserLifespan: models.Ptr(7.0), ExpiryYears: models.Ptr(0.0)}, s)
	require.NoError(t, err)
	assert.Equal(t, 7.0, valueOf(t, v, ColExpiryYears))
}

func TestEncodeExplicitZeroIsKept(t *testing.T) {
	s := testSchema(t)
	v, err := Encode(models.ItemAttributes{OriginalPrice: models.Ptr(0.0), UsedDuration: models.Ptr(0.0)}, s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, valueOf(t, v, ColOriginalPrice))
	assert.Equal(t, 0.0, valueOf(t, v, ColUsedDuration))
}

func TestEncodeMatchesSchemaOrder(t *testing.T) {
	s := testSchema(t)
	for _, attrs := range []models.ItemAttributes{
		{},
		{Category: models.Ptr("Smartphone"), Brand: models.Ptr("Apple"), UsagePattern: models.Ptr("Heavy")},
		{Category: models.Ptr("nope")},
	} {
		v, err := Encode(attrs, s)
		require.NoError(t, err)
		assert.Equal(t, s.Names(), v.Names())
		assert.Equal(t, s.Len(), v.Len())
	}
}

func TestEncodeDropsScalarsNotInSchema(t *testing.T) {
	s, err := models.NewFeatureSchema([]string{"Brand_HP", "Condition", "Extra_Column"})
	require.NoError(t, err)
	v, err := Encode(models.ItemAttributes{}, s)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 0}, v.Values())
}

func TestEncodeRejectsNonFinite(t *testing.T) {
	s := testSchema(t)
	_, err := Encode(models.ItemAttributes{OriginalPrice: models.Ptr(math.NaN())}, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEncoding))

	_, err = Encode(models.ItemAttributes{UserLifespan: models.Ptr(math.Inf(1))}, s)
	assert.True(t, errors.Is(err, models.ErrEncoding))
}

func TestEncodeNilSchema(t *testing.T) {
	_, err := Encode(models.ItemAttributes{}, nil)
	assert.True(t, errors.Is(err, models.ErrEncoding))
}

func TestResolveCategoryExactMatchOnly(t *testing.T) {
	r := Resolve(models.ItemAttributes{Category: models.Ptr("  washing machine ")})
	assert.Equal(t, models.CategoryOther, r.Category)
	assert.Equal(t, "  washing machine ", r.RawCategory)
}

func TestEncodeNearMissNamesLeaveGroupEmpty(t *testing.T) {
	s := testSchema(t)
	v, err := Encode(models.ItemAttributes{
		Category:     models.Ptr("tablet"),
		UsagePattern: models.Ptr(" HEAVY "),
		Brand:        models.Ptr("apple"),
	}, s)
	require.NoError(t, err)
	assertOneHot(t, v, models.PrefixProductType, "")
	assertOneHot(t, v, models.PrefixUsagePattern, "")
	assertOneHot(t, v, models.PrefixBrand, "")

	v, err = Encode(models.ItemAttributes{Category: models.Ptr("Tablet"), UsagePattern: models.Ptr("Heavy")}, s)
	require.NoError(t, err)
	assertOneHot(t, v, models.PrefixProductType, "Product_Type_Tablet")
	assertOneHot(t, v, models.PrefixUsagePattern, "Usage_Pattern_Heavy")
}
