package storefront

import (
	"net/url"
	"strconv"
	"strings"
)

// composes the outbound product-list query from the committed filter
// snapshot and the location's search filters. pure: never mutates its inputs
// and never errors - absent or invalid fields are omitted and the API applies
// its own defaults.
//
// precedence: for fields that can originate from both sources (tire
// width/profile/diameter/season, wheel width/diameter) the url search filters
// always win. a deep-link search overrides whatever sits in the filter panel.
func ComposeProductQuery(
	productType ProductType,
	applied *AppliedFilters,
	urlSearch *UrlSearchFilters,
	sortBy string,
	page int,
) url.Values {
	if applied == nil {
		applied = DefaultAppliedFilters()
	}
	if urlSearch == nil {
		urlSearch = &UrlSearchFilters{}
	}

	params := url.Values{}
	params.Set("product_type", string(productType))
	params.Set("page", strconv.Itoa(page))
	params.Set("ordering", sortBy)

	if 0 < len(applied.Brands) {
		params.Set("brand", strings.Join(applied.Brands, ","))
	}
	if applied.Season != "" {
		params.Set("season", applied.Season)
	}
	if DefaultMinPrice < applied.PriceRange[0] {
		params.Set("min_price", strconv.Itoa(applied.PriceRange[0]))
	}
	if applied.PriceRange[1] < DefaultMaxPrice {
		params.Set("max_price", strconv.Itoa(applied.PriceRange[1]))
	}
	if applied.InStockOnly {
		params.Set("in_stock", "true")
	}

	switch productType {
	case ProductTypeTire:
		// the season override is a tire concept, a wheel deep link carrying
		// season leaves the panel's value alone
		setWithPrecedence(params, "season", urlSearch.Season, applied.Season)
		setWithPrecedence(params, "tire_width", urlSearch.Width, applied.TireWidth)
		setWithPrecedence(params, "tire_profile", urlSearch.Profile, applied.TireProfile)
		setWithPrecedence(params, "tire_diameter", urlSearch.Diameter, applied.TireDiameter)
	case ProductTypeWheel:
		setWithPrecedence(params, "wheel_width", urlSearch.WheelWidth, applied.WheelWidth)
		setWithPrecedence(params, "wheel_diameter", urlSearch.WheelDiameter, applied.WheelDiameter)
		if applied.WheelPcd != "" {
			params.Set("pcd", applied.WheelPcd)
		}
		if applied.WheelType != "" {
			params.Set("wheel_type", applied.WheelType)
		}
		if applied.EtFrom != "" {
			params.Set("et_from", applied.EtFrom)
		}
		if applied.EtTo != "" {
			params.Set("et_to", applied.EtTo)
		}
	}

	return params
}

func setWithPrecedence(params url.Values, key string, searchValue string, appliedValue string) {
	if searchValue != "" {
		params.Set(key, searchValue)
	} else if appliedValue != "" {
		params.Set(key, appliedValue)
	}
}
