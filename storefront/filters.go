package storefront

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 100000

	// popularity ordering, the default for both product types
	DefaultSortKey = "-sales_count"
)

// the user's in-progress, uncommitted filter edits. mirrors every control in
// the filter panel. price bounds stay free-form strings until Apply.
type TempFilters struct {
	Brands        []string
	Season        string
	MinPrice      string
	MaxPrice      string
	InStockOnly   bool
	TireWidth     string
	TireProfile   string
	TireDiameter  string
	WheelWidth    string
	WheelDiameter string
	WheelPcd      string
	WheelType     string
	EtFrom        string
	EtTo          string
}

func DefaultTempFilters() *TempFilters {
	return &TempFilters{
		Brands:   []string{},
		MinPrice: strconv.Itoa(DefaultMinPrice),
		MaxPrice: strconv.Itoa(DefaultMaxPrice),
	}
}

// the committed snapshot driving API requests. price bounds are normalized
// to a [min, max] pair.
type AppliedFilters struct {
	Brands        []string
	Season        string
	PriceRange    [2]int
	InStockOnly   bool
	TireWidth     string
	TireProfile   string
	TireDiameter  string
	WheelWidth    string
	WheelDiameter string
	WheelPcd      string
	WheelType     string
	EtFrom        string
	EtTo          string
}

func DefaultAppliedFilters() *AppliedFilters {
	return &AppliedFilters{
		Brands:     []string{},
		PriceRange: [2]int{DefaultMinPrice, DefaultMaxPrice},
	}
}

// filter values embedded in the current location, representing an
// externally-initiated search (a deep link). read-only, recomputed on every
// navigation, and empty unless the location carries search_type=params.
type UrlSearchFilters struct {
	Width         string
	Profile       string
	Diameter      string
	Season        string
	WheelWidth    string
	WheelDiameter string
}

func ParseUrlSearchFilters(query url.Values) *UrlSearchFilters {
	filters := &UrlSearchFilters{}
	if query.Get("search_type") != "params" {
		return filters
	}
	filters.Width = query.Get("width")
	filters.Profile = query.Get("profile")
	filters.Diameter = query.Get("diameter")
	filters.Season = query.Get("season")
	filters.WheelWidth = query.Get("wheel_width")
	filters.WheelDiameter = query.Get("wheel_diameter")
	return filters
}

func ParseProductType(query url.Values) ProductType {
	typeParam := query.Get("product_type")
	if typeParam == "" {
		typeParam = query.Get("type")
	}
	if typeParam == string(ProductTypeWheel) {
		return ProductTypeWheel
	}
	return ProductTypeTire
}

// sort keys are type-specific: tire dimension orderings are meaningless for
// wheels and vice versa
func SortKeys(productType ProductType) []string {
	common := []string{
		DefaultSortKey,
		"price", "-price",
		"brand__name", "-brand__name",
		"-created_at",
	}
	if productType == ProductTypeWheel {
		return append(common,
			"wheel_width", "-wheel_width",
			"wheel_diameter", "-wheel_diameter",
			"et", "-et",
		)
	}
	return append(common,
		"tire_width", "-tire_width",
		"tire_diameter", "-tire_diameter",
	)
}

func IsValidSortKey(productType ProductType, sortBy string) bool {
	return slices.Contains(SortKeys(productType), sortBy)
}

// removal keys, shared with the filter-chip UI contract
type FilterField string

const (
	FieldBrand         FilterField = "brand"
	FieldSeason        FilterField = "season"
	FieldTireWidth     FilterField = "tire_width"
	FieldTireProfile   FilterField = "tire_profile"
	FieldTireDiameter  FilterField = "tire_diameter"
	FieldWheelWidth    FilterField = "wheel_width"
	FieldWheelDiameter FilterField = "wheel_diameter"
	FieldBoltPattern   FilterField = "bolt_pattern"
	FieldWheelType     FilterField = "wheel_type"
	FieldOffset        FilterField = "offset"
	FieldEtFrom        FilterField = "et_from"
	FieldEtTo          FilterField = "et_to"
	FieldMinPrice      FilterField = "min_price"
	FieldMaxPrice      FilterField = "max_price"
	FieldInStock       FilterField = "in_stock"
)

// the transitions of the filter state machine. consumed by
// (*FilterState).Apply, which is the single reducer.
type FilterTransition interface {
	filterTransition()
}

// mutates the draft only. never issues a request.
// Checked is used by the brand list (add/remove one slug) and the
// stock-only flag; every other field carries its value as a string.
type Edit struct {
	Field   FilterField
	Value   string
	Checked bool
}

// commits the draft: price strings are coerced to a [min, max] pair, the page
// resets to 1, and the shareable params (product_type, brand, season) are
// written back to the location
type ApplyFilters struct {
}

// resets both snapshots and the sort to type-appropriate defaults; the
// location keeps only the product type
type ClearFilters struct {
}

// clears a single named field in both snapshots. for the brand list a
// non-empty Value removes one member, an empty Value removes the whole group.
type RemoveField struct {
	Field FilterField
	Value string
}

// tire <-> wheel. performs a full clear and re-validates the sort key.
type SwitchProductType struct {
	ProductType ProductType
}

type SetSort struct {
	SortBy string
}

type SetPage struct {
	Page int
}

// the location changed externally (deep link). recomputes the url search
// filters and, when the product type changed, performs a full clear.
type Navigate struct {
	Query url.Values
}

func (Edit) filterTransition()              {}
func (ApplyFilters) filterTransition()      {}
func (ClearFilters) filterTransition()      {}
func (RemoveField) filterTransition()       {}
func (SwitchProductType) filterTransition() {}
func (SetSort) filterTransition()           {}
func (SetPage) filterTransition()           {}
func (Navigate) filterTransition()          {}

// owns the three filter snapshots and the query-composition inputs.
// not safe for concurrent use - the owning session serializes access.
type FilterState struct {
	productType ProductType
	temp        *TempFilters
	applied     *AppliedFilters
	urlSearch   *UrlSearchFilters
	sortBy      string
	page        int

	// the current location query, rewritten on apply/clear/switch
	query url.Values
}

func NewFilterState(query url.Values) *FilterState {
	if query == nil {
		query = url.Values{}
	}
	state := &FilterState{
		productType: ParseProductType(query),
		temp:        DefaultTempFilters(),
		applied:     DefaultAppliedFilters(),
		urlSearch:   ParseUrlSearchFilters(query),
		sortBy:      DefaultSortKey,
		page:        1,
		query:       query,
	}
	state.initFromQuery()
	return state
}

// brand and season are the shareable params: a bookmarked location seeds
// both the applied and draft snapshots
func (self *FilterState) initFromQuery() {
	if brandParam := self.query.Get("brand"); brandParam != "" {
		brands := strings.Split(brandParam, ",")
		self.applied.Brands = slices.Clone(brands)
		self.temp.Brands = slices.Clone(brands)
	}
	if season := self.query.Get("season"); season != "" {
		self.applied.Season = season
		self.temp.Season = season
	}
}

func (self *FilterState) ProductType() ProductType {
	return self.productType
}

func (self *FilterState) Temp() *TempFilters {
	return self.temp
}

func (self *FilterState) Applied() *AppliedFilters {
	return self.applied
}

func (self *FilterState) UrlSearch() *UrlSearchFilters {
	return self.urlSearch
}

func (self *FilterState) SortBy() string {
	return self.sortBy
}

func (self *FilterState) Page() int {
	return self.page
}

// the location query as rewritten by the last committed transition
func (self *FilterState) Location() url.Values {
	return self.query
}

// the single reducer. returns whether the committed request inputs changed,
// i.e. whether a new product-list request must be issued.
func (self *FilterState) Apply(transition FilterTransition) bool {
	switch t := transition.(type) {
	case Edit:
		self.edit(t)
		return false
	case ApplyFilters:
		self.applyDraft()
		return true
	case ClearFilters:
		self.clear()
		return true
	case RemoveField:
		self.removeField(t.Field, t.Value)
		return true
	case SwitchProductType:
		self.switchProductType(t.ProductType)
		return true
	case SetSort:
		self.sortBy = t.SortBy
		self.page = 1
		return true
	case SetPage:
		self.page = t.Page
		return true
	case Navigate:
		return self.navigate(t.Query)
	default:
		return false
	}
}

func (self *FilterState) edit(t Edit) {
	switch t.Field {
	case FieldBrand:
		if t.Checked {
			if !slices.Contains(self.temp.Brands, t.Value) {
				self.temp.Brands = append(slices.Clone(self.temp.Brands), t.Value)
			}
		} else {
			i := slices.Index(self.temp.Brands, t.Value)
			if 0 <= i {
				self.temp.Brands = slices.Delete(slices.Clone(self.temp.Brands), i, i+1)
			}
		}
	case FieldSeason:
		self.temp.Season = t.Value
	case FieldMinPrice:
		self.temp.MinPrice = t.Value
	case FieldMaxPrice:
		self.temp.MaxPrice = t.Value
	case FieldInStock:
		self.temp.InStockOnly = t.Checked
	case FieldTireWidth:
		self.temp.TireWidth = t.Value
	case FieldTireProfile:
		self.temp.TireProfile = t.Value
	case FieldTireDiameter:
		self.temp.TireDiameter = t.Value
	case FieldWheelWidth:
		self.temp.WheelWidth = t.Value
	case FieldWheelDiameter:
		self.temp.WheelDiameter = t.Value
	case FieldBoltPattern:
		self.temp.WheelPcd = t.Value
	case FieldWheelType:
		self.temp.WheelType = t.Value
	case FieldEtFrom:
		self.temp.EtFrom = t.Value
	case FieldEtTo:
		self.temp.EtTo = t.Value
	}
}

func (self *FilterState) applyDraft() {
	minPrice, err := strconv.Atoi(self.temp.MinPrice)
	if err != nil {
		minPrice = DefaultMinPrice
	}
	maxPrice, err := strconv.Atoi(self.temp.MaxPrice)
	if err != nil {
		maxPrice = DefaultMaxPrice
	}

	self.applied = &AppliedFilters{
		Brands:        slices.Clone(self.temp.Brands),
		Season:        self.temp.Season,
		PriceRange:    [2]int{minPrice, maxPrice},
		InStockOnly:   self.temp.InStockOnly,
		TireWidth:     self.temp.TireWidth,
		TireProfile:   self.temp.TireProfile,
		TireDiameter:  self.temp.TireDiameter,
		WheelWidth:    self.temp.WheelWidth,
		WheelDiameter: self.temp.WheelDiameter,
		WheelPcd:      self.temp.WheelPcd,
		WheelType:     self.temp.WheelType,
		EtFrom:        self.temp.EtFrom,
		EtTo:          self.temp.EtTo,
	}
	self.page = 1

	// only product_type, brand and season are shareable
	next := url.Values{}
	for key, values := range self.query {
		next[key] = slices.Clone(values)
	}
	next.Set("product_type", string(self.productType))
	if 0 < len(self.applied.Brands) {
		next.Set("brand", strings.Join(self.applied.Brands, ","))
	} else {
		next.Del("brand")
	}
	if self.applied.Season != "" {
		next.Set("season", self.applied.Season)
	} else {
		next.Del("season")
	}
	self.query = next
}

func (self *FilterState) clear() {
	self.clearSnapshots()
	self.sortBy = DefaultSortKey
}

func (self *FilterState) clearSnapshots() {
	self.temp = DefaultTempFilters()
	self.applied = DefaultAppliedFilters()
	self.page = 1

	next := url.Values{}
	next.Set("product_type", string(self.productType))
	self.query = next
	self.urlSearch = ParseUrlSearchFilters(next)
}

func (self *FilterState) removeField(field FilterField, value string) {
	switch field {
	case FieldBrand:
		var brands []string
		if value != "" {
			brands = []string{}
			for _, brand := range self.applied.Brands {
				if brand != value {
					brands = append(brands, brand)
				}
			}
		} else {
			brands = []string{}
		}
		self.applied.Brands = brands
		self.temp.Brands = slices.Clone(brands)

		next := url.Values{}
		for key, values := range self.query {
			next[key] = slices.Clone(values)
		}
		if 0 < len(brands) {
			next.Set("brand", strings.Join(brands, ","))
		} else {
			next.Del("brand")
		}
		self.query = next
	case FieldSeason:
		self.applied.Season = ""
		self.temp.Season = ""
	case FieldTireWidth:
		self.applied.TireWidth = ""
		self.temp.TireWidth = ""
	case FieldTireProfile:
		self.applied.TireProfile = ""
		self.temp.TireProfile = ""
	case FieldTireDiameter:
		self.applied.TireDiameter = ""
		self.temp.TireDiameter = ""
	case FieldWheelWidth:
		self.applied.WheelWidth = ""
		self.temp.WheelWidth = ""
	case FieldWheelDiameter:
		self.applied.WheelDiameter = ""
		self.temp.WheelDiameter = ""
	case FieldBoltPattern:
		self.applied.WheelPcd = ""
		self.temp.WheelPcd = ""
	case FieldWheelType:
		self.applied.WheelType = ""
		self.temp.WheelType = ""
	case FieldOffset:
		self.applied.EtFrom = ""
		self.applied.EtTo = ""
		self.temp.EtFrom = ""
		self.temp.EtTo = ""
	case FieldMinPrice:
		self.applied.PriceRange[0] = DefaultMinPrice
		self.temp.MinPrice = strconv.Itoa(DefaultMinPrice)
	case FieldMaxPrice:
		self.applied.PriceRange[1] = DefaultMaxPrice
		self.temp.MaxPrice = strconv.Itoa(DefaultMaxPrice)
	case FieldInStock:
		self.applied.InStockOnly = false
		self.temp.InStockOnly = false
	}
	self.page = 1
}

// full clear of the snapshots, but the sort key survives when it is still a
// member of the new type's allowed set
func (self *FilterState) switchProductType(productType ProductType) {
	self.productType = productType
	self.clearSnapshots()
	if !IsValidSortKey(productType, self.sortBy) {
		self.sortBy = DefaultSortKey
	}
}

func (self *FilterState) navigate(query url.Values) bool {
	if query == nil {
		query = url.Values{}
	}
	productType := ParseProductType(query)
	self.query = query
	self.urlSearch = ParseUrlSearchFilters(query)
	if productType != self.productType {
		self.switchProductType(productType)
		self.query = query
		self.urlSearch = ParseUrlSearchFilters(query)
	}
	self.initFromQuery()
	return true
}
