package schema

import (
	"bytes"
	"strconv"
	"time"
)

// Dimension is a creative dimension as the dashboard sees it: a pixel count
// for image creatives, or a "<min> - <max>" range string summarizing a
// native creative's image assets. It marshals numerics as JSON numbers and
// everything else as strings.
type Dimension string

// DimensionFromInt wraps a pixel count.
func DimensionFromInt(n int) Dimension {
	return Dimension(strconv.Itoa(n))
}

// Int returns the pixel count, or 0 when the dimension is empty or a range.
func (d Dimension) Int() int {
	n, err := strconv.Atoi(string(d))
	if err != nil {
		return 0
	}
	return n
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(d)); err == nil {
		return []byte(d), nil
	}
	return []byte(strconv.Quote(string(d))), nil
}

func (d *Dimension) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*d = Dimension(s)
		return nil
	}
	if string(data) == "null" {
		*d = ""
		return nil
	}
	*d = Dimension(data)
	return nil
}

// Client creative type tags.
const (
	CreativeTypeImage  = "image"
	CreativeTypeNative = "native"
)

// ClientDataAsset is the value side of the client's keyed data asset map.
type ClientDataAsset struct {
	Type  int    `json:"type,omitempty"`
	Value string `json:"value"`
}

// ClientCreative is the flat, form-shaped creative. Type selects whether the
// image or the native fields are meaningful.
type ClientCreative struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	// image
	Width                 Dimension `json:"width,omitempty"`
	Height                Dimension `json:"height,omitempty"`
	Expand                int       `json:"expand,omitempty"`
	TopFrameOnly          bool      `json:"top_frame_only,omitempty"`
	Fullscreen            bool      `json:"fullscreen,omitempty"`
	HasAdPositions        bool      `json:"has_ad_positions,omitempty"`
	AdPositions           []string  `json:"ad_positions,omitempty"`
	HasCreativeAttributes bool      `json:"has_creative_attributes,omitempty"`
	CreativeAttributes    []string  `json:"creative_attributes,omitempty"`
	Source                string    `json:"source,omitempty"`
	Preview               string    `json:"preview,omitempty"`
	Format                string    `json:"format,omitempty"`

	// native
	Title       string                     `json:"title,omitempty"`
	ShortTitle  string                     `json:"short_title,omitempty"`
	DataAssets  map[string]ClientDataAsset `json:"data_assets,omitempty"`
	ImageAssets []ImageAsset               `json:"image_assets,omitempty"`
	VideoAssets []VideoAsset               `json:"video_assets,omitempty"`
}

// Traffic tri-state values for ClientCampaign.TargetingTraffic.
const (
	TrafficAll      = "all"
	TrafficAppOnly  = "app_traffic_only"
	TrafficSiteOnly = "site_traffic_only"
)

// ClientCampaign is the flat client representation of a campaign. Every
// has_<name> boolean is a derived control flag: on the way in it gates the
// companion field, on the way out it reports whether the canonical filter is
// populated. None of the flags are independently persisted.
type ClientCampaign struct {
	ID         string     `json:"id,omitempty"`
	CampaignID string     `json:"campaign_id,omitempty"`
	Rev        int        `json:"rev,omitempty"`
	Active     int        `json:"active"`
	UserID     *int       `json:"user_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Domain     string     `json:"domain,omitempty"`
	BundleName string     `json:"bundle_name,omitempty"`
	ClickURL   string     `json:"click_url,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	StartTime  time.Time  `json:"start_time,omitempty"`
	HasEndTime bool       `json:"has_end_time"`
	EndTime    *time.Time `json:"end_time"`

	HasSchedule bool     `json:"has_schedule"`
	Schedule    []string `json:"schedule,omitempty"`

	BiddingCurrency        string  `json:"bidding_currency,omitempty"`
	BiddingMaxPrice        float64 `json:"bidding_max_price,omitempty"`
	BiddingMaxCostPerHour  float64 `json:"bidding_max_cost_per_hour,omitempty"`
	BiddingBaselinePrice   float64 `json:"bidding_baseline_price_cpm,omitempty"`
	BiddingFixedPrice      bool    `json:"bidding_fixed_price,omitempty"`
	TargetingTraffic       string  `json:"targeting_traffic,omitempty"`
	TargetingRequireDevice bool    `json:"targeting_require_device,omitempty"`

	// presence-gated plain lists
	HasTargetingCategories     bool     `json:"has_targeting_categories"`
	TargetingCategories        []string `json:"targeting_categories,omitempty"`
	HasTargetingCategoryLevels bool     `json:"has_targeting_category_levels"`
	TargetingCategoryLevels    []string `json:"targeting_category_levels,omitempty"`
	HasTargetingKeywordLevels  bool     `json:"has_targeting_keyword_levels"`
	TargetingKeywordLevels     []string `json:"targeting_keyword_levels,omitempty"`
	HasTargetingDeviceTypes    bool     `json:"has_targeting_device_types"`
	TargetingDeviceTypes       []string `json:"targeting_device_types,omitempty"`
	HasTargetingConnTypes      bool     `json:"has_targeting_connection_types"`
	TargetingConnTypes         []string `json:"targeting_connection_types,omitempty"`
	HasTargetingOS             bool     `json:"has_targeting_os"`
	TargetingOS                []string `json:"targeting_os,omitempty"`

	// keywords travel as one comma-separated string
	TargetingKeywords string `json:"targeting_keywords,omitempty"`

	// allow/deny filters, six flat fields each
	HasTargetingOSVersion        bool     `json:"has_targeting_os_version"`
	TargetingOSVersionAllow      []string `json:"targeting_os_version_allow,omitempty"`
	TargetingOSVersionDeny       []string `json:"targeting_os_version_deny,omitempty"`
	TargetingOSVersionDenyEmpty  bool     `json:"targeting_os_version_deny_empty"`
	HasTargetingMake             bool     `json:"has_targeting_make"`
	TargetingMakeAllow           []string `json:"targeting_make_allow,omitempty"`
	TargetingMakeDeny            []string `json:"targeting_make_deny,omitempty"`
	TargetingMakeDenyEmpty       bool     `json:"targeting_make_deny_empty"`
	HasTargetingCarriers         bool     `json:"has_targeting_carriers"`
	TargetingCarriersAllow       []string `json:"targeting_carriers_allow,omitempty"`
	TargetingCarriersDeny        []string `json:"targeting_carriers_deny,omitempty"`
	TargetingCarriersDenyEmpty   bool     `json:"targeting_carriers_deny_empty"`
	HasTargetingCountries        bool     `json:"has_targeting_countries"`
	TargetingCountriesAllow      []string `json:"targeting_countries_allow,omitempty"`
	TargetingCountriesDeny       []string `json:"targeting_countries_deny,omitempty"`
	TargetingCountriesDenyEmpty  bool     `json:"targeting_countries_deny_empty"`
	HasTargetingDomains          bool     `json:"has_targeting_domains"`
	TargetingDomainsAllow        []string `json:"targeting_domains_allow,omitempty"`
	TargetingDomainsDeny         []string `json:"targeting_domains_deny,omitempty"`
	TargetingDomainsDenyEmpty    bool     `json:"targeting_domains_deny_empty"`
	HasTargetingBundles          bool     `json:"has_targeting_bundles"`
	TargetingBundlesAllow        []string `json:"targeting_bundles_allow,omitempty"`
	TargetingBundlesDeny         []string `json:"targeting_bundles_deny,omitempty"`
	TargetingBundlesDenyEmpty    bool     `json:"targeting_bundles_deny_empty"`
	HasTargetingPublishers       bool     `json:"has_targeting_publishers"`
	TargetingPublishersAllow     []string `json:"targeting_publishers_allow,omitempty"`
	TargetingPublishersDeny      []string `json:"targeting_publishers_deny,omitempty"`
	TargetingPublishersDenyEmpty bool     `json:"targeting_publishers_deny_empty"`
	HasTargetingProducers        bool     `json:"has_targeting_producers"`
	TargetingProducersAllow      []string `json:"targeting_producers_allow,omitempty"`
	TargetingProducersDeny       []string `json:"targeting_producers_deny,omitempty"`
	TargetingProducersDenyEmpty  bool     `json:"targeting_producers_deny_empty"`
	HasTargetingExchanges        bool     `json:"has_targeting_exchanges"`
	TargetingExchangesAllow      []string `json:"targeting_exchanges_allow,omitempty"`
	TargetingExchangesDeny       []string `json:"targeting_exchanges_deny,omitempty"`
	TargetingExchangesDenyEmpty  bool     `json:"targeting_exchanges_deny_empty"`

	// deny-only filters
	TargetingIPAddressDeny      []string `json:"targeting_ip_address_deny,omitempty"`
	TargetingIPAddressDenyEmpty bool     `json:"targeting_ip_address_deny_empty"`
	TargetingIFADeny            []string `json:"targeting_ifa_deny,omitempty"`
	TargetingIFADenyEmpty       bool     `json:"targeting_ifa_deny_empty"`

	TargetingUserRequireID      bool `json:"targeting_user_require_id,omitempty"`
	TargetingUserMaxImpressions int  `json:"targeting_user_max_impressions,omitempty"`

	Creatives []ClientCreative `json:"creatives"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
