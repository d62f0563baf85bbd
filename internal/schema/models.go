// Package schema converts advertising campaigns between their flat client
// form and the nested canonical form persisted and fed to the bid engine.
// All mapping functions are pure: they allocate fresh output, mutate no
// shared state beyond the read-only registries, and are safe to call from
// concurrent request handlers.
package schema

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adxhq/campaignd/internal/rtb"
)

// EndTimeSentinel marks a campaign with no end time. The value is the epoch
// millisecond timestamp the legacy dashboard stored (9999999999999, year
// 2286) and must survive round trips unchanged.
var EndTimeSentinel = time.UnixMilli(9999999999999).UTC()

// Campaign is the persisted campaign record. Revision bumping and identity
// assignment belong to the owning system; the mapper only carries them.
type Campaign struct {
	ID        string    `json:"id"`
	Active    int       `json:"active"`
	Rev       int       `json:"rev"`
	UserID    *int      `json:"user_id,omitempty"`
	Contents  Contents  `json:"contents"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Contents is the canonical campaign body stored as the JSONB contents
// column and consumed by the bid engine.
type Contents struct {
	ID         string     `json:"id"`
	Rev        int        `json:"rev"`
	Name       string     `json:"name,omitempty"`
	Domain     string     `json:"domain,omitempty"`
	Bundle     string     `json:"bundle,omitempty"`
	ClickURL   string     `json:"click_url,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Categories []string   `json:"categories"`
	Schedule   []string   `json:"schedule"`
	Targeting  Targeting  `json:"targeting"`
	Bidding    Bidding    `json:"bidding"`
	Exchanges  AllowDeny  `json:"exchanges"`
	Creatives  []Creative `json:"creatives"`
}

// contentsAlias avoids UnmarshalJSON recursion.
type contentsAlias Contents

// UnmarshalJSON tolerates contents stored either as a structured object or
// as its serialized text form (older rows double-encoded the column).
func (ct *Contents) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("unquote contents: %w", err)
		}
		data = []byte(encoded)
	}
	var a contentsAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("parse contents: %w", err)
	}
	*ct = Contents(a)
	return nil
}

// Targeting groups the independent sub-filters evaluated by the bid engine.
type Targeting struct {
	Device          DeviceTargeting   `json:"device"`
	Location        LocationTargeting `json:"location"`
	Categories      CategoryTargeting `json:"categories"`
	Keywords        KeywordTargeting  `json:"keywords"`
	Domains         AllowDeny         `json:"domains"`
	Bundles         AllowDeny         `json:"bundles"`
	AppTrafficOnly  bool              `json:"app_traffic_only"`
	SiteTrafficOnly bool              `json:"site_traffic_only"`
	Publishers      AllowDeny         `json:"publishers"`
	Producers       AllowDeny         `json:"producers"`
	User            UserTargeting     `json:"user"`
}

type DeviceTargeting struct {
	RequireDevice          bool      `json:"require_device"`
	RequireDeviceID        bool      `json:"require_device_id,omitempty"`
	BlockedDeviceTypes     []string  `json:"blocked_device_types"`
	BlockedConnectionTypes []string  `json:"blocked_connection_types"`
	BlockedOSes            []string  `json:"blocked_oses"`
	OSVersion              AllowDeny `json:"os_version"`
	Make                   AllowDeny `json:"make"`
	Carriers               AllowDeny `json:"carriers"`
	IPAddress              DenyList  `json:"ip_address"`
	IFADeny                DenyList  `json:"ifa_deny"`
}

type LocationTargeting struct {
	Countries      AllowDeny `json:"countries"`
	Required       bool      `json:"required"`
	RequireCountry bool      `json:"require_country"`
}

type CategoryTargeting struct {
	Categories []string `json:"categories"`
	Levels     []string `json:"levels"`
}

type KeywordTargeting struct {
	Keywords []string `json:"keywords"`
	Levels   []string `json:"levels"`
}

type UserTargeting struct {
	RequireID      bool `json:"require_id"`
	MaxImpressions int  `json:"max_impressions,omitempty"`
}

// AllowDeny is a targeting rule made of a permit list and a reject list.
// DenyEmpty controls whether a request missing the targeted attribute is
// rejected.
type AllowDeny struct {
	DenyEmpty bool     `json:"deny_empty"`
	Allow     []string `json:"allow"`
	Deny      []string `json:"deny"`
}

// DenyList is an AllowDeny with no permit side; used for IP address and
// device identifier denial.
type DenyList struct {
	DenyEmpty bool     `json:"deny_empty"`
	Deny      []string `json:"deny"`
}

// Bidding carries the campaign's pricing. After canonicalization MaxPrice is
// never below BaselinePriceCPM.
type Bidding struct {
	Currency         string             `json:"currency,omitempty"`
	MaxPrice         float64            `json:"max_price"`
	MaxCostPerHour   float64            `json:"max_cost_per_hour"`
	BaselinePriceCPM float64            `json:"baseline_price_cpm"`
	FixedPrice       bool               `json:"fixed_price"`
	TrafficTypes     map[string]float64 `json:"traffic_types,omitempty"`
}

// CreativeKind discriminates the creative variants.
type CreativeKind int

const (
	KindUnknown CreativeKind = iota
	KindImage
	KindNative
)

// Creative is a tagged union: exactly one of Banner or Native is set.
// Creatives belong to exactly one campaign; ids are generated once and
// stable across mapping round trips.
type Creative struct {
	ID           string        `json:"id"`
	Banner       *Banner       `json:"banner,omitempty"`
	Native       *Native       `json:"native,omitempty"`
	FullScreen   bool          `json:"fullscreen,omitempty"`
	ClientConfig *ClientConfig `json:"client_config,omitempty"`
}

// Kind reports which variant the creative holds.
func (c *Creative) Kind() CreativeKind {
	switch {
	case c.Banner != nil:
		return KindImage
	case c.Native != nil:
		return KindNative
	default:
		return KindUnknown
	}
}

// Banner is the image creative variant.
type Banner struct {
	Type             int              `json:"type"`
	Width            int              `json:"width"`
	Height           int              `json:"height"`
	Expand           int              `json:"expand"`
	Source           string           `json:"source"`
	AllowedPositions AllowedPositions `json:"allowed_positions"`
	TopFrameOnly     bool             `json:"top_frame_only"`
	Attributes       []string         `json:"attributes"`
	Mimes            []string         `json:"mimes"`
	API              []int            `json:"api,omitempty"`
}

type AllowedPositions struct {
	Positions   []string `json:"positions"`
	AnyPosition bool     `json:"any_position"`
}

// Native is the native ad creative variant.
type Native struct {
	Title       string       `json:"title"`
	ShortTitle  string       `json:"short_title,omitempty"`
	DataAssets  []DataAsset  `json:"data_assets"`
	ImageAssets []ImageAsset `json:"image_assets"`
	VideoAssets []VideoAsset `json:"video_assets"`
}

type DataAsset struct {
	Type  int    `json:"type"`
	Value string `json:"value"`
}

type ImageAsset struct {
	Type   int    `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mime   string `json:"mime,omitempty"`
}

type VideoAsset struct {
	URL           string   `json:"url"`
	ClickTrackers []string `json:"click_trackers"`
}

// ClientConfig preserves the dashboard-side creative fields that have no
// meaning to the bid engine but must survive the round trip.
type ClientConfig struct {
	Preview string `json:"preview"`
	Source  string `json:"source"`
	Format  string `json:"format"`
}

// DataAssetEntry binds a client-facing data asset key to its OpenRTB type.
type DataAssetEntry struct {
	Key  string
	Type int
}

// DataAssetRegistry is the ordered native data asset table. Iteration order
// determines the order of emitted data assets, so entries are a slice, not a
// map. The registry is read-only after construction.
type DataAssetRegistry []DataAssetEntry

// TypeFor returns the asset type for a client key.
func (r DataAssetRegistry) TypeFor(key string) (int, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Type, true
		}
	}
	return 0, false
}

// KeyFor returns the client key for an asset type. The first matching entry
// wins when duplicates exist.
func (r DataAssetRegistry) KeyFor(typ int) (string, bool) {
	for _, e := range r {
		if e.Type == typ {
			return e.Key, true
		}
	}
	return "", false
}

// DefaultDataAssetRegistry returns the built-in native data asset table.
func DefaultDataAssetRegistry() DataAssetRegistry {
	return DataAssetRegistry{
		{Key: "sponsored", Type: rtb.NativeDataAssetSponsored},
		{Key: "description", Type: rtb.NativeDataAssetDescription},
		{Key: "rating", Type: rtb.NativeDataAssetRating},
		{Key: "likes", Type: rtb.NativeDataAssetLikes},
		{Key: "downloads", Type: rtb.NativeDataAssetDownloads},
		{Key: "price", Type: rtb.NativeDataAssetPrice},
		{Key: "sale_price", Type: rtb.NativeDataAssetSalePrice},
		{Key: "phone", Type: rtb.NativeDataAssetPhone},
		{Key: "address", Type: rtb.NativeDataAssetAddress},
		{Key: "description2", Type: rtb.NativeDataAssetDesc2},
		{Key: "display_url", Type: rtb.NativeDataAssetDisplayURL},
		{Key: "cta_text", Type: rtb.NativeDataAssetCTAText},
	}
}
