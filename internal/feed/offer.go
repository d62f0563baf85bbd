// Package feed ingests third-party offer feeds and converts each offer into
// a canonical campaign body ready for persistence.
package feed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/geo"
	"github.com/adxhq/campaignd/internal/rtb"
	"github.com/adxhq/campaignd/internal/schema"
)

// Offer is one entry of the upstream offer feed, as the detail endpoint
// returns it.
type Offer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AppTitle    string          `json:"appTitle"`
	AppIconLink string          `json:"appIconLink"`
	ClickURL    string          `json:"objectiveUrl"`
	Platform    string          `json:"targetPlatform"`
	Countries   []string        `json:"targetedCountries"`
	Description string          `json:"appDescription"`
	Creatives   []OfferCreative `json:"creatives"`
}

// OfferCreative is one creative attachment of an offer.
type OfferCreative struct {
	Mime       string `json:"mimeType"`
	Dimensions string `json:"dimensions"`
	PreviewURL string `json:"previewUrl"`
}

// Icon links end in a width segment the CDN resizes on; each campaign gets
// the standard icon sizes.
var iconWidthPattern = regexp.MustCompile(`w\d+$`)

var iconSizes = []int{96, 128, 256}

const (
	clickIDMacro  = "[[clickid]]"
	clickIDToken  = "${CLICK_ID}"
	imageMimeType = "image/jpeg"
	videoMimeType = "video/mp4"
)

// PriceOverrides carries per-run bidding parameters. Zero fields fall back
// to the configured defaults.
type PriceOverrides struct {
	MaxBiddingPrice  float64
	BaselinePriceCPM float64
	MaxCostPerHour   float64
}

// converter turns offers into canonical campaign bodies. It reuses the
// campaign mapper for image creatives so feed campaigns and dashboard
// campaigns render through the same templates.
type converter struct {
	templates *banner.Registry
	mapper    *schema.Mapper
	prices    PriceOverrides
	now       func() time.Time
}

// Convert builds the canonical campaign body for one offer.
func (cv *converter) Convert(o Offer) schema.Contents {
	ct := schema.Contents{
		ID:         o.ID,
		Rev:        1,
		Name:       o.Name,
		ClickURL:   strings.ReplaceAll(o.ClickURL, clickIDMacro, clickIDToken),
		StartTime:  cv.now().UTC(),
		EndTime:    schema.EndTimeSentinel,
		Categories: []string{},
		Schedule:   []string{},
		Creatives:  []schema.Creative{},
	}

	ct.Targeting = emptyTargeting()
	ct.Exchanges = schema.AllowDeny{Allow: []string{}, Deny: []string{}}
	ct.Targeting.Device.RequireDevice = true
	ct.Targeting.Device.RequireDeviceID = true
	ct.Targeting.Device.BlockedOSes = blockedOSes(o.Platform)
	// country presence is always demanded of feed traffic, even when the
	// allow list is empty
	ct.Targeting.Location = schema.LocationTargeting{
		Countries: schema.AllowDeny{
			DenyEmpty: true,
			Allow:     geo.Widen(o.Countries),
			Deny:      []string{},
		},
		Required:       true,
		RequireCountry: true,
	}

	ct.Bidding = cv.bidding()

	if ntv := cv.nativeCreative(o); ntv != nil {
		ct.Creatives = append(ct.Creatives, *ntv)
	}
	ct.Creatives = append(ct.Creatives, cv.imageCreatives(o)...)

	return ct
}

func (cv *converter) bidding() schema.Bidding {
	b := schema.Bidding{
		Currency:         "USD",
		MaxPrice:         cv.prices.MaxBiddingPrice,
		BaselinePriceCPM: cv.prices.BaselinePriceCPM,
		MaxCostPerHour:   cv.prices.MaxCostPerHour,
		TrafficTypes:     map[string]float64{"app": 1.5, "site": 1.0},
	}
	if b.MaxPrice < b.BaselinePriceCPM {
		b.MaxPrice = b.BaselinePriceCPM
	}
	return b
}

// nativeCreative assembles the offer's single native creative. Offers with
// neither an icon nor a usable creative still produce one; the bid engine
// filters on asset presence.
func (cv *converter) nativeCreative(o Offer) *schema.Creative {
	n := &schema.Native{
		Title:       o.AppTitle,
		ShortTitle:  o.AppTitle,
		DataAssets:  []schema.DataAsset{},
		ImageAssets: iconAssets(o.AppIconLink),
		VideoAssets: []schema.VideoAsset{},
	}

	for _, c := range o.Creatives {
		switch {
		case c.Mime == videoMimeType:
			n.VideoAssets = append(n.VideoAssets, schema.VideoAsset{
				URL:           c.PreviewURL,
				ClickTrackers: []string{},
			})
		case c.Mime == imageMimeType:
			w, h, ok := parseDimensions(c.Dimensions)
			if !ok {
				continue
			}
			n.ImageAssets = append(n.ImageAssets, schema.ImageAsset{
				Type:   rtb.NativeImageAssetMain,
				URL:    c.PreviewURL,
				Width:  w,
				Height: h,
				Mime:   c.Mime,
			})
		}
	}

	if line := firstLine(o.Description); line != "" {
		n.DataAssets = append(n.DataAssets, schema.DataAsset{
			Type:  rtb.NativeDataAssetDescription,
			Value: line,
		})
	}

	return &schema.Creative{ID: "ntv-" + o.ID, Native: n}
}

// imageCreatives crosses the offer's image attachments with every registered
// banner template, so each image renders in every configured placement.
func (cv *converter) imageCreatives(o Offer) []schema.Creative {
	out := []schema.Creative{}
	for i, c := range o.Creatives {
		if c.Mime != imageMimeType {
			continue
		}
		w, h, ok := parseDimensions(c.Dimensions)
		if !ok {
			continue
		}
		for _, tpl := range cv.templates.All() {
			format := strings.TrimSuffix(strings.TrimPrefix(tpl.Name, "image_"), "_fullscreen")
			out = append(out, cv.mapper.ImageFromClient(schema.ClientCreative{
				ID:         fmt.Sprintf("%s-%d-%s", o.ID, i, tpl.Name),
				Type:       schema.CreativeTypeImage,
				Width:      schema.DimensionFromInt(w),
				Height:     schema.DimensionFromInt(h),
				Expand:     rtb.NoExpand,
				Source:     c.PreviewURL,
				Preview:    c.PreviewURL,
				Format:     format,
				Fullscreen: tpl.FullScreen,
			}))
		}
	}
	return out
}

// iconAssets expands the feed's icon link into the standard icon sizes when
// the link carries a resizable width segment, otherwise keeps it as-is.
func iconAssets(link string) []schema.ImageAsset {
	if link == "" {
		return []schema.ImageAsset{}
	}
	if !iconWidthPattern.MatchString(link) {
		return []schema.ImageAsset{{Type: rtb.NativeImageAssetIcon, URL: link, Mime: "image/png"}}
	}
	out := make([]schema.ImageAsset, 0, len(iconSizes))
	for _, size := range iconSizes {
		out = append(out, schema.ImageAsset{
			Type:   rtb.NativeImageAssetIcon,
			URL:    iconWidthPattern.ReplaceAllString(link, "w"+strconv.Itoa(size)),
			Width:  size,
			Height: size,
			Mime:   "image/png",
		})
	}
	return out
}

// blockedOSes is the complement of the offer's target platform.
func blockedOSes(platform string) []string {
	switch strings.ToLower(platform) {
	case "ios":
		return []string{"android"}
	case "android":
		return []string{"ios"}
	default:
		return []string{}
	}
}

// parseDimensions parses a "WxH" string.
func parseDimensions(s string) (int, int, bool) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

func emptyTargeting() schema.Targeting {
	emptyAD := schema.AllowDeny{Allow: []string{}, Deny: []string{}}
	return schema.Targeting{
		Device: schema.DeviceTargeting{
			BlockedDeviceTypes:     []string{},
			BlockedConnectionTypes: []string{},
			BlockedOSes:            []string{},
			OSVersion:              emptyAD,
			Make:                   emptyAD,
			Carriers:               emptyAD,
			IPAddress:              schema.DenyList{Deny: []string{}},
			IFADeny:                schema.DenyList{Deny: []string{}},
		},
		Location: schema.LocationTargeting{Countries: emptyAD},
		Categories: schema.CategoryTargeting{
			Categories: []string{},
			Levels:     []string{},
		},
		Keywords: schema.KeywordTargeting{
			Keywords: []string{},
			Levels:   []string{},
		},
		Domains:    emptyAD,
		Bundles:    emptyAD,
		Publishers: emptyAD,
		Producers:  emptyAD,
	}
}
