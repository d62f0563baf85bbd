// Package rtb holds the OpenRTB Native constants shared by the campaign
// canonicalizer and the feed ingester. Values follow the IAB OpenRTB Native
// Ads 1.2 enumerations.
package rtb

// Banner ad types. BannerTypeJavaScript is the default used when no banner
// template matches a creative's format.
const (
	BannerTypeXHTMLText   = 1
	BannerTypeXHTMLBanner = 2
	BannerTypeJavaScript  = 3
	BannerTypeIframe      = 4
)

// NoExpand marks a banner that never expands beyond its slot.
const NoExpand = 0

// Native image asset types.
const (
	NativeImageAssetIcon = 1
	NativeImageAssetLogo = 2
	NativeImageAssetMain = 3
)

// Native data asset types.
const (
	NativeDataAssetSponsored   = 1
	NativeDataAssetDescription = 2
	NativeDataAssetRating      = 3
	NativeDataAssetLikes       = 4
	NativeDataAssetDownloads   = 5
	NativeDataAssetPrice       = 6
	NativeDataAssetSalePrice   = 7
	NativeDataAssetPhone       = 8
	NativeDataAssetAddress     = 9
	NativeDataAssetDesc2       = 10
	NativeDataAssetDisplayURL  = 11
	NativeDataAssetCTAText     = 12
)
