package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/rtb"
)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	return NewMapper(banner.NewRegistry(banner.DefaultTemplates()), DefaultDataAssetRegistry(), nil)
}

func TestImageFromClientRendersTemplate(t *testing.T) {
	m := newTestMapper(t)

	cr := m.ImageFromClient(ClientCreative{
		ID:     "cr-1",
		Type:   CreativeTypeImage,
		Width:  DimensionFromInt(320),
		Height: DimensionFromInt(50),
		Source: "https://cdn.example.com/ads/a.png",
		Format: "banner",
	})

	require.NotNil(t, cr.Banner)
	require.Nil(t, cr.Native)
	assert.Equal(t, KindImage, cr.Kind())
	assert.Equal(t, "cr-1", cr.ID)
	assert.Equal(t, rtb.BannerTypeJavaScript, cr.Banner.Type)
	assert.Equal(t, 320, cr.Banner.Width)
	assert.Equal(t, 50, cr.Banner.Height)
	assert.Equal(t, []string{"application/javascript"}, cr.Banner.Mimes)
	assert.Contains(t, cr.Banner.Source, "https://cdn.example.com/ads/a.png")
	assert.NotContains(t, cr.Banner.Source, "{{source}}")

	require.NotNil(t, cr.ClientConfig)
	assert.Equal(t, "https://cdn.example.com/ads/a.png", cr.ClientConfig.Source)
	assert.Equal(t, "banner", cr.ClientConfig.Format)
}

func TestImageFromClientFullscreenTemplate(t *testing.T) {
	m := newTestMapper(t)

	cr := m.ImageFromClient(ClientCreative{
		Type:       CreativeTypeImage,
		Source:     "https://cdn.example.com/ads/full.png",
		Format:     "interstitial",
		Fullscreen: true,
	})

	require.NotNil(t, cr.Banner)
	assert.True(t, cr.FullScreen)
	assert.Equal(t, []int{3, 5}, cr.Banner.API)
	assert.Contains(t, cr.Banner.Source, "interstitial")
}

func TestImageFromClientUnregisteredFormat(t *testing.T) {
	m := newTestMapper(t)

	cr := m.ImageFromClient(ClientCreative{
		ID:     "cr-2",
		Type:   CreativeTypeImage,
		Width:  DimensionFromInt(728),
		Height: DimensionFromInt(90),
		Source: "https://cdn.example.com/ads/l.png",
		Format: "leaderboard",
	})

	require.NotNil(t, cr.Banner)
	assert.Empty(t, cr.Banner.Source)
	assert.Equal(t, rtb.BannerTypeJavaScript, cr.Banner.Type)
	assert.Equal(t, 728, cr.Banner.Width)
	assert.Equal(t, []string{"image/png"}, cr.Banner.Mimes)
	// round trip still restores the client's source and format
	back := m.ImageToClient(cr)
	assert.Equal(t, "https://cdn.example.com/ads/l.png", back.Source)
	assert.Equal(t, "leaderboard", back.Format)
}

func TestImageFromClientGeneratesID(t *testing.T) {
	m := newTestMapper(t)

	a := m.ImageFromClient(ClientCreative{Type: CreativeTypeImage, Format: "banner"})
	b := m.ImageFromClient(ClientCreative{Type: CreativeTypeImage, Format: "banner"})
	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestImageAdPositions(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name      string
		in        ClientCreative
		positions []string
		any       bool
	}{
		{
			name:      "no positions means any",
			in:        ClientCreative{Type: CreativeTypeImage, Format: "banner"},
			positions: []string{},
			any:       true,
		},
		{
			name: "explicit positions",
			in: ClientCreative{
				Type: CreativeTypeImage, Format: "banner",
				HasAdPositions: true, AdPositions: []string{"1", "3"},
			},
			positions: []string{"1", "3"},
			any:       false,
		},
		{
			name: "positions ignored without the flag",
			in: ClientCreative{
				Type: CreativeTypeImage, Format: "banner",
				AdPositions: []string{"1"},
			},
			positions: []string{"1"},
			any:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := m.ImageFromClient(tt.in)
			require.NotNil(t, cr.Banner)
			assert.Equal(t, tt.positions, cr.Banner.AllowedPositions.Positions)
			assert.Equal(t, tt.any, cr.Banner.AllowedPositions.AnyPosition)
		})
	}
}

func TestNativeDataAssetsFollowRegistryOrder(t *testing.T) {
	m := newTestMapper(t)

	cr := m.NativeFromClient(ClientCreative{
		ID:    "ntv-1",
		Type:  CreativeTypeNative,
		Title: "Great App",
		DataAssets: map[string]ClientDataAsset{
			"cta_text":    {Value: "Install"},
			"description": {Value: "The best app"},
			"rating":      {Value: "4.5"},
		},
	})

	require.NotNil(t, cr.Native)
	assert.Equal(t, KindNative, cr.Kind())
	require.Len(t, cr.Native.DataAssets, 3)
	// registry order, not map order
	assert.Equal(t, DataAsset{Type: rtb.NativeDataAssetDescription, Value: "The best app"}, cr.Native.DataAssets[0])
	assert.Equal(t, DataAsset{Type: rtb.NativeDataAssetRating, Value: "4.5"}, cr.Native.DataAssets[1])
	assert.Equal(t, DataAsset{Type: rtb.NativeDataAssetCTAText, Value: "Install"}, cr.Native.DataAssets[2])
}

func TestNativeFromClientUnknownKeysSkipped(t *testing.T) {
	m := newTestMapper(t)

	cr := m.NativeFromClient(ClientCreative{
		Type: CreativeTypeNative,
		DataAssets: map[string]ClientDataAsset{
			"description": {Value: "ok"},
			"bogus":       {Value: "dropped"},
		},
	})

	require.NotNil(t, cr.Native)
	require.Len(t, cr.Native.DataAssets, 1)
	assert.Equal(t, rtb.NativeDataAssetDescription, cr.Native.DataAssets[0].Type)
}

func TestNativeToClientImageRanges(t *testing.T) {
	m := newTestMapper(t)

	cr := Creative{
		ID: "ntv-2",
		Native: &Native{
			Title: "Great App",
			DataAssets: []DataAsset{
				{Type: rtb.NativeDataAssetDescription, Value: "desc"},
			},
			ImageAssets: []ImageAsset{
				{Type: rtb.NativeImageAssetIcon, URL: "https://cdn.example.com/i/w96", Width: 96, Height: 96},
				{Type: rtb.NativeImageAssetIcon, URL: "https://cdn.example.com/i/w256", Width: 256, Height: 256},
				{Type: rtb.NativeImageAssetMain, URL: "https://cdn.example.com/m.jpg", Width: 1200, Height: 628},
			},
			VideoAssets: []VideoAsset{},
		},
	}

	out := m.NativeToClient(cr)
	assert.Equal(t, CreativeTypeNative, out.Type)
	assert.Equal(t, "https://cdn.example.com/i/w96", out.Preview)
	assert.Equal(t, Dimension("96 - 1200"), out.Width)
	assert.Equal(t, Dimension("96 - 628"), out.Height)
	require.Contains(t, out.DataAssets, "description")
	assert.Equal(t, "desc", out.DataAssets["description"].Value)
}

func TestNativeToClientNoImageAssets(t *testing.T) {
	m := newTestMapper(t)

	out := m.NativeToClient(Creative{
		ID:     "ntv-3",
		Native: &Native{Title: "t", DataAssets: []DataAsset{}, ImageAssets: []ImageAsset{}, VideoAssets: []VideoAsset{}},
	})
	assert.Empty(t, out.Preview)
	assert.Empty(t, string(out.Width))
	assert.Empty(t, string(out.Height))
}

func TestImageCreativeRoundTrip(t *testing.T) {
	m := newTestMapper(t)

	in := ClientCreative{
		ID:                    "cr-rt",
		Type:                  CreativeTypeImage,
		Width:                 DimensionFromInt(300),
		Height:                DimensionFromInt(250),
		TopFrameOnly:          true,
		HasAdPositions:        true,
		AdPositions:           []string{"1"},
		HasCreativeAttributes: true,
		CreativeAttributes:    []string{"6"},
		Source:                "https://cdn.example.com/ads/m.png",
		Preview:               "https://cdn.example.com/ads/m.png",
		Format:                "mrec",
	}

	out := m.ImageToClient(m.ImageFromClient(in))
	assert.Equal(t, in, out)
}

func TestNativeCreativeRoundTrip(t *testing.T) {
	m := newTestMapper(t)

	in := m.NativeToClient(m.NativeFromClient(ClientCreative{
		ID:         "ntv-rt",
		Type:       CreativeTypeNative,
		Title:      "Great App",
		ShortTitle: "App",
		DataAssets: map[string]ClientDataAsset{
			"description": {Value: "the best"},
			"cta_text":    {Value: "Install"},
		},
		ImageAssets: []ImageAsset{
			{Type: rtb.NativeImageAssetIcon, URL: "https://cdn.example.com/i/w128", Width: 128, Height: 128},
		},
		VideoAssets: []VideoAsset{
			{URL: "https://cdn.example.com/v.mp4", ClickTrackers: []string{"https://t.example.com/c"}},
		},
	}))

	again := m.NativeToClient(m.NativeFromClient(in))
	assert.Equal(t, in, again)
}

func TestMimesForSource(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"https://cdn.example.com/a.png", []string{"image/png"}},
		{"https://cdn.example.com/a.jpg", []string{"image/jpeg"}},
		{"https://cdn.example.com/a.gif?v=2", []string{"image/gif"}},
		{"https://cdn.example.com/a", []string{}},
		{"https://cdn.example.com/a.unknownext", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := mimesForSource(tt.src)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.False(t, strings.Contains(got[0], ";"))
			assert.Equal(t, tt.want, got)
		})
	}
}
