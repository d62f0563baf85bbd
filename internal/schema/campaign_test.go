package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromClientIdentityDefaults(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{Name: "spring push"})
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1, c.Rev)
	assert.Equal(t, c.ID, c.Contents.ID)
	assert.Equal(t, 1, c.Contents.Rev)
	assert.Equal(t, "spring push", c.Contents.Name)

	c2 := m.FromClient(&ClientCampaign{ID: "cmp-1", CampaignID: "cmp-parent", Rev: 4})
	assert.Equal(t, "cmp-1", c2.ID)
	assert.Equal(t, "cmp-parent", c2.Contents.ID)
	assert.Equal(t, 4, c2.Rev)
}

func TestEndTimeSentinel(t *testing.T) {
	m := newTestMapper(t)

	t.Run("absent end time stores the sentinel", func(t *testing.T) {
		c := m.FromClient(&ClientCampaign{})
		assert.True(t, c.Contents.EndTime.Equal(EndTimeSentinel))
	})

	t.Run("sentinel maps back to no end time", func(t *testing.T) {
		c := m.FromClient(&ClientCampaign{})
		out := m.ToClient(c)
		assert.False(t, out.HasEndTime)
		assert.Nil(t, out.EndTime)
	})

	t.Run("real end time survives", func(t *testing.T) {
		end := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		c := m.FromClient(&ClientCampaign{HasEndTime: true, EndTime: &end})
		assert.True(t, c.Contents.EndTime.Equal(end))
		out := m.ToClient(c)
		assert.True(t, out.HasEndTime)
		require.NotNil(t, out.EndTime)
		assert.True(t, out.EndTime.Equal(end))
	})

	t.Run("end time one millisecond before the sentinel is real", func(t *testing.T) {
		end := time.UnixMilli(9999999999998).UTC()
		c := m.FromClient(&ClientCampaign{HasEndTime: true, EndTime: &end})
		out := m.ToClient(c)
		assert.True(t, out.HasEndTime)
	})
}

func TestListGating(t *testing.T) {
	m := newTestMapper(t)

	t.Run("flag off ignores the list", func(t *testing.T) {
		c := m.FromClient(&ClientCampaign{
			TargetingOS: []string{"windows"},
		})
		assert.Empty(t, c.Contents.Targeting.Device.BlockedOSes)
	})

	t.Run("flag on copies the list", func(t *testing.T) {
		c := m.FromClient(&ClientCampaign{
			HasTargetingOS: true,
			TargetingOS:    []string{"windows", "macos"},
		})
		assert.Equal(t, []string{"windows", "macos"}, c.Contents.Targeting.Device.BlockedOSes)
	})

	t.Run("flag is derived on the way out", func(t *testing.T) {
		c := m.FromClient(&ClientCampaign{HasTargetingOS: true, TargetingOS: []string{"windows"}})
		out := m.ToClient(c)
		assert.True(t, out.HasTargetingOS)

		c2 := m.FromClient(&ClientCampaign{HasTargetingOS: true})
		out2 := m.ToClient(c2)
		assert.False(t, out2.HasTargetingOS)
	})
}

func TestAllowDenyGating(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{
		TargetingMakeAllow:     []string{"apple"},
		TargetingMakeDeny:      []string{"samsung"},
		TargetingMakeDenyEmpty: true,
	})
	f := c.Contents.Targeting.Device.Make
	assert.Empty(t, f.Allow)
	assert.Empty(t, f.Deny)
	// deny_empty passes through regardless of the presence flag
	assert.True(t, f.DenyEmpty)

	c2 := m.FromClient(&ClientCampaign{
		HasTargetingMake:   true,
		TargetingMakeAllow: []string{"apple"},
		TargetingMakeDeny:  []string{"samsung"},
	})
	f2 := c2.Contents.Targeting.Device.Make
	assert.Equal(t, []string{"apple"}, f2.Allow)
	assert.Equal(t, []string{"samsung"}, f2.Deny)
}

func TestCountryWidening(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{
		HasTargetingCountries:   true,
		TargetingCountriesAllow: []string{"US", "GB"},
		TargetingCountriesDeny:  []string{"FR"},
	})
	loc := c.Contents.Targeting.Location
	assert.Equal(t, []string{"US", "USA", "GB", "GBR"}, loc.Countries.Allow)
	assert.Equal(t, []string{"FR", "FRA"}, loc.Countries.Deny)
	assert.True(t, loc.Required)
	assert.True(t, loc.RequireCountry)

	// widening is idempotent across round trips
	out := m.ToClient(c)
	again := m.FromClient(out)
	assert.Equal(t, loc.Countries, again.Contents.Targeting.Location.Countries)
}

func TestDenyOnlyFiltersAreNotGated(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{
		TargetingIPAddressDeny: []string{"10.0.0.0/8"},
		TargetingIFADeny:       []string{"abc-123"},
		TargetingIFADenyEmpty:  true,
	})
	assert.Equal(t, []string{"10.0.0.0/8"}, c.Contents.Targeting.Device.IPAddress.Deny)
	assert.Equal(t, []string{"abc-123"}, c.Contents.Targeting.Device.IFADeny.Deny)
	assert.True(t, c.Contents.Targeting.Device.IFADeny.DenyEmpty)
}

func TestKeywords(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{TargetingKeywords: " games,  puzzle ,arcade,, "})
	assert.Equal(t, []string{"games", "puzzle", "arcade"}, c.Contents.Targeting.Keywords.Keywords)

	out := m.ToClient(c)
	assert.Equal(t, "games,puzzle,arcade", out.TargetingKeywords)
}

func TestTrafficTriState(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		in   string
		app  bool
		site bool
		out  string
	}{
		{TrafficAll, false, false, TrafficAll},
		{TrafficAppOnly, true, false, TrafficAppOnly},
		{TrafficSiteOnly, false, true, TrafficSiteOnly},
		{"", false, false, TrafficAll},
	}
	for _, tt := range tests {
		t.Run("traffic "+tt.in, func(t *testing.T) {
			c := m.FromClient(&ClientCampaign{TargetingTraffic: tt.in})
			assert.Equal(t, tt.app, c.Contents.Targeting.AppTrafficOnly)
			assert.Equal(t, tt.site, c.Contents.Targeting.SiteTrafficOnly)
			assert.Equal(t, tt.out, m.ToClient(c).TargetingTraffic)
		})
	}

	t.Run("app wins when both flags are set", func(t *testing.T) {
		c := m.FromClient(&ClientCampaign{})
		c.Contents.Targeting.AppTrafficOnly = true
		c.Contents.Targeting.SiteTrafficOnly = true
		assert.Equal(t, TrafficAppOnly, m.ToClient(c).TargetingTraffic)
	})
}

func TestBidClamp(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{
		BiddingMaxPrice:      0.05,
		BiddingBaselinePrice: 0.10,
	})
	assert.Equal(t, 0.10, c.Contents.Bidding.MaxPrice)
	assert.Equal(t, 0.10, c.Contents.Bidding.BaselinePriceCPM)

	c2 := m.FromClient(&ClientCampaign{
		BiddingMaxPrice:      0.30,
		BiddingBaselinePrice: 0.10,
	})
	assert.Equal(t, 0.30, c2.Contents.Bidding.MaxPrice)
}

func TestUnknownCreativeTypeDropped(t *testing.T) {
	m := newTestMapper(t)

	c := m.FromClient(&ClientCampaign{
		Creatives: []ClientCreative{
			{Type: CreativeTypeImage, Format: "banner", Source: "https://cdn.example.com/a.png"},
			{Type: "video"},
			{Type: CreativeTypeNative, Title: "t"},
		},
	})
	require.Len(t, c.Contents.Creatives, 2)
	assert.Equal(t, KindImage, c.Contents.Creatives[0].Kind())
	assert.Equal(t, KindNative, c.Contents.Creatives[1].Kind())
}

func TestStartTimeFallsBackToCreatedAt(t *testing.T) {
	m := newTestMapper(t)

	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := m.ToClient(&Campaign{ID: "c1", CreatedAt: created})
	assert.True(t, out.StartTime.Equal(created))
}

func TestCampaignRoundTrip(t *testing.T) {
	m := newTestMapper(t)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	userID := 7
	in := &ClientCampaign{
		ID:         "cmp-rt",
		CampaignID: "cmp-rt",
		Rev:        2,
		Active:     1,
		UserID:     &userID,
		Name:       "round trip",
		Domain:     "example.com",
		BundleName: "com.example.app",
		ClickURL:   "https://example.com/click",
		Categories: []string{"IAB9"},
		StartTime:  start,
		HasEndTime: true,
		EndTime:    &end,

		HasSchedule: true,
		Schedule:    []string{"mon", "tue"},

		BiddingCurrency:        "USD",
		BiddingMaxPrice:        0.20,
		BiddingMaxCostPerHour:  2.0,
		BiddingBaselinePrice:   0.10,
		TargetingTraffic:       TrafficAppOnly,
		TargetingRequireDevice: true,

		HasTargetingCategories:     false,
		TargetingCategories:        []string{},
		HasTargetingCategoryLevels: false,
		TargetingCategoryLevels:    []string{},
		HasTargetingKeywordLevels:  false,
		TargetingKeywordLevels:     []string{},
		HasTargetingDeviceTypes:    true,
		TargetingDeviceTypes:       []string{"4"},
		HasTargetingConnTypes:      false,
		TargetingConnTypes:         []string{},
		HasTargetingOS:             true,
		TargetingOS:                []string{"windows"},

		TargetingKeywords: "games,puzzle",

		HasTargetingCountries:   true,
		TargetingCountriesAllow: []string{"US", "USA"},
		TargetingCountriesDeny:  []string{},

		HasTargetingExchanges:       true,
		TargetingExchangesAllow:     []string{"exch-a"},
		TargetingExchangesDeny:      []string{},
		TargetingExchangesDenyEmpty: true,

		TargetingIPAddressDeny: []string{"10.0.0.1"},

		TargetingUserRequireID:      true,
		TargetingUserMaxImpressions: 5,

		Creatives: []ClientCreative{},
	}
	// zero-value the remaining list fields so equality holds after the
	// mapper normalizes nil to empty
	normalize := func(c *ClientCampaign) {
		fill := []*[]string{
			&c.TargetingOSVersionAllow, &c.TargetingOSVersionDeny,
			&c.TargetingMakeAllow, &c.TargetingMakeDeny,
			&c.TargetingCarriersAllow, &c.TargetingCarriersDeny,
			&c.TargetingDomainsAllow, &c.TargetingDomainsDeny,
			&c.TargetingBundlesAllow, &c.TargetingBundlesDeny,
			&c.TargetingPublishersAllow, &c.TargetingPublishersDeny,
			&c.TargetingProducersAllow, &c.TargetingProducersDeny,
			&c.TargetingIFADeny,
		}
		for _, f := range fill {
			if *f == nil {
				*f = []string{}
			}
		}
	}
	normalize(in)

	out := m.ToClient(m.FromClient(in))
	assert.Equal(t, in, out)
}

func TestContentsAcceptsStringEncodedJSON(t *testing.T) {
	inner := `{"id":"cmp-9","rev":3,"name":"doubly encoded"}`
	doc, err := json.Marshal(map[string]any{
		"id":       "cmp-9",
		"active":   1,
		"rev":      3,
		"contents": inner,
	})
	require.NoError(t, err)

	var c Campaign
	require.NoError(t, json.Unmarshal(doc, &c))
	assert.Equal(t, "cmp-9", c.Contents.ID)
	assert.Equal(t, 3, c.Contents.Rev)
	assert.Equal(t, "doubly encoded", c.Contents.Name)

	var c2 Campaign
	require.NoError(t, json.Unmarshal([]byte(`{"id":"cmp-9","contents":{"id":"cmp-9","rev":1}}`), &c2))
	assert.Equal(t, "cmp-9", c2.Contents.ID)
}

func TestDimensionJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Dimension
		want string
	}{
		{"numeric marshals as number", DimensionFromInt(320), "320"},
		{"range marshals as string", Dimension("96 - 256"), `"96 - 256"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))

			var d Dimension
			require.NoError(t, json.Unmarshal(b, &d))
			assert.Equal(t, tt.in, d)
		})
	}

	var d Dimension
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.Empty(t, string(d))
}
