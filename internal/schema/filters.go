package schema

import (
	"github.com/adxhq/campaignd/internal/geo"
)

// The targeting field tables below drive both mapping directions. Each
// binding pairs the flat client field group with its canonical destination,
// so the two directions cannot drift apart. All extractors treat absent
// input as empty and never fail.

// clientList is a view over the two flat client fields backing a
// presence-gated list.
type clientList struct {
	has  *bool
	list *[]string
}

// clientAllowDeny is a view over the flat client fields backing an
// allow/deny filter.
type clientAllowDeny struct {
	has       *bool
	denyEmpty *bool
	allow     *[]string
	deny      *[]string
}

// clientDeny is a view over the flat client fields backing a deny-only
// filter.
type clientDeny struct {
	denyEmpty *bool
	deny      *[]string
}

type listBinding struct {
	name   string
	client func(*ClientCampaign) clientList
	canon  func(*Contents) *[]string
}

type allowDenyBinding struct {
	name string
	// widen runs both lists through the country code resolver
	widen  bool
	client func(*ClientCampaign) clientAllowDeny
	canon  func(*Contents) *AllowDeny
}

type denyBinding struct {
	name   string
	client func(*ClientCampaign) clientDeny
	canon  func(*Contents) *DenyList
}

var listBindings = []listBinding{
	{
		name:   "targeting_device_types",
		client: func(m *ClientCampaign) clientList { return clientList{&m.HasTargetingDeviceTypes, &m.TargetingDeviceTypes} },
		canon:  func(ct *Contents) *[]string { return &ct.Targeting.Device.BlockedDeviceTypes },
	},
	{
		name:   "targeting_connection_types",
		client: func(m *ClientCampaign) clientList { return clientList{&m.HasTargetingConnTypes, &m.TargetingConnTypes} },
		canon:  func(ct *Contents) *[]string { return &ct.Targeting.Device.BlockedConnectionTypes },
	},
	{
		name:   "targeting_os",
		client: func(m *ClientCampaign) clientList { return clientList{&m.HasTargetingOS, &m.TargetingOS} },
		canon:  func(ct *Contents) *[]string { return &ct.Targeting.Device.BlockedOSes },
	},
	{
		name:   "targeting_categories",
		client: func(m *ClientCampaign) clientList { return clientList{&m.HasTargetingCategories, &m.TargetingCategories} },
		canon:  func(ct *Contents) *[]string { return &ct.Targeting.Categories.Categories },
	},
	{
		name: "targeting_category_levels",
		client: func(m *ClientCampaign) clientList {
			return clientList{&m.HasTargetingCategoryLevels, &m.TargetingCategoryLevels}
		},
		canon: func(ct *Contents) *[]string { return &ct.Targeting.Categories.Levels },
	},
	{
		name: "targeting_keyword_levels",
		client: func(m *ClientCampaign) clientList {
			return clientList{&m.HasTargetingKeywordLevels, &m.TargetingKeywordLevels}
		},
		canon: func(ct *Contents) *[]string { return &ct.Targeting.Keywords.Levels },
	},
	{
		name:   "schedule",
		client: func(m *ClientCampaign) clientList { return clientList{&m.HasSchedule, &m.Schedule} },
		canon:  func(ct *Contents) *[]string { return &ct.Schedule },
	},
}

var allowDenyBindings = []allowDenyBinding{
	{
		name: "targeting_os_version",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingOSVersion, &m.TargetingOSVersionDenyEmpty, &m.TargetingOSVersionAllow, &m.TargetingOSVersionDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Device.OSVersion },
	},
	{
		name: "targeting_make",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingMake, &m.TargetingMakeDenyEmpty, &m.TargetingMakeAllow, &m.TargetingMakeDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Device.Make },
	},
	{
		name: "targeting_carriers",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingCarriers, &m.TargetingCarriersDenyEmpty, &m.TargetingCarriersAllow, &m.TargetingCarriersDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Device.Carriers },
	},
	{
		name:  "targeting_countries",
		widen: true,
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingCountries, &m.TargetingCountriesDenyEmpty, &m.TargetingCountriesAllow, &m.TargetingCountriesDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Location.Countries },
	},
	{
		name: "targeting_domains",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingDomains, &m.TargetingDomainsDenyEmpty, &m.TargetingDomainsAllow, &m.TargetingDomainsDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Domains },
	},
	{
		name: "targeting_bundles",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingBundles, &m.TargetingBundlesDenyEmpty, &m.TargetingBundlesAllow, &m.TargetingBundlesDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Bundles },
	},
	{
		name: "targeting_publishers",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingPublishers, &m.TargetingPublishersDenyEmpty, &m.TargetingPublishersAllow, &m.TargetingPublishersDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Publishers },
	},
	{
		name: "targeting_producers",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingProducers, &m.TargetingProducersDenyEmpty, &m.TargetingProducersAllow, &m.TargetingProducersDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Targeting.Producers },
	},
	{
		name: "targeting_exchanges",
		client: func(m *ClientCampaign) clientAllowDeny {
			return clientAllowDeny{&m.HasTargetingExchanges, &m.TargetingExchangesDenyEmpty, &m.TargetingExchangesAllow, &m.TargetingExchangesDeny}
		},
		canon: func(ct *Contents) *AllowDeny { return &ct.Exchanges },
	},
}

var denyBindings = []denyBinding{
	{
		name: "targeting_ip_address",
		client: func(m *ClientCampaign) clientDeny {
			return clientDeny{&m.TargetingIPAddressDenyEmpty, &m.TargetingIPAddressDeny}
		},
		canon: func(ct *Contents) *DenyList { return &ct.Targeting.Device.IPAddress },
	},
	{
		name: "targeting_ifa",
		client: func(m *ClientCampaign) clientDeny {
			return clientDeny{&m.TargetingIFADenyEmpty, &m.TargetingIFADeny}
		},
		canon: func(ct *Contents) *DenyList { return &ct.Targeting.Device.IFADeny },
	},
}

// hasOrList returns a copy of the list when the presence flag is set and the
// list is non-nil, otherwise an empty list.
func hasOrList(v clientList) []string {
	if *v.has && *v.list != nil {
		return append([]string{}, *v.list...)
	}
	return []string{}
}

// listToClient writes a canonical list back to the flat fields and derives
// the presence flag.
func listToClient(v clientList, list []string) {
	*v.list = emptyIfNil(list)
	*v.has = len(list) > 0
}

// allowDenyFromClient builds the canonical filter. Both lists are gated on
// the presence flag; countries additionally widen through the country code
// resolver.
func allowDenyFromClient(v clientAllowDeny, widen bool) AllowDeny {
	f := AllowDeny{DenyEmpty: *v.denyEmpty, Allow: []string{}, Deny: []string{}}
	if *v.has {
		if *v.allow != nil {
			f.Allow = append([]string{}, *v.allow...)
		}
		if *v.deny != nil {
			f.Deny = append([]string{}, *v.deny...)
		}
	}
	if widen {
		f.Allow = geo.Widen(f.Allow)
		f.Deny = geo.Widen(f.Deny)
	}
	return f
}

// allowDenyToClient reconstructs the flat fields and derives the presence
// flag from the canonical lists.
func allowDenyToClient(v clientAllowDeny, f AllowDeny) {
	*v.denyEmpty = f.DenyEmpty
	*v.allow = emptyIfNil(f.Allow)
	*v.deny = emptyIfNil(f.Deny)
	*v.has = len(f.Allow) > 0 || len(f.Deny) > 0
}

// denyFromClient builds a deny-only filter. The deny list is not presence
// gated; it applies whenever supplied.
func denyFromClient(v clientDeny) DenyList {
	f := DenyList{DenyEmpty: *v.denyEmpty, Deny: []string{}}
	if *v.deny != nil {
		f.Deny = append([]string{}, *v.deny...)
	}
	return f
}

func denyToClient(v clientDeny, f DenyList) {
	*v.denyEmpty = f.DenyEmpty
	*v.deny = emptyIfNil(f.Deny)
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return append([]string{}, list...)
}
