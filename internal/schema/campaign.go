package schema

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/observability"
)

// Mapper converts campaigns between the flat client form and the canonical
// form. It holds only read-only registries and is safe for concurrent use.
type Mapper struct {
	templates  *banner.Registry
	dataAssets DataAssetRegistry
	logger     *zap.Logger
}

// NewMapper builds a mapper around the supplied registries. A nil logger
// falls back to the process-wide one.
func NewMapper(templates *banner.Registry, dataAssets DataAssetRegistry, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.L()
	}
	return &Mapper{templates: templates, dataAssets: dataAssets, logger: logger}
}

// FromClient canonicalizes a flat client campaign. Identity fields default
// when absent: a fresh uuid for the campaign id and revision 1. Creatives
// with an unrecognized type tag are dropped, logged and counted; they never
// fail the campaign.
func (m *Mapper) FromClient(model *ClientCampaign) *Campaign {
	id := model.ID
	if id == "" {
		id = uuid.NewString()
	}
	rev := model.Rev
	if rev == 0 {
		rev = 1
	}
	contentsID := model.CampaignID
	if contentsID == "" {
		contentsID = id
	}

	ct := Contents{
		ID:         contentsID,
		Rev:        rev,
		Name:       model.Name,
		Domain:     model.Domain,
		Bundle:     model.BundleName,
		ClickURL:   model.ClickURL,
		StartTime:  model.StartTime,
		Categories: emptyIfNil(model.Categories),
		Creatives:  []Creative{},
	}

	ct.EndTime = EndTimeSentinel
	if model.HasEndTime && model.EndTime != nil {
		ct.EndTime = *model.EndTime
	}

	for _, b := range listBindings {
		*b.canon(&ct) = hasOrList(b.client(model))
	}
	for _, b := range allowDenyBindings {
		*b.canon(&ct) = allowDenyFromClient(b.client(model), b.widen)
	}
	for _, b := range denyBindings {
		*b.canon(&ct) = denyFromClient(b.client(model))
	}

	ct.Targeting.Device.RequireDevice = model.TargetingRequireDevice
	ct.Targeting.Keywords.Keywords = splitKeywords(model.TargetingKeywords)
	ct.Targeting.Location.Required = model.HasTargetingCountries
	ct.Targeting.Location.RequireCountry = model.HasTargetingCountries

	switch model.TargetingTraffic {
	case TrafficAppOnly:
		ct.Targeting.AppTrafficOnly = true
	case TrafficSiteOnly:
		ct.Targeting.SiteTrafficOnly = true
	}

	ct.Targeting.User = UserTargeting{
		RequireID:      model.TargetingUserRequireID,
		MaxImpressions: model.TargetingUserMaxImpressions,
	}

	ct.Bidding = Bidding{
		Currency:         model.BiddingCurrency,
		MaxPrice:         model.BiddingMaxPrice,
		MaxCostPerHour:   model.BiddingMaxCostPerHour,
		BaselinePriceCPM: model.BiddingBaselinePrice,
		FixedPrice:       model.BiddingFixedPrice,
	}
	if ct.Bidding.MaxPrice < ct.Bidding.BaselinePriceCPM {
		ct.Bidding.MaxPrice = ct.Bidding.BaselinePriceCPM
	}

	for _, cc := range model.Creatives {
		switch cc.Type {
		case CreativeTypeImage:
			ct.Creatives = append(ct.Creatives, m.ImageFromClient(cc))
		case CreativeTypeNative:
			ct.Creatives = append(ct.Creatives, m.NativeFromClient(cc))
		default:
			observability.CreativesDropped.Inc()
			m.logger.Warn("dropping creative with unknown type",
				zap.String("campaign_id", id),
				zap.String("creative_id", cc.ID),
				zap.String("type", cc.Type))
		}
	}

	observability.CampaignsMapped.WithLabelValues("from_client").Inc()
	return &Campaign{
		ID:        id,
		Active:    model.Active,
		Rev:       rev,
		UserID:    model.UserID,
		Contents:  ct,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// ToClient flattens a canonical campaign back into the client form. The end
// time sentinel becomes an absent end time; a zero start time falls back to
// the record's creation time. Creatives of unknown kind are dropped and
// counted, mirroring the inbound direction.
func (m *Mapper) ToClient(c *Campaign) *ClientCampaign {
	ct := &c.Contents

	model := &ClientCampaign{
		ID:         c.ID,
		CampaignID: ct.ID,
		Rev:        c.Rev,
		Active:     c.Active,
		UserID:     c.UserID,
		Name:       ct.Name,
		Domain:     ct.Domain,
		BundleName: ct.Bundle,
		ClickURL:   ct.ClickURL,
		Categories: emptyIfNil(ct.Categories),
		StartTime:  ct.StartTime,
		Creatives:  []ClientCreative{},
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if model.StartTime.IsZero() {
		model.StartTime = c.CreatedAt
	}

	if !ct.EndTime.Equal(EndTimeSentinel) && !ct.EndTime.IsZero() {
		end := ct.EndTime
		model.HasEndTime = true
		model.EndTime = &end
	}

	for _, b := range listBindings {
		listToClient(b.client(model), *b.canon(ct))
	}
	for _, b := range allowDenyBindings {
		allowDenyToClient(b.client(model), *b.canon(ct))
	}
	for _, b := range denyBindings {
		denyToClient(b.client(model), *b.canon(ct))
	}

	model.TargetingRequireDevice = ct.Targeting.Device.RequireDevice
	model.TargetingKeywords = strings.Join(ct.Targeting.Keywords.Keywords, ",")

	// app precedence when both flags are somehow set
	switch {
	case ct.Targeting.AppTrafficOnly:
		model.TargetingTraffic = TrafficAppOnly
	case ct.Targeting.SiteTrafficOnly:
		model.TargetingTraffic = TrafficSiteOnly
	default:
		model.TargetingTraffic = TrafficAll
	}

	model.TargetingUserRequireID = ct.Targeting.User.RequireID
	model.TargetingUserMaxImpressions = ct.Targeting.User.MaxImpressions

	model.BiddingCurrency = ct.Bidding.Currency
	model.BiddingMaxPrice = ct.Bidding.MaxPrice
	model.BiddingMaxCostPerHour = ct.Bidding.MaxCostPerHour
	model.BiddingBaselinePrice = ct.Bidding.BaselinePriceCPM
	model.BiddingFixedPrice = ct.Bidding.FixedPrice

	for i := range ct.Creatives {
		cr := ct.Creatives[i]
		switch cr.Kind() {
		case KindImage:
			model.Creatives = append(model.Creatives, m.ImageToClient(cr))
		case KindNative:
			model.Creatives = append(model.Creatives, m.NativeToClient(cr))
		default:
			observability.CreativesDropped.Inc()
			m.logger.Warn("dropping creative with no variant",
				zap.String("campaign_id", c.ID),
				zap.String("creative_id", cr.ID))
		}
	}

	observability.CampaignsMapped.WithLabelValues("to_client").Inc()
	return model
}

// splitKeywords parses the comma-separated keyword field, trimming
// whitespace and skipping empty segments.
func splitKeywords(s string) []string {
	out := []string{}
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
