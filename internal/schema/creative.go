package schema

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/rtb"
)

// ImageFromClient maps a flat image creative to its canonical banner form.
// The banner template selected by (format, fullscreen) supplies type, api,
// mimes and rendered markup; without a matching template the creative keeps
// its client geometry with an empty source so one unrenderable creative
// never aborts the campaign.
func (m *Mapper) ImageFromClient(model ClientCreative) Creative {
	id := model.ID
	if id == "" {
		id = uuid.NewString()
	}

	b := &Banner{
		Type:   rtb.BannerTypeJavaScript,
		Width:  model.Width.Int(),
		Height: model.Height.Int(),
		Expand: model.Expand,
		Source: "",
		AllowedPositions: AllowedPositions{
			Positions:   emptyIfNil(model.AdPositions),
			AnyPosition: !model.HasAdPositions,
		},
		TopFrameOnly: model.TopFrameOnly,
		Attributes:   []string{},
		Mimes:        mimesForSource(model.Source),
	}
	if model.HasCreativeAttributes && model.CreativeAttributes != nil {
		b.Attributes = append([]string{}, model.CreativeAttributes...)
	}

	if tpl, ok := m.templates.Resolve(model.Format, model.Fullscreen); ok {
		b.Type = tpl.Type
		b.API = append([]int(nil), tpl.API...)
		b.Mimes = append([]string{}, tpl.Mimes...)
		b.Source = banner.Render(tpl, banner.Substitutions{Source: model.Source})
	}

	return Creative{
		ID:         id,
		Banner:     b,
		FullScreen: model.Fullscreen,
		ClientConfig: &ClientConfig{
			Preview: model.Preview,
			Source:  model.Source,
			Format:  model.Format,
		},
	}
}

// NativeFromClient maps a flat native creative to canonical form. Data
// assets are emitted in registry order, not client input order, so the
// output ordering is deterministic.
func (m *Mapper) NativeFromClient(model ClientCreative) Creative {
	id := model.ID
	if id == "" {
		id = uuid.NewString()
	}

	n := &Native{
		Title:       model.Title,
		ShortTitle:  model.ShortTitle,
		DataAssets:  []DataAsset{},
		ImageAssets: append([]ImageAsset{}, model.ImageAssets...),
		VideoAssets: append([]VideoAsset{}, model.VideoAssets...),
	}

	for _, e := range m.dataAssets {
		if da, ok := model.DataAssets[e.Key]; ok {
			n.DataAssets = append(n.DataAssets, DataAsset{Type: e.Type, Value: da.Value})
		}
	}

	return Creative{ID: id, Native: n}
}

// ImageToClient inverts ImageFromClient.
func (m *Mapper) ImageToClient(cr Creative) ClientCreative {
	b := cr.Banner
	out := ClientCreative{
		ID:                    cr.ID,
		Type:                  CreativeTypeImage,
		Width:                 DimensionFromInt(b.Width),
		Height:                DimensionFromInt(b.Height),
		Expand:                b.Expand,
		TopFrameOnly:          b.TopFrameOnly,
		Fullscreen:            cr.FullScreen,
		HasAdPositions:        !b.AllowedPositions.AnyPosition,
		AdPositions:           emptyIfNil(b.AllowedPositions.Positions),
		HasCreativeAttributes: len(b.Attributes) > 0,
		CreativeAttributes:    emptyIfNil(b.Attributes),
	}
	if cc := cr.ClientConfig; cc != nil {
		out.Source = cc.Source
		out.Preview = cc.Preview
		out.Format = cc.Format
	}
	return out
}

// NativeToClient inverts NativeFromClient. When the creative carries image
// assets, preview is the first asset's URL and width/height are
// "<min> - <max>" range strings across all of them; with zero image assets
// these fields stay empty. Data assets are keyed by the registry entry whose
// type matches; the first matching entry wins.
func (m *Mapper) NativeToClient(cr Creative) ClientCreative {
	n := cr.Native
	out := ClientCreative{
		ID:          cr.ID,
		Type:        CreativeTypeNative,
		Title:       n.Title,
		ShortTitle:  n.ShortTitle,
		DataAssets:  map[string]ClientDataAsset{},
		ImageAssets: append([]ImageAsset{}, n.ImageAssets...),
		VideoAssets: append([]VideoAsset{}, n.VideoAssets...),
	}

	if len(n.ImageAssets) > 0 {
		out.Preview = n.ImageAssets[0].URL
		minW, maxW := n.ImageAssets[0].Width, n.ImageAssets[0].Width
		minH, maxH := n.ImageAssets[0].Height, n.ImageAssets[0].Height
		for _, a := range n.ImageAssets[1:] {
			if a.Width < minW {
				minW = a.Width
			}
			if a.Width > maxW {
				maxW = a.Width
			}
			if a.Height < minH {
				minH = a.Height
			}
			if a.Height > maxH {
				maxH = a.Height
			}
		}
		out.Width = Dimension(fmt.Sprintf("%d - %d", minW, maxW))
		out.Height = Dimension(fmt.Sprintf("%d - %d", minH, maxH))
	}

	for _, da := range n.DataAssets {
		if key, ok := m.dataAssets.KeyFor(da.Type); ok {
			out.DataAssets[key] = ClientDataAsset{Type: da.Type, Value: da.Value}
		}
	}

	return out
}

// mimesForSource derives the mime list from the source URL's file
// extension. Unknown extensions yield an empty list rather than an error.
func mimesForSource(src string) []string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	ext := path.Ext(src)
	if ext == "" {
		return []string{}
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return []string{}
	}
	// TypeByExtension may attach parameters (charset); banner mimes carry
	// the bare media type.
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return []string{mt}
}
