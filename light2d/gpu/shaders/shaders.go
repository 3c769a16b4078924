package shaders

import (
	_ "embed"
)

//go:embed common.wgsl
var CommonWGSL string

//go:embed bloom_extract.wgsl
var BloomExtractWGSL string

//go:embed downsample.wgsl
var DownsampleWGSL string

//go:embed upsample.wgsl
var UpsampleWGSL string

//go:embed bloom_composite.wgsl
var BloomCompositeWGSL string

//go:embed light_shafts.wgsl
var LightShaftsWGSL string

//go:embed fog.wgsl
var FogWGSL string

//go:embed tonemap.wgsl
var ToneMapWGSL string

//go:embed color_grading.wgsl
var ColorGradingWGSL string

//go:embed blit.wgsl
var BlitWGSL string

// WithCommon prefixes a fragment program with the shared fullscreen vertex stage.
func WithCommon(fragment string) string {
	return CommonWGSL + "\n" + fragment
}
