package exporter

import "github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"

// Options toggles the export steps. The zero value strips category values
// and enables nothing else.
type Options struct {
	SingleItemArrayToObject    bool `json:"singleItemArrayToObject" yaml:"singleItemArrayToObject"`
	ConfigureCogsAsImages      bool `json:"configureCogsAsImages" yaml:"configureCogsAsImages"`
	TransformSwipeLayersToData bool `json:"transformSwipeLayersToData" yaml:"transformSwipeLayersToData"`
	AddNormalizeFalseToCogs    bool `json:"addNormalizeFalseToCogs" yaml:"addNormalizeFalseToCogs"`
	ChangeFormatToType         bool `json:"changeFormatToType" yaml:"changeFormatToType"`
	RemoveEmptyCategories      bool `json:"removeEmptyCategories" yaml:"removeEmptyCategories"`
	IncludeCategoryValues      bool `json:"includeCategoryValues" yaml:"includeCategoryValues"`
}

// DefaultOptions exports the canonical document unchanged.
func DefaultOptions() Options {
	return Options{IncludeCategoryValues: true}
}

// ViewerOptions enables every rewrite the legacy viewer expects.
func ViewerOptions() Options {
	return Options{
		SingleItemArrayToObject:    true,
		ConfigureCogsAsImages:      true,
		TransformSwipeLayersToData: true,
		AddNormalizeFalseToCogs:    true,
		ChangeFormatToType:         true,
		RemoveEmptyCategories:      true,
	}
}

type step struct {
	name    string
	enabled func(Options) bool
	run     func(doc *pipelineDoc)
}

// steps is the pipeline in its fixed order. Later steps rely on the shapes
// produced by earlier ones.
var steps = []step{
	{models.TransformSingleItemArrayToObject, func(o Options) bool { return o.SingleItemArrayToObject }, singleItemArrayToObject},
	{models.TransformConfigureCogsAsImages, func(o Options) bool { return o.ConfigureCogsAsImages }, configureCogsAsImages},
	{models.TransformSwipeLayersToData, func(o Options) bool { return o.TransformSwipeLayersToData }, transformSwipeLayersToData},
	{models.TransformAddNormalizeFalseToCogs, func(o Options) bool { return o.AddNormalizeFalseToCogs }, addNormalizeFalseToCogs},
	{models.TransformChangeFormatToType, func(o Options) bool { return o.ChangeFormatToType }, changeFormatToType},
	{models.TransformRemoveEmptyCategories, func(o Options) bool { return o.RemoveEmptyCategories }, removeEmptyCategories},
	{models.TransformStripCategoryValues, func(o Options) bool { return !o.IncludeCategoryValues }, stripCategoryValues},
}

// Enabled lists the names of the steps opts turns on, in pipeline order.
func (o Options) Enabled() []string {
	var names []string
	for _, s := range steps {
		if s.enabled(o) {
			names = append(names, s.name)
		}
	}
	return names
}
