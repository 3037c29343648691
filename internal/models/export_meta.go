package models

// ExportMetaKey is the document root key carrying ExportMeta.
const ExportMetaKey = "_exportMeta"

// ExportMetaVersion is written into every export metadata block.
const ExportMetaVersion = "1.0"

// Names of the export transformations, in pipeline order. They are written
// into ExportMeta.Transformations and read back by the importer.
const (
	TransformSingleItemArrayToObject = "singleItemArrayToObject"
	TransformConfigureCogsAsImages   = "configureCogsAsImages"
	TransformSwipeLayersToData       = "transformSwipeLayersToData"
	TransformAddNormalizeFalseToCogs = "addNormalizeFalseToCogs"
	TransformChangeFormatToType      = "changeFormatToType"
	TransformRemoveEmptyCategories   = "removeEmptyCategories"
	TransformStripCategoryValues     = "stripCategoryValues"
)

// ExportMeta records which transformations an export applied.
type ExportMeta struct {
	Version         string   `json:"version"`
	Transformations []string `json:"transformations"`
	ExportedAt      string   `json:"exportedAt"`
}

// Has reports whether the named transformation was applied.
func (m *ExportMeta) Has(name string) bool {
	if m == nil {
		return false
	}
	for _, t := range m.Transformations {
		if t == name {
			return true
		}
	}
	return false
}
