package scene

// Node class names
type Class string

const (
	ScalarVolume            Class = "ScalarVolume"
	VectorVolume            Class = "VectorVolume"
	DiffusionTensorVolume   Class = "DiffusionTensorVolume"
	DiffusionWeightedVolume Class = "DiffusionWeightedVolume"
	FiberBundle             Class = "FiberBundle"
	ColorTable              Class = "ColorTable"
	Model                   Class = "Model"
	ModelHierarchy          Class = "ModelHierarchy"
	LinearTransform         Class = "LinearTransform"
	GridTransform           Class = "GridTransform"
	BSplineTransform        Class = "BSplineTransform"

	VolumeArchetypeStorage        Class = "VolumeArchetypeStorage"
	NRRDStorage                   Class = "NRRDStorage"
	FiberBundleStorage            Class = "FiberBundleStorage"
	ColorTableStorage             Class = "ColorTableStorage"
	ModelStorage                  Class = "ModelStorage"
	FreeSurferModelStorage        Class = "FreeSurferModelStorage"
	FreeSurferModelOverlayStorage Class = "FreeSurferModelOverlayStorage"
	TransformStorage              Class = "TransformStorage"

	LabelMapVolumeDisplay            Class = "LabelMapVolumeDisplay"
	ScalarVolumeDisplay              Class = "ScalarVolumeDisplay"
	DiffusionTensorVolumeDisplay     Class = "DiffusionTensorVolumeDisplay"
	DiffusionTensorDisplayProperties Class = "DiffusionTensorDisplayProperties"
	DiffusionWeightedVolumeDisplay   Class = "DiffusionWeightedVolumeDisplay"
	ModelDisplay                     Class = "ModelDisplay"
	FiberBundleLineDisplay           Class = "FiberBundleLineDisplay"
	FiberBundleTubeDisplay           Class = "FiberBundleTubeDisplay"
	FiberBundleGlyphDisplay          Class = "FiberBundleGlyphDisplay"
)

// Reference roles
const (
	RoleStorage    = "storage"
	RoleDisplay    = "display"
	RoleTransform  = "transform"
	RoleColorTable = "colorTable"
	RoleProperties = "displayProperties"
)

func (class Class) IsVolume() bool {
	switch class {
	case ScalarVolume, VectorVolume, DiffusionTensorVolume, DiffusionWeightedVolume:
		return true
	}
	return false
}

func (class Class) IsTransform() bool {
	switch class {
	case LinearTransform, GridTransform, BSplineTransform:
		return true
	}
	return false
}

func (class Class) IsStorage() bool {
	switch class {
	case VolumeArchetypeStorage, NRRDStorage, FiberBundleStorage, ColorTableStorage,
		ModelStorage, FreeSurferModelStorage, FreeSurferModelOverlayStorage, TransformStorage:
		return true
	}
	return false
}

func (class Class) IsDisplay() bool {
	switch class {
	case LabelMapVolumeDisplay, ScalarVolumeDisplay, DiffusionTensorVolumeDisplay,
		DiffusionTensorDisplayProperties, DiffusionWeightedVolumeDisplay, ModelDisplay,
		FiberBundleLineDisplay, FiberBundleTubeDisplay, FiberBundleGlyphDisplay:
		return true
	}
	return false
}

// Nodes whose data is loaded and saved through a storage node
func (class Class) IsStorable() bool {
	return class.IsVolume() || class.IsTransform() ||
		class == FiberBundle || class == ColorTable || class == Model
}

// Nodes rendered through display nodes
func (class Class) IsDisplayable() bool {
	return class.IsVolume() || class == FiberBundle || class == Model
}
