package applogic

import (
	"slicerlogic/internal/scene"
	"strconv"
)

// Window/level attribute keys placed on scalar display nodes
const (
	AttrWindow = "window"
	AttrLevel  = "level"
)

// Creates the default display nodes for a freshly read node that has none
func (scheduler *Scheduler) ensureDisplayNodes(node *scene.Node) {
	if !node.Class.IsDisplayable() || len(scheduler.scene.DisplayNodesFor(node)) > 0 {
		return
	}

	switch node.Class {
	case scene.ScalarVolume:
		class := scene.ScalarVolumeDisplay
		if node.LabelMap {
			class = scene.LabelMapVolumeDisplay
		}
		display := scheduler.addDisplay(node, class, true)
		if !node.LabelMap {
			applyWindowLevel(display, node)
		}
	case scene.VectorVolume:
		scheduler.addDisplay(node, scene.ScalarVolumeDisplay, true)
	case scene.DiffusionTensorVolume:
		display := scheduler.addDisplay(node, scene.DiffusionTensorVolumeDisplay, true)
		properties := scheduler.scene.AddNode(scene.NewNode(scene.DiffusionTensorDisplayProperties, ""))
		display.AddReference(scene.RoleProperties, properties.ID())
	case scene.DiffusionWeightedVolume:
		scheduler.addDisplay(node, scene.DiffusionWeightedVolumeDisplay, true)
	case scene.Model:
		scheduler.addDisplay(node, scene.ModelDisplay, true)
	case scene.FiberBundle:
		scheduler.addDisplay(node, scene.FiberBundleLineDisplay, true)
		scheduler.addDisplay(node, scene.FiberBundleTubeDisplay, false)
		scheduler.addDisplay(node, scene.FiberBundleGlyphDisplay, false)
	}
}

func (scheduler *Scheduler) addDisplay(node *scene.Node, class scene.Class, visible bool) (display *scene.Node) {
	display = scene.NewNode(class, "")
	display.Visible = visible
	scheduler.scene.AddNode(display)
	node.AddReference(scene.RoleDisplay, display.ID())
	return
}

// Window spans the 1st to 99th percentile
func applyWindowLevel(display, node *scene.Node) {
	image, ok := node.Data.(*scene.ImageData)
	if !ok {
		return
	}
	window := image.Stats.High - image.Stats.Low
	level := (image.Stats.High + image.Stats.Low) / 2
	display.Attributes[AttrWindow] = strconv.FormatFloat(window, 'g', -1, 64)
	display.Attributes[AttrLevel] = strconv.FormatFloat(level, 'g', -1, 64)
}
