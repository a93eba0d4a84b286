package scene

func (scene *Scene) Selection() Selection { return scene.selection }

func (scene *Scene) SetActiveVolumeID(id string) {
	scene.selection.ActiveVolumeID = id
	scene.notify(MutSelect, id)
}

func (scene *Scene) SetActiveLabelVolumeID(id string) {
	scene.selection.ActiveLabelVolumeID = id
	scene.notify(MutSelect, id)
}

// Called with the current selection whenever slice views must pick it up
func (scene *Scene) AddPropagationObserver(fn func(Selection)) {
	scene.propagations = append(scene.propagations, fn)
}

// Pushes the active volume selection to every observer (slice views)
func (scene *Scene) PropagateVolumeSelection() {
	for _, fn := range scene.propagations {
		fn(scene.selection)
	}
}
