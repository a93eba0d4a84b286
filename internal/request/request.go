// Immutable data transfer instructions consumed by the main loop drains
package request

type Kind int

const (
	ReadFile Kind = iota
	ReadScene
	WriteFile
	WriteScene
	UpdateParentTransform
	UpdateHierarchyLocation
	AddNodeReference
)

func (k Kind) String() (name string) {
	switch k {
	case ReadFile:
		name = "ReadFile"
	case ReadScene:
		name = "ReadScene"
	case WriteFile:
		name = "WriteFile"
	case WriteScene:
		name = "WriteScene"
	case UpdateParentTransform:
		name = "UpdateParentTransform"
	case UpdateHierarchyLocation:
		name = "UpdateHierarchyLocation"
	case AddNodeReference:
		name = "AddNodeReference"
	default:
		name = "Unknown"
	}
	return
}

// Data request. All fields are fixed at construction, accessors hand out copies.
//
// For non-scene requests the target list holds exactly one id and the source list is empty.
// Scene requests keep both lists as given; differing lengths are valid and handled by the drain.
type Request struct {
	uid             uint64
	kind            Kind
	targetNodes     []string
	sourceNodes     []string
	filename        string
	role            string
	displayData     bool
	deleteFileAfter bool
}

func NewReadFile(uid uint64, nodeID, filename string, displayData, deleteFileAfter bool) (req Request) {
	req = singleNode(uid, ReadFile, nodeID, filename, displayData, deleteFileAfter)
	return
}

func NewWriteFile(uid uint64, nodeID, filename string, displayData, deleteFileAfter bool) (req Request) {
	req = singleNode(uid, WriteFile, nodeID, filename, displayData, deleteFileAfter)
	return
}

func NewReadScene(uid uint64, filename string, targetNodes, sourceNodes []string, displayData, deleteFileAfter bool) (req Request) {
	req = sceneMode(uid, ReadScene, filename, targetNodes, sourceNodes, displayData, deleteFileAfter)
	return
}

func NewWriteScene(uid uint64, filename string, targetNodes, sourceNodes []string, displayData, deleteFileAfter bool) (req Request) {
	req = sceneMode(uid, WriteScene, filename, targetNodes, sourceNodes, displayData, deleteFileAfter)
	return
}

// Places node under the given transform. An empty transform id detaches it.
func NewUpdateParentTransform(uid uint64, nodeID, transformID string) (req Request) {
	req = Request{
		uid:         uid,
		kind:        UpdateParentTransform,
		targetNodes: []string{nodeID},
		role:        transformID,
	}
	return
}

// Moves node next to sibling in the hierarchy (same parent)
func NewUpdateHierarchyLocation(uid uint64, nodeID, siblingID string) (req Request) {
	req = Request{
		uid:         uid,
		kind:        UpdateHierarchyLocation,
		targetNodes: []string{nodeID},
		role:        siblingID,
	}
	return
}

func NewAddNodeReference(uid uint64, referencingID, referencedID, role string) (req Request) {
	req = Request{
		uid:         uid,
		kind:        AddNodeReference,
		targetNodes: []string{referencingID},
		sourceNodes: []string{referencedID},
		role:        role,
	}
	return
}

func singleNode(uid uint64, kind Kind, nodeID, filename string, displayData, deleteFileAfter bool) (req Request) {
	req = Request{
		uid:             uid,
		kind:            kind,
		targetNodes:     []string{nodeID},
		filename:        filename,
		displayData:     displayData,
		deleteFileAfter: deleteFileAfter,
	}
	return
}

func sceneMode(uid uint64, kind Kind, filename string, targetNodes, sourceNodes []string, displayData, deleteFileAfter bool) (req Request) {
	req = Request{
		uid:             uid,
		kind:            kind,
		targetNodes:     append([]string(nil), targetNodes...),
		sourceNodes:     append([]string(nil), sourceNodes...),
		filename:        filename,
		displayData:     displayData,
		deleteFileAfter: deleteFileAfter,
	}
	return
}

func (req Request) UID() uint64           { return req.uid }
func (req Request) Kind() Kind            { return req.kind }
func (req Request) Filename() string      { return req.filename }
func (req Request) DisplayData() bool     { return req.displayData }
func (req Request) DeleteFileAfter() bool { return req.deleteFileAfter }

// Reference role, transform id or sibling id depending on kind
func (req Request) Role() string { return req.role }

func (req Request) IsScene() bool {
	return req.kind == ReadScene || req.kind == WriteScene
}

func (req Request) TargetNodes() (ids []string) {
	ids = append([]string(nil), req.targetNodes...)
	return
}

func (req Request) SourceNodes() (ids []string) {
	ids = append([]string(nil), req.sourceNodes...)
	return
}

// First target id, the only one for non-scene requests
func (req Request) Target() (id string) {
	if len(req.targetNodes) > 0 {
		id = req.targetNodes[0]
	}
	return
}

// True when source and target id lists can be paired one to one
func (req Request) PairsMatch() bool {
	return len(req.targetNodes) == len(req.sourceNodes)
}
