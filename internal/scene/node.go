package scene

import "sort"

// Loads and saves the data of a storable node. Implemented per file format family.
type Storable interface {
	Kind() Class
	FileName() string
	SetFileName(name string)
	URI() string
	SetURI(uri string)
	ReadData(target *Node) error
	WriteData(target *Node) error
	ReadState() string
	SupportedFileType(name string) bool
	Clone() Storable
}

// Scene graph element. Content is only mutated from the goroutine owning the scene.
type Node struct {
	Object

	id         string
	Class      Class
	Name       string
	LabelMap   bool
	Visible    bool
	ParentID   string // hierarchy parent
	Attributes map[string]string
	references map[string][]string // role -> referenced node ids

	Data    Data     // bulk payload of storable nodes
	Storage Storable // set only on storage nodes

	ModifiedSinceRead bool
}

func NewNode(class Class, name string) (new *Node) {
	new = &Node{
		Class:      class,
		Name:       name,
		Visible:    true,
		Attributes: make(map[string]string),
		references: make(map[string][]string),
	}
	return
}

func (node *Node) ID() string { return node.id }

// Referenced ids for role, in insertion order
func (node *Node) References(role string) (ids []string) {
	ids = append([]string(nil), node.references[role]...)
	return
}

// First referenced id for role
func (node *Node) Reference(role string) (id string) {
	if refs := node.references[role]; len(refs) > 0 {
		id = refs[0]
	}
	return
}

func (node *Node) AddReference(role, id string) {
	if id == "" {
		return
	}
	for _, existing := range node.references[role] {
		if existing == id {
			return
		}
	}
	node.references[role] = append(node.references[role], id)
}

// Replaces every reference of role with id. Empty id clears the role.
func (node *Node) SetReference(role, id string) {
	if id == "" {
		delete(node.references, role)
		return
	}
	node.references[role] = []string{id}
}

func (node *Node) RemoveReference(role, id string) {
	refs := node.references[role][:0]
	for _, existing := range node.references[role] {
		if existing != id {
			refs = append(refs, existing)
		}
	}
	if len(refs) == 0 {
		delete(node.references, role)
		return
	}
	node.references[role] = refs
}

func (node *Node) ReferenceRoles() (roles []string) {
	for role := range node.references {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return
}

// Copies node content from source. Identity, hierarchy placement and references stay untouched.
func (node *Node) CopyContent(source *Node) {
	node.Name = source.Name
	node.LabelMap = source.LabelMap
	node.Visible = source.Visible

	node.Attributes = make(map[string]string, len(source.Attributes))
	for key, value := range source.Attributes {
		node.Attributes[key] = value
	}

	node.Data = nil
	if source.Data != nil {
		node.Data = source.Data.Clone()
	}
	node.Storage = nil
	if source.Storage != nil {
		node.Storage = source.Storage.Clone()
	}
}

// Detached duplicate including references, without id or ownership shares
func (node *Node) clone() (clone *Node) {
	clone = NewNode(node.Class, node.Name)
	clone.CopyContent(node)
	clone.ParentID = node.ParentID
	clone.ModifiedSinceRead = node.ModifiedSinceRead
	for role, ids := range node.references {
		clone.references[role] = append([]string(nil), ids...)
	}
	return
}
