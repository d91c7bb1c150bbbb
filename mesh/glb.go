package mesh

import (
	"io"
	"os"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Node is one mesh placed in a GLB scene.
type Node struct {
	Name        string
	Mesh        *Mesh
	Translation [3]float64
}

// NewDocument starts a glTF document with a single vertex-colored material.
func NewDocument(generator string) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}
	return doc
}

// AddNode writes the node's mesh buffers into doc and adds it to the scene.
// Empty meshes get a node without geometry so frame numbering is kept.
func AddNode(doc *gltf.Document, n Node) {
	node := &gltf.Node{Name: n.Name, Translation: n.Translation}
	if n.Mesh != nil && len(n.Mesh.Indices) > 0 {
		pos := modeler.WritePosition(doc, n.Mesh.Positions())
		normal := modeler.WriteNormal(doc, n.Mesh.FlatNormals())
		color := modeler.WriteColor(doc, n.Mesh.Colors())
		indices := modeler.WriteIndices(doc, append([]uint32(nil), n.Mesh.Indices...))

		prim := &gltf.Primitive{
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION: pos,
				gltf.NORMAL:   normal,
				gltf.COLOR_0:  color,
			},
			Indices:  gltf.Index(indices),
			Material: gltf.Index(0),
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: n.Name, Primitives: []*gltf.Primitive{prim}})
		node.Mesh = gltf.Index(len(doc.Meshes) - 1)
	}
	doc.Nodes = append(doc.Nodes, node)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
}

// EncodeGLB writes nodes as a binary glTF.
func EncodeGLB(w io.Writer, generator string, nodes ...Node) error {
	doc := NewDocument(generator)
	for _, n := range nodes {
		AddNode(doc, n)
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

// SaveGLB writes nodes to a .glb file.
func SaveGLB(path, generator string, nodes ...Node) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeGLB(f, generator, nodes...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
