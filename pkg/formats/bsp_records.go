package formats

import (
	"github.com/romain-durban/bsploader/pkg/math"
)

// On-disk record sizes in bytes.
const (
	BSPPlaneSize     = 20
	BSPVertexSize    = 12
	BSPEdgeSize      = 4
	BSPSurfEdgeSize  = 4
	BSPFaceSize      = 56
	BSPNodeSize      = 32
	BSPLeafSize      = 32
	BSPLeafV0Size    = 56 // maps of version 19 and older carry ambient lighting
	BSPTexInfoSize   = 72
	BSPTexDataSize   = 32
	BSPBrushSize     = 12
	BSPBrushSideSize = 8
	BSPModelSize     = 48
	BSPLeafFaceSize  = 2
	BSPLeafBrushSize = 2
	BSPStringIDSize  = 4
)

// Plane axis types.
const (
	PlaneX    int32 = 0 // axial, normal along X
	PlaneY    int32 = 1
	PlaneZ    int32 = 2
	PlaneAnyX int32 = 3 // non-axial, dominant X
	PlaneAnyY int32 = 4
	PlaneAnyZ int32 = 5
)

// BSPPlane is a splitting plane (lump 1).
type BSPPlane struct {
	Normal math.Vec3 // Unit normal
	Dist   float32   // Distance from origin along the normal
	Type   int32     // Axis type, see PlaneX..PlaneAnyZ
}

// IsAxial reports whether the plane is aligned with a major axis.
func (p *BSPPlane) IsAxial() bool {
	return p.Type >= PlaneX && p.Type <= PlaneZ
}

// DistanceTo returns the signed distance from point to the plane.
func (p *BSPPlane) DistanceTo(point math.Vec3) float32 {
	return p.Normal.Dot(point) - p.Dist
}

func decodeBSPPlane(r *binReader) BSPPlane {
	return BSPPlane{
		Normal: r.vec3(),
		Dist:   r.float32(),
		Type:   r.int32(),
	}
}

// BSPEdge joins two vertexes (lump 12).
type BSPEdge struct {
	V [2]uint16
}

func decodeBSPEdge(r *binReader) BSPEdge {
	return BSPEdge{V: [2]uint16{r.uint16(), r.uint16()}}
}

// BSPFace is a polygon face (lump 7).
type BSPFace struct {
	PlaneNum                    uint16
	Side                        uint8 // Faces opposite to the node's plane direction
	OnNode                      uint8 // 1 if on node, 0 if in leaf
	FirstEdge                   int32 // Index into surfedges
	NumEdges                    int16
	TexInfo                     int16
	DispInfo                    int16
	SurfaceFogVolumeID          int16
	Styles                      [4]uint8 // Switchable lighting info
	LightOffset                 int32    // Offset into the lighting lump, -1 for none
	Area                        float32  // Face area in units^2
	LightmapTextureMinsInLuxels [2]int32
	LightmapTextureSizeInLuxels [2]int32
	OrigFace                    int32 // Original face this was split from
	NumPrims                    uint16
	FirstPrimID                 uint16
	SmoothingGroups             uint32
}

func decodeBSPFace(r *binReader) BSPFace {
	f := BSPFace{
		PlaneNum:           r.uint16(),
		Side:               r.byte(),
		OnNode:             r.byte(),
		FirstEdge:          r.int32(),
		NumEdges:           r.int16(),
		TexInfo:            r.int16(),
		DispInfo:           r.int16(),
		SurfaceFogVolumeID: r.int16(),
	}
	copy(f.Styles[:], r.bytes(4))
	f.LightOffset = r.int32()
	f.Area = r.float32()
	f.LightmapTextureMinsInLuxels = [2]int32{r.int32(), r.int32()}
	f.LightmapTextureSizeInLuxels = [2]int32{r.int32(), r.int32()}
	f.OrigFace = r.int32()
	f.NumPrims = r.uint16()
	f.FirstPrimID = r.uint16()
	f.SmoothingGroups = r.uint32()
	return f
}

// BSPNode is an interior node of the BSP tree (lump 5).
//
// A negative child is a leaf reference encoded as -(leaf+1), see LeafIndex.
type BSPNode struct {
	PlaneNum  int32
	Children  [2]int32
	Mins      [3]int16 // For frustum culling
	Maxs      [3]int16
	FirstFace uint16
	NumFaces  uint16 // Counting both sides
	Area      int16  // Area of all leaves below, or -1 if they differ
	Padding   int16
}

// LeafIndex decodes a negative node child into a leaf index.
func LeafIndex(child int32) int {
	return int(-(int64(child) + 1))
}

// IsLeafChild reports whether child side (0 = front, 1 = back) references a leaf.
func (n *BSPNode) IsLeafChild(side int) bool {
	return n.Children[side] < 0
}

// ChildLeaf returns the leaf index for side, or false if the child is a node.
func (n *BSPNode) ChildLeaf(side int) (int, bool) {
	c := n.Children[side]
	if c >= 0 {
		return 0, false
	}
	return LeafIndex(c), true
}

func decodeBSPNode(r *binReader) BSPNode {
	return BSPNode{
		PlaneNum:  r.int32(),
		Children:  [2]int32{r.int32(), r.int32()},
		Mins:      r.shorts3(),
		Maxs:      r.shorts3(),
		FirstFace: r.uint16(),
		NumFaces:  r.uint16(),
		Area:      r.int16(),
		Padding:   r.int16(),
	}
}

// BSPColorRGBExp32 is a compressed HDR color: rgb * 2^exponent.
type BSPColorRGBExp32 struct {
	R, G, B  uint8
	Exponent int8
}

// BSPLeaf is a leaf of the BSP tree (lump 10).
type BSPLeaf struct {
	Contents        BSPContents // OR of all brushes
	Cluster         int16       // Visibility cluster, -1 for none
	Area            int16
	Flags           int16
	Mins            [3]int16    // For frustum culling
	Maxs            [3]int16
	FirstLeafFace   uint16
	NumLeafFaces    uint16
	FirstLeafBrush  uint16
	NumLeafBrushes  uint16
	LeafWaterDataID int16 // -1 for not in water

	// Only present in version 19 and older maps.
	AmbientLighting [6]BSPColorRGBExp32
}

// bspLeafSize returns the leaf record size for a map version.
func bspLeafSize(version int32) int {
	if version <= 19 {
		return BSPLeafV0Size
	}
	return BSPLeafSize
}

// bspLeafDecoder returns the leaf decoder for a map version.
func bspLeafDecoder(version int32) func(*binReader) BSPLeaf {
	if version <= 19 {
		return decodeBSPLeafV0
	}
	return decodeBSPLeaf
}

func decodeBSPLeaf(r *binReader) BSPLeaf {
	leaf := BSPLeaf{
		Contents: BSPContents(r.int32()),
		Cluster:  r.int16(),
		Area:     r.int16(),
		Flags:    r.int16(),
	}
	leaf.Mins = r.shorts3()
	leaf.Maxs = r.shorts3()
	leaf.FirstLeafFace = r.uint16()
	leaf.NumLeafFaces = r.uint16()
	leaf.FirstLeafBrush = r.uint16()
	leaf.NumLeafBrushes = r.uint16()
	leaf.LeafWaterDataID = r.int16()
	return leaf
}

// decodeBSPLeafV0 reads the current leaf layout followed by the ambient
// lighting cube of older maps.
func decodeBSPLeafV0(r *binReader) BSPLeaf {
	leaf := decodeBSPLeaf(r)
	for i := range leaf.AmbientLighting {
		leaf.AmbientLighting[i] = BSPColorRGBExp32{
			R:        r.byte(),
			G:        r.byte(),
			B:        r.byte(),
			Exponent: int8(r.byte()),
		}
	}
	return leaf
}

// BSPTexInfo describes texture and lightmap projection (lump 6).
type BSPTexInfo struct {
	TextureVecs  [2][4]float32 // [s/t][xyz offset]
	LightmapVecs [2][4]float32 // [s/t][xyz offset], in luxels per unit
	Flags        BSPSurfaceFlags
	TexData      int32 // Index into the texdata lump
}

func decodeBSPTexInfo(r *binReader) BSPTexInfo {
	var ti BSPTexInfo
	for i := range ti.TextureVecs {
		for j := range ti.TextureVecs[i] {
			ti.TextureVecs[i][j] = r.float32()
		}
	}
	for i := range ti.LightmapVecs {
		for j := range ti.LightmapVecs[i] {
			ti.LightmapVecs[i][j] = r.float32()
		}
	}
	ti.Flags = BSPSurfaceFlags(r.int32())
	ti.TexData = r.int32()
	return ti
}

// BSPTexData describes a texture referenced by texinfo (lump 2).
type BSPTexData struct {
	Reflectivity      math.Vec3 // RGB reflectivity
	NameStringTableID int32     // Index into the texdata string table
	Width             int32     // Source image
	Height            int32
	ViewWidth         int32
	ViewHeight        int32
}

func decodeBSPTexData(r *binReader) BSPTexData {
	return BSPTexData{
		Reflectivity:      r.vec3(),
		NameStringTableID: r.int32(),
		Width:             r.int32(),
		Height:            r.int32(),
		ViewWidth:         r.int32(),
		ViewHeight:        r.int32(),
	}
}

// BSPBrush is a convex volume (lump 18).
type BSPBrush struct {
	FirstSide int32 // Index into brushsides
	NumSides  int32
	Contents  BSPContents
}

func decodeBSPBrush(r *binReader) BSPBrush {
	return BSPBrush{
		FirstSide: r.int32(),
		NumSides:  r.int32(),
		Contents:  BSPContents(r.int32()),
	}
}

// BSPBrushSide is one bounding plane of a brush (lump 19).
type BSPBrushSide struct {
	PlaneNum uint16 // Facing out of the leaf
	TexInfo  int16
	DispInfo int16
	Bevel    int16 // Non-zero if the side is a bevel plane
}

func decodeBSPBrushSide(r *binReader) BSPBrushSide {
	return BSPBrushSide{
		PlaneNum: r.uint16(),
		TexInfo:  r.int16(),
		DispInfo: r.int16(),
		Bevel:    r.int16(),
	}
}

// BSPModel is a brush model; model 0 is the world (lump 14).
type BSPModel struct {
	Mins      math.Vec3
	Maxs      math.Vec3
	Origin    math.Vec3 // For sounds or lights
	HeadNode  int32     // Index into nodes
	FirstFace int32
	NumFaces  int32
}

func decodeBSPModel(r *binReader) BSPModel {
	return BSPModel{
		Mins:      r.vec3(),
		Maxs:      r.vec3(),
		Origin:    r.vec3(),
		HeadNode:  r.int32(),
		FirstFace: r.int32(),
		NumFaces:  r.int32(),
	}
}

func decodeBSPVertex(r *binReader) math.Vec3 {
	return r.vec3()
}
