package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// BSP format errors.
var (
	ErrInvalidBSPMagic    = errors.New("invalid BSP magic: expected 'VBSP'")
	ErrTruncatedBSPData   = errors.New("truncated BSP data")
	ErrMisalignedBSPLump  = errors.New("BSP lump length is not a multiple of its record size")
	ErrInvalidBSPLump     = errors.New("invalid BSP lump descriptor")
	ErrBSPIndexOutOfRange = errors.New("BSP index out of range")
)

const (
	// BSPMagic is "VBSP" read as a little-endian uint32.
	BSPMagic = 0x50534256

	// BSPLumpCount is the fixed number of entries in the lump directory.
	BSPLumpCount = 64

	// BSPLumpSize is the on-disk size of one lump descriptor.
	BSPLumpSize = 16

	// BSPHeaderSize is ident + version + directory + map revision.
	BSPHeaderSize = 4 + 4 + BSPLumpCount*BSPLumpSize + 4
)

// BSPLumpKind indexes the lump directory.
type BSPLumpKind int

// Lump kinds, in directory order.
const (
	LumpEntities BSPLumpKind = iota
	LumpPlanes
	LumpTexData
	LumpVertexes
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpOcclusion
	LumpLeafs
	LumpFaceIDs
	LumpEdges
	LumpSurfEdges
	LumpModels
	LumpWorldLights
	LumpLeafFaces
	LumpLeafBrushes
	LumpBrushes
	LumpBrushSides
	LumpAreas
	LumpAreaPortals
	LumpUnused0
	LumpUnused1
	LumpUnused2
	LumpUnused3
	LumpDispInfo
	LumpOriginalFaces
	LumpPhysDisp
	LumpPhysCollide
	LumpVertNormals
	LumpVertNormalIndices
	LumpDispLightmapAlphas
	LumpDispVerts
	LumpDispLightmapSamplePositions
	LumpGameLump
	LumpLeafWaterData
	LumpPrimitives
	LumpPrimVerts
	LumpPrimIndices
	LumpPakfile
	LumpClipPortalVerts
	LumpCubemaps
	LumpTexDataStringData
	LumpTexDataStringTable
	LumpOverlays
	LumpLeafMinDistToWater
	LumpFaceMacroTextureInfo
	LumpDispTris
	LumpPhysCollideSurface
	LumpWaterOverlays
	LumpLeafAmbientIndexHDR
	LumpLeafAmbientIndex
	LumpLightingHDR
	LumpWorldLightsHDR
	LumpLeafAmbientLightingHDR
	LumpLeafAmbientLighting
	LumpXZipPakfile
	LumpFacesHDR
	LumpMapFlags
	LumpOverlayFades
	LumpOverlaySystemLevels
	LumpPhysLevel
	LumpDispMultiblend
)

var bspLumpNames = [BSPLumpCount]string{
	"entities", "planes", "texdata", "vertexes", "visibility", "nodes", "texinfo", "faces",
	"lighting", "occlusion", "leafs", "faceids", "edges", "surfedges", "models", "worldlights",
	"leaffaces", "leafbrushes", "brushes", "brushsides", "areas", "areaportals",
	"unused0", "unused1", "unused2", "unused3",
	"dispinfo", "originalfaces", "physdisp", "physcollide", "vertnormals", "vertnormalindices",
	"displightmapalphas", "dispverts", "displightmapsamplepositions", "gamelump",
	"leafwaterdata", "primitives", "primverts", "primindices", "pakfile", "clipportalverts",
	"cubemaps", "texdatastringdata", "texdatastringtable", "overlays", "leafmindisttowater",
	"facemacrotextureinfo", "disptris", "physcollidesurface", "wateroverlays",
	"leafambientindexhdr", "leafambientindex", "lightinghdr", "worldlightshdr",
	"leafambientlightinghdr", "leafambientlighting", "xzippakfile", "faceshdr", "mapflags",
	"overlayfades", "overlaysystemlevels", "physlevel", "dispmultiblend",
}

// String returns the lowercase lump name.
func (k BSPLumpKind) String() string {
	if k < 0 || k >= BSPLumpCount {
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
	return bspLumpNames[k]
}

// ParseBSPLumpKind looks a lump kind up by name or directory index.
func ParseBSPLumpKind(name string) (BSPLumpKind, bool) {
	for i, n := range bspLumpNames {
		if n == name {
			return BSPLumpKind(i), true
		}
	}
	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < BSPLumpCount {
		return BSPLumpKind(idx), true
	}
	return 0, false
}

// BSPLump is one entry of the lump directory.
type BSPLump struct {
	Offset  int32   // Offset into the file (bytes)
	Length  int32   // Length of the lump (bytes)
	Version int32   // Lump format version
	FourCC  [4]byte // Lump ident code, usually zero
}

// End returns the offset just past the lump payload.
func (l BSPLump) End() int64 {
	return int64(l.Offset) + int64(l.Length)
}

// BSPHeader is the fixed 1036-byte file header.
type BSPHeader struct {
	Ident       uint32
	Version     int32 // 19-21 for shipped Source titles; not validated
	Lumps       [BSPLumpCount]BSPLump
	MapRevision int32
}

// Lump returns the directory entry for kind.
func (h *BSPHeader) Lump(kind BSPLumpKind) BSPLump {
	if kind < 0 || kind >= BSPLumpCount {
		return BSPLump{}
	}
	return h.Lumps[kind]
}

// ParseBSPHeader reads the header from the current position of r.
// The magic is checked before anything else is read.
func ParseBSPHeader(r io.Reader) (*BSPHeader, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrTruncatedBSPData, err)
	}
	ident := binary.LittleEndian.Uint32(magic[:])
	if ident != BSPMagic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidBSPMagic, magic[:])
	}

	rest := make([]byte, BSPHeaderSize-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: reading lump directory: %v", ErrTruncatedBSPData, err)
	}

	br := newBinReader(rest)
	header := &BSPHeader{
		Ident:   ident,
		Version: br.int32(),
	}
	for i := range header.Lumps {
		header.Lumps[i] = decodeBSPLump(br)
	}
	header.MapRevision = br.int32()
	if br.err != nil {
		return nil, br.err
	}

	return header, nil
}

func decodeBSPLump(r *binReader) BSPLump {
	return BSPLump{
		Offset:  r.int32(),
		Length:  r.int32(),
		Version: r.int32(),
		FourCC:  r.fourCC(),
	}
}
