package formats

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/romain-durban/bsploader/pkg/encoding"
	"github.com/romain-durban/bsploader/pkg/math"
)

// BSP represents a parsed Source engine map.
//
// All slices are owned by the BSP and are not modified after ParseBSP
// returns. Cross-references between lumps are not validated.
type BSP struct {
	Header      BSPHeader
	Planes      []BSPPlane
	Vertexes    []math.Vec3
	Edges       []BSPEdge
	SurfEdges   []int32 // Signed edge indices, negative means reversed
	Faces       []BSPFace
	Nodes       []BSPNode
	Leafs       []BSPLeaf
	LeafFaces   []uint16
	LeafBrushes []uint16
	TexInfos    []BSPTexInfo
	TexData     []BSPTexData
	Brushes     []BSPBrush
	BrushSides  []BSPBrushSide
	Models      []BSPModel

	// TexDataStringTable holds byte offsets into TexDataStringData.
	TexDataStringTable []int32
	// TexDataStringData holds concatenated null-terminated texture names.
	TexDataStringData []byte
}

// BSPOption configures ParseBSP.
type BSPOption func(*bspParser)

// WithLogger sets the logger used to trace lump loading.
func WithLogger(l *zap.Logger) BSPOption {
	return func(p *bspParser) {
		if l != nil {
			p.log = l
		}
	}
}

type bspParser struct {
	src io.ReadSeeker
	log *zap.Logger
	bsp *BSP
}

// ParseBSP parses a map from src, starting at offset 0.
// Any error aborts the whole load and no partial result is returned.
func ParseBSP(src io.ReadSeeker, opts ...BSPOption) (*BSP, error) {
	p := &bspParser{src: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to header: %w", err)
	}
	header, err := ParseBSPHeader(src)
	if err != nil {
		return nil, err
	}
	p.log.Debug("parsed BSP header",
		zap.Int32("version", header.Version),
		zap.Int32("map_revision", header.MapRevision))

	p.bsp = &BSP{Header: *header}
	if err := p.loadLumps(); err != nil {
		return nil, err
	}

	return p.bsp, nil
}

func (p *bspParser) loadLumps() error {
	b, h := p.bsp, &p.bsp.Header
	var err error

	steps := []struct {
		kind BSPLumpKind
		load func() (int, error)
	}{
		{LumpPlanes, func() (int, error) {
			b.Planes, err = loadBSPLump(p.src, h, LumpPlanes, BSPPlaneSize, decodeBSPPlane)
			return len(b.Planes), err
		}},
		{LumpVertexes, func() (int, error) {
			b.Vertexes, err = loadBSPLump(p.src, h, LumpVertexes, BSPVertexSize, decodeBSPVertex)
			return len(b.Vertexes), err
		}},
		{LumpEdges, func() (int, error) {
			b.Edges, err = loadBSPLump(p.src, h, LumpEdges, BSPEdgeSize, decodeBSPEdge)
			return len(b.Edges), err
		}},
		{LumpSurfEdges, func() (int, error) {
			b.SurfEdges, err = loadBSPScalars[int32](p.src, h, LumpSurfEdges, BSPSurfEdgeSize)
			return len(b.SurfEdges), err
		}},
		{LumpFaces, func() (int, error) {
			b.Faces, err = loadBSPLump(p.src, h, LumpFaces, BSPFaceSize, decodeBSPFace)
			return len(b.Faces), err
		}},
		{LumpNodes, func() (int, error) {
			b.Nodes, err = loadBSPLump(p.src, h, LumpNodes, BSPNodeSize, decodeBSPNode)
			return len(b.Nodes), err
		}},
		{LumpLeafs, func() (int, error) {
			b.Leafs, err = loadBSPLump(p.src, h, LumpLeafs, bspLeafSize(h.Version), bspLeafDecoder(h.Version))
			return len(b.Leafs), err
		}},
		{LumpLeafFaces, func() (int, error) {
			b.LeafFaces, err = loadBSPScalars[uint16](p.src, h, LumpLeafFaces, BSPLeafFaceSize)
			return len(b.LeafFaces), err
		}},
		{LumpLeafBrushes, func() (int, error) {
			b.LeafBrushes, err = loadBSPScalars[uint16](p.src, h, LumpLeafBrushes, BSPLeafBrushSize)
			return len(b.LeafBrushes), err
		}},
		{LumpTexInfo, func() (int, error) {
			b.TexInfos, err = loadBSPLump(p.src, h, LumpTexInfo, BSPTexInfoSize, decodeBSPTexInfo)
			return len(b.TexInfos), err
		}},
		{LumpTexData, func() (int, error) {
			b.TexData, err = loadBSPLump(p.src, h, LumpTexData, BSPTexDataSize, decodeBSPTexData)
			return len(b.TexData), err
		}},
		{LumpBrushes, func() (int, error) {
			b.Brushes, err = loadBSPLump(p.src, h, LumpBrushes, BSPBrushSize, decodeBSPBrush)
			return len(b.Brushes), err
		}},
		{LumpBrushSides, func() (int, error) {
			b.BrushSides, err = loadBSPLump(p.src, h, LumpBrushSides, BSPBrushSideSize, decodeBSPBrushSide)
			return len(b.BrushSides), err
		}},
		{LumpModels, func() (int, error) {
			b.Models, err = loadBSPLump(p.src, h, LumpModels, BSPModelSize, decodeBSPModel)
			return len(b.Models), err
		}},
		{LumpTexDataStringTable, func() (int, error) {
			b.TexDataStringTable, err = loadBSPScalars[int32](p.src, h, LumpTexDataStringTable, BSPStringIDSize)
			return len(b.TexDataStringTable), err
		}},
		{LumpTexDataStringData, func() (int, error) {
			b.TexDataStringData, err = readBSPLumpData(p.src, h.Lumps[LumpTexDataStringData], LumpTexDataStringData)
			return len(b.TexDataStringData), err
		}},
	}

	for _, step := range steps {
		count, err := step.load()
		if err != nil {
			return err
		}
		lump := h.Lumps[step.kind]
		p.log.Debug("loaded BSP lump",
			zap.Stringer("lump", step.kind),
			zap.Int32("offset", lump.Offset),
			zap.Int32("length", lump.Length),
			zap.Int("count", count))
	}

	return nil
}

// ParseBSPBytes parses a map held in memory.
func ParseBSPBytes(data []byte, opts ...BSPOption) (*BSP, error) {
	return ParseBSP(bytes.NewReader(data), opts...)
}

// ParseBSPFile parses a map from disk. The file is closed before returning.
func ParseBSPFile(path string, opts ...BSPOption) (*BSP, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening BSP file: %w", err)
	}
	defer f.Close()

	return ParseBSP(f, opts...)
}

// LumpCount returns the number of decoded elements for a supported lump,
// or -1 for lumps ParseBSP does not decode.
func (b *BSP) LumpCount(kind BSPLumpKind) int {
	switch kind {
	case LumpPlanes:
		return len(b.Planes)
	case LumpVertexes:
		return len(b.Vertexes)
	case LumpEdges:
		return len(b.Edges)
	case LumpSurfEdges:
		return len(b.SurfEdges)
	case LumpFaces:
		return len(b.Faces)
	case LumpNodes:
		return len(b.Nodes)
	case LumpLeafs:
		return len(b.Leafs)
	case LumpLeafFaces:
		return len(b.LeafFaces)
	case LumpLeafBrushes:
		return len(b.LeafBrushes)
	case LumpTexInfo:
		return len(b.TexInfos)
	case LumpTexData:
		return len(b.TexData)
	case LumpBrushes:
		return len(b.Brushes)
	case LumpBrushSides:
		return len(b.BrushSides)
	case LumpModels:
		return len(b.Models)
	case LumpTexDataStringTable:
		return len(b.TexDataStringTable)
	case LumpTexDataStringData:
		return len(b.TexDataStringData)
	default:
		return -1
	}
}

// StringAt returns the null-terminated string starting at offset in the
// texdata string blob. The scan never reads past the end of the blob.
func (b *BSP) StringAt(offset int) (string, error) {
	if offset < 0 || offset >= len(b.TexDataStringData) {
		return "", fmt.Errorf("%w: string offset %d, blob is %d bytes",
			ErrBSPIndexOutOfRange, offset, len(b.TexDataStringData))
	}
	s, ok := encoding.CString(b.TexDataStringData, offset)
	if !ok {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedBSPData, offset)
	}
	return string(s), nil
}

// TexDataName resolves the texture name of TexData[index] through the string table.
func (b *BSP) TexDataName(index int) (string, error) {
	if index < 0 || index >= len(b.TexData) {
		return "", fmt.Errorf("%w: texdata %d of %d", ErrBSPIndexOutOfRange, index, len(b.TexData))
	}
	id := int(b.TexData[index].NameStringTableID)
	if id < 0 || id >= len(b.TexDataStringTable) {
		return "", fmt.Errorf("%w: string table id %d of %d",
			ErrBSPIndexOutOfRange, id, len(b.TexDataStringTable))
	}
	return b.StringAt(int(b.TexDataStringTable[id]))
}

// TextureNames returns the name of every texdata entry, in order.
func (b *BSP) TextureNames() ([]string, error) {
	names := make([]string, len(b.TexData))
	for i := range b.TexData {
		name, err := b.TexDataName(i)
		if err != nil {
			return nil, fmt.Errorf("texdata %d: %w", i, err)
		}
		names[i] = name
	}
	return names, nil
}

// WorldModel returns model 0, the world geometry, or nil if there are no models.
func (b *BSP) WorldModel() *BSPModel {
	if len(b.Models) == 0 {
		return nil
	}
	return &b.Models[0]
}
