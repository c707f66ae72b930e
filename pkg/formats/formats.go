// Package formats provides parsers for Source engine map files.
//
// ParseBSP reads the VBSP header and decodes the lumps needed for geometry,
// visibility tree traversal and texture lookup. Lumps it does not decode can
// still be read raw with ReadBSPLump.
package formats
