// Package direntry decodes the variable-length directory entries of an
// archive from a positioned Cursor.
//
// An encoded entry is:
//
//	path_len           uint32
//	path               path_len bytes followed by one NUL
//	data_offset        uint32
//	data_size          uint32
//	next_entry_offset  uint32
//	reserved           uint32
//
// All integers are little-endian.
package direntry
