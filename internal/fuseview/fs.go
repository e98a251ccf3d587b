// Package fuseview adapts the teacher's internal/fuse package into a
// read-only debug view of a synthesized vsfat tree: it walks the
// TreeNode snapshot a DirBuilder records during the build and serves
// file bytes through the same AddressMap the NBD transport reads from,
// so both transports are provably reading identical bytes. It exists so
// the image can be browsed locally without root or the NBD kernel module.
package fuseview

import "github.com/sscafiti/vsfat/internal/vfat"

// FS is the root of the debug filesystem, rooted at a TreeNode and backed
// by the builder's AddressMap for file content. Kept in an untagged file
// so Mount's non-Linux stub can still reference the type.
type FS struct {
	root *vfat.TreeNode
	amap *vfat.AddressMap
	geo  *vfat.Geometry
}

// New wraps a built image's tree snapshot, geometry and address map for
// mounting.
func New(root *vfat.TreeNode, geo vfat.Geometry, amap *vfat.AddressMap) *FS {
	return &FS{root: root, amap: amap, geo: &geo}
}
