//go:build linux
// +build linux

package fuseview

import (
	"context"
	"os"
	"sort"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func (f *FS) Root() (fusefs.Node, error) {
	return &dir{fs: f, node: f.root}, nil
}

type dir struct {
	fs   *FS
	node *vfat.TreeNode
}

func (d *dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	for _, c := range d.node.Children {
		if c.Name != name {
			continue
		}
		if c.IsDir {
			return &dir{fs: d.fs, node: c}, nil
		}
		return &file{fs: d.fs, node: c}, nil
	}
	return nil, fuse.ENOENT
}

func (d *dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries := make([]fuse.Dirent, 0, len(d.node.Children))
	for i, c := range d.node.Children {
		typ := fuse.DT_File
		if c.IsDir {
			typ = fuse.DT_Dir
		}
		entries = append(entries, fuse.Dirent{Inode: uint64(i) + 1, Name: c.Name, Type: typ})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

type file struct {
	fs   *FS
	node *vfat.TreeNode
}

func (f *file) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0444
	a.Size = f.node.Size
	a.Mtime = time.Unix(0, 0)
	return nil
}

// Read clamps the requested range to the file's declared size and serves
// the bytes straight out of the builder's AddressMap — the same region a
// block-device reader of the synthesized image would see at this file's
// first cluster.
func (f *file) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	size := int64(f.node.Size)
	offset := req.Offset
	if offset >= size {
		resp.Data = []byte{}
		return nil
	}

	n := int64(req.Size)
	if offset+n > size {
		n = size - offset
	}

	base := geometryOffset(f.fs, f.node)
	buf := make([]byte, n)
	f.fs.amap.Read(buf, base+uint64(offset))
	resp.Data = buf
	return nil
}

// geometryOffset resolves a TreeNode's first cluster into an absolute
// disk offset through the Geometry passed to New. An FS without a
// Geometry resolves every node to offset 0.
func geometryOffset(f *FS, node *vfat.TreeNode) uint64 {
	if f.geo == nil {
		return 0
	}
	return f.geo.AddressFromFATClus(node.FirstCluster)
}
