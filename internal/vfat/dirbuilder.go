package vfat

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// maxDirBytes is the 2 MiB / 65536-entry ceiling a single directory's
// cluster chain may grow to, per the design note capping directory size.
const (
	maxDirEntries = 65536
	maxDirBytes   = maxDirEntries * dirEntrySize
)

// dirFrame is one level of the directory stack DirBuilder maintains while
// the scanner walks the host tree. It mirrors the reference
// implementation's Fat_Directory: a first cluster, the ordered list of
// cluster buffers backing it, a running entry count, and the short names
// already used in this directory (for collision disambiguation).
type dirFrame struct {
	firstCluster uint32
	clusters     [][]byte // cluster-sized buffers, in chain order
	lastCluster  uint32   // FAT cluster number of clusters[len(clusters)-1]
	entryCount   int
	shortNames   []ShortName
	parent       *dirFrame
	node         *TreeNode
}

// TreeNode is a lightweight record of the directory tree built alongside
// the FAT structures, kept purely for components that want a host-path
// view of the synthesized tree without re-parsing the FAT (currently the
// debug FUSE view). It is never consulted by the FAT-building logic
// itself.
type TreeNode struct {
	Name         string
	IsDir        bool
	HostPath     string
	Size         uint64
	FirstCluster uint32
	Children     []*TreeNode
}

// DirBuilder appends directory entries into per-directory cluster chains,
// allocating clusters from a FatAllocator and registering the resulting
// buffers in an AddressMap. It is the Go counterpart of fatfiles.c's
// dir_add_entry/add_file/up_dir.
type DirBuilder struct {
	geo   Geometry
	fat   *FatAllocator
	amap  *AddressMap
	log   *slog.Logger
	stack *dirFrame // top of stack = current directory
	root  *dirFrame
}

// NewDirBuilder creates a builder with the root directory already pushed,
// occupying geo.RootCluster (cluster 2).
func NewDirBuilder(geo Geometry, fat *FatAllocator, amap *AddressMap, log *slog.Logger) *DirBuilder {
	if log == nil {
		log = slog.Default()
	}
	root := &dirFrame{firstCluster: geo.RootCluster, lastCluster: geo.RootCluster}
	root.parent = root // self-parenting, per spec
	root.node = &TreeNode{Name: "/", IsDir: true, FirstCluster: geo.RootCluster}
	db := &DirBuilder{geo: geo, fat: fat, amap: amap, log: log, stack: root, root: root}
	db.allocFirstCluster(root)
	return db
}

// Tree returns the root of the host-path tree snapshot built alongside
// the FAT structures, for consumers like the debug FUSE view.
func (db *DirBuilder) Tree() *TreeNode { return db.root.node }

// allocFirstCluster zero-fills and registers a directory frame's very
// first cluster. The FAT entry for this cluster is already EOC-terminated
// before this runs (by NewFatAllocator for the root; by AddFile's
// ReserveChain for children).
func (db *DirBuilder) allocFirstCluster(f *dirFrame) {
	buf := make([]byte, db.geo.ClusterSize())
	f.clusters = append(f.clusters, buf)
	db.amap.AddMem(db.geo.AddressFromFATClus(f.firstCluster), buf)
}

// currentDir returns the directory frame currently being populated.
func (db *DirBuilder) currentDir() *dirFrame { return db.stack }

// dirAddEntry appends one 32-byte entry into directory frame f, growing
// the cluster chain when the current tail cluster is full.
func (db *DirBuilder) dirAddEntry(f *dirFrame, raw []byte) error {
	if (f.entryCount+1)*dirEntrySize > maxDirBytes {
		return fmt.Errorf("%w: directory at cluster %d", ErrDirTooLarge, f.firstCluster)
	}

	perCluster := int(db.geo.ClusterSize()) / dirEntrySize
	slot := f.entryCount % perCluster
	if slot == 0 && f.entryCount > 0 {
		next, err := db.fat.ExtendChain(f.lastCluster)
		if err != nil {
			return fmt.Errorf("extending directory chain: %w", err)
		}
		buf := make([]byte, db.geo.ClusterSize())
		f.clusters = append(f.clusters, buf)
		db.amap.AddMem(db.geo.AddressFromFATClus(next), buf)
		f.lastCluster = next
	}

	tail := f.clusters[len(f.clusters)-1]
	copy(tail[slot*dirEntrySize:(slot+1)*dirEntrySize], raw)
	f.entryCount++
	return nil
}

// AddFile encodes name, reserves a first cluster, emits the LFN group (if
// needed) followed by the short entry, and — for a regular file —
// registers a host-file-backed data region. isDirectory callers must
// follow up with PushDir to actually descend; AddFile only writes the
// directory entry that names the new subdirectory.
func (db *DirBuilder) AddFile(name string, hostPath string, size uint64, isDirectory bool, host HostReader) (firstCluster uint32, err error) {
	cur := db.currentDir()

	enc, err := EncodeName(name, cur.shortNames)
	if err != nil {
		return 0, fmt.Errorf("encoding name %q: %w", name, err)
	}
	cur.shortNames = append(cur.shortNames, enc.Short)

	lfnEntries := BuildLFNEntries(enc.LFNChars, enc.Short)

	clusterCount := uint32(1)
	if !isDirectory {
		clusterCount = ClustersNeeded(size, db.geo.ClusterSize())
	}
	firstCluster, err = db.fat.ReserveChain(clusterCount)
	if err != nil {
		return 0, fmt.Errorf("allocating clusters for %q: %w", name, err)
	}

	attr := uint8(AttrArchive)
	if isDirectory {
		attr = AttrDirectory
	}
	fileSize := uint32(size)
	if isDirectory {
		fileSize = 0
	}
	short := NewShortDirEntry(enc.Short, attr, firstCluster, fileSize)

	// Reverse order: highest sequence number (last-logical, 0x40 bit set)
	// goes first, i.e. at the lowest directory offset.
	for i := len(lfnEntries) - 1; i >= 0; i-- {
		if err := db.dirAddEntry(cur, lfnEntries[i].Bytes()); err != nil {
			return 0, err
		}
	}
	if err := db.dirAddEntry(cur, short.Bytes()); err != nil {
		return 0, err
	}

	if !isDirectory && size > 0 {
		db.amap.AddHostFile(db.geo.AddressFromFATClus(firstCluster), size, hostPath, host)
	}

	cur.node.Children = append(cur.node.Children, &TreeNode{
		Name: name, IsDir: isDirectory, HostPath: hostPath,
		Size: size, FirstCluster: firstCluster,
	})
	return firstCluster, nil
}

// PushDir descends into a subdirectory previously created by AddFile with
// isDirectory=true, emitting its "." and ".." entries, and makes it the
// current directory for subsequent AddFile/PushDir calls.
func (db *DirBuilder) PushDir(firstCluster uint32) error {
	parent := db.currentDir()
	child := &dirFrame{firstCluster: firstCluster, lastCluster: firstCluster, parent: parent}
	db.allocFirstCluster(child)

	for _, n := range parent.node.Children {
		if n.FirstCluster == firstCluster && n.IsDir {
			child.node = n
			break
		}
	}
	if child.node == nil { // defensive: should always be found, AddFile always precedes PushDir
		child.node = &TreeNode{IsDir: true, FirstCluster: firstCluster}
	}
	db.stack = child

	dot := NewShortDirEntry(dotName(), AttrDirectory, firstCluster, 0)
	dotdot := NewShortDirEntry(dotDotName(), AttrDirectory, parent.firstCluster, 0)

	var merr *multierror.Error
	if err := db.dirAddEntry(child, dot.Bytes()); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := db.dirAddEntry(child, dotdot.Bytes()); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// UpDir pops the current directory frame back to its parent. Popping the
// root is a no-op (the root is self-parenting).
func (db *DirBuilder) UpDir() {
	if db.stack == db.root {
		return
	}
	db.stack.shortNames = nil // release the collision list, entries live on in AddressMap
	db.stack = db.stack.parent
}

func dotName() ShortName {
	var s ShortName
	copy(s[:], []byte(".          "))
	return s
}

func dotDotName() ShortName {
	var s ShortName
	copy(s[:], []byte("..         "))
	return s
}
