// Command mkfs builds a bootable disk image: a boot loader blob, a
// kernel image, and a freshly formatted filesystem populated from a
// skeleton directory tree. Rewritten from the teacher's mkfs.go, which
// drove ufs.Ufs_t (a different, log-structured on-disk format) through
// ufs.MkDisk/BootFS/Append; this version drives strata's ext2-like
// src/fs package instead, keeping the same CLI shape: mkfs <bootimage>
// <kernel image> <output image> <skel dir>.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"strata/src/fs"
	"strata/src/mem"
)

// Geometry for the image mkfs produces. Renamed from the teacher's
// nlogblks/ninodeblks/ndatablks (a log-structured format's sizing
// knobs) to the block-group geometry src/fs.Format takes.
const (
	totalBlocks    = 65536
	inodesPerGroup = 4096
	blocksPerGroup = 8192
)

// fileDisk implements fs.Disk_i against a host file, offset by
// blockOffset blocks so the filesystem image can sit after a prefix
// blob (the boot loader and kernel image) on the same output file.
type fileDisk struct {
	f           *os.File
	blockOffset int
}

func (d *fileDisk) Start(req *fs.Bdev_req_t) bool {
	off := int64(d.blockOffset+req.Blk.Block) * int64(fs.BSIZE)
	var err error
	switch req.Cmd {
	case fs.BDEV_READ:
		_, err = d.f.ReadAt(req.Blk.Data[:], off)
		if err == io.EOF {
			err = nil
		}
	case fs.BDEV_WRITE:
		_, err = d.f.WriteAt(req.Blk.Data[:], off)
	}
	req.AckCh <- err == nil
	return true
}

func (d *fileDisk) Stats() string { return "mkfs file disk" }

// hostBlockmem hands mkfs's single-threaded run a fresh backing page per
// block; mkfs never runs under memory pressure, so there is no reuse
// pool.
type hostBlockmem struct{ next mem.Pa_t }

func (m *hostBlockmem) Alloc() (mem.Pa_t, *mem.Bytepg_t, bool) {
	m.next += mem.Pa_t(mem.PGSIZE)
	return m.next, &mem.Bytepg_t{}, true
}
func (m *hostBlockmem) Free(mem.Pa_t) {}

func clockZero() uint32 { return 0 }

// writePrefix concatenates the boot loader and kernel image at the
// start of the output file, returning the number of blocks they occupy
// (rounded up), so the filesystem image starts block-aligned right
// after.
func writePrefix(out *os.File, bootimage, kernelimage string) int {
	var written int64
	for _, path := range []string{bootimage, kernelimage} {
		in, err := os.Open(path)
		if err != nil {
			panic(err)
		}
		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			panic(err)
		}
		written += n
	}
	return int((written + int64(fs.BSIZE) - 1) / int64(fs.BSIZE))
}

func main() {
	if len(os.Args) < 5 {
		fmt.Printf("Usage: mkfs <bootimage> <kernel image> <output image> <skel dir>\n")
		os.Exit(1)
	}
	bootimage, kernelimage, outimage, skeldir := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	out, err := os.Create(outimage)
	if err != nil {
		panic(err)
	}
	defer out.Close()

	prefixBlocks := writePrefix(out, bootimage, kernelimage)
	disk := &fileDisk{f: out, blockOffset: prefixBlocks}

	f, ok := fs.Format(disk, &hostBlockmem{}, clockZero, totalBlocks, inodesPerGroup, blocksPerGroup)
	if !ok {
		fmt.Println("failed to format filesystem")
		os.Exit(1)
	}

	addFiles(f, skeldir)
}

// addFiles walks skeldir on the host and replicates its contents into
// f, the same recursive-walk shape as the teacher's addfiles but
// calling fs.Create/fs.Extend/fs.Write instead of ufs.Ufs_t's
// MkDir/MkFile/Append.
func addFiles(f *fs.Fs_t, skeldir string) {
	dirInode := map[string]int{".": fs.RootInode}
	err := filepath.WalkDir(skeldir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			fmt.Printf("failed to access %q: %v\n", path, err)
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, skeldir), string(filepath.Separator))
		if rel == "" {
			return nil
		}
		parentRel := filepath.Dir(rel)
		parent, ok := dirInode[parentRel]
		if !ok {
			fmt.Printf("unknown parent directory for %q\n", rel)
			return nil
		}
		name := filepath.Base(rel)

		if d.IsDir() {
			ino := f.Create(parent, name, fs.ModeDirectory|0755)
			if ino == 0 {
				fmt.Printf("failed to create dir %v\n", rel)
				return nil
			}
			dirInode[rel] = ino
			return nil
		}

		ino := f.Create(parent, name, fs.ModeRegular|0644)
		if ino == 0 {
			fmt.Printf("failed to create file %v\n", rel)
			return nil
		}
		copyFileData(f, path, ino)
		return nil
	})
	if err != nil {
		fmt.Printf("error walking the path %q: %v\n", skeldir, err)
		os.Exit(1)
	}
}

// copyFileData streams src's contents into inode ino, growing its block
// allocation with fs.Extend before each fs.Write, per spec.md §9's
// write-past-untouched-region resolution.
func copyFileData(f *fs.Fs_t, src string, ino int) {
	in, err := os.Open(src)
	if err != nil {
		panic(err)
	}
	defer in.Close()

	buf := make([]byte, fs.BSIZE)
	offset := 0
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			blocksNeeded := (offset + n + fs.BSIZE - 1) / fs.BSIZE
			if !f.Extend(ino, blocksNeeded) {
				panic(fmt.Sprintf("extend failed for %q", src))
			}
			if _, ok := f.Write(ino, buf[:n], offset, n); !ok {
				panic(fmt.Sprintf("write failed for %q", src))
			}
			offset += n
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			panic(readErr)
		}
	}
}
