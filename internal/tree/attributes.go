package tree

import (
	"io/fs"
	"time"
)

// FileAttributes captures filesystem metadata for a source file at parse
// time. Fields mirror what a portable stat can answer; creation time
// falls back to the modification time on platforms that do not track it.
type FileAttributes struct {
	CreationTime     time.Time `json:"creationTime"`
	LastModifiedTime time.Time `json:"lastModifiedTime"`
	IsReadable       bool      `json:"isReadable"`
	IsWritable       bool      `json:"isWritable"`
	IsExecutable     bool      `json:"isExecutable"`
	Size             int64     `json:"size"`
}

// AttributesFromFileInfo derives attributes from a stat result.
func AttributesFromFileInfo(info fs.FileInfo) *FileAttributes {
	perm := info.Mode().Perm()
	return &FileAttributes{
		CreationTime:     info.ModTime(),
		LastModifiedTime: info.ModTime(),
		IsReadable:       perm&0o400 != 0,
		IsWritable:       perm&0o200 != 0,
		IsExecutable:     perm&0o100 != 0,
		Size:             info.Size(),
	}
}

// Equal reports structural equality. Two nil attribute sets are equal;
// nil never equals non-nil.
func (a *FileAttributes) Equal(o *FileAttributes) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.CreationTime.Equal(o.CreationTime) &&
		a.LastModifiedTime.Equal(o.LastModifiedTime) &&
		a.IsReadable == o.IsReadable &&
		a.IsWritable == o.IsWritable &&
		a.IsExecutable == o.IsExecutable &&
		a.Size == o.Size
}
