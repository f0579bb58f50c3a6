package artifact

import (
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/vk/pipegridgo/internal/iotype"
)

// File is a named binary blob.
type File struct {
	Name      string
	Extension string
	MimeType  string
	Content   []byte
}

func (*File) IOType() iotype.IOType { return iotype.File }

// NewFile creates a file, deriving its extension from name. An empty mimeType
// is inferred from the extension.
func NewFile(name string, content []byte, mimeType string) *File {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if mimeType == "" && ext != "" {
		mimeType = mime.TypeByExtension("." + ext)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &File{Name: name, Extension: ext, MimeType: mimeType, Content: content}
}

// FileSystem is an in-memory tree of files addressed by slash separated
// absolute paths.
type FileSystem struct {
	files map[string]*File
}

func (*FileSystem) IOType() iotype.IOType { return iotype.FileSystem }

// NewFileSystem creates an empty file system.
func NewFileSystem() *FileSystem {
	return &FileSystem{files: make(map[string]*File)}
}

// PutFile stores f at p, replacing nothing.
func (fs *FileSystem) PutFile(p string, f *File) error {
	clean := cleanPath(p)
	if clean == "/" {
		return fmt.Errorf("cannot store a file at the root")
	}
	if _, exists := fs.files[clean]; exists {
		return fmt.Errorf("file %q already exists", clean)
	}
	fs.files[clean] = f
	return nil
}

// GetFile returns the file stored at p.
func (fs *FileSystem) GetFile(p string) (*File, bool) {
	f, ok := fs.files[cleanPath(p)]
	return f, ok
}

// Paths lists every stored path in lexical order.
func (fs *FileSystem) Paths() []string {
	out := make([]string, 0, len(fs.files))
	for p := range fs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}
