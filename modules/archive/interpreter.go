package archive

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Supported archive types.
const (
	TypeZip  = "zip"
	TypeGzip = "gz"
)

// Interpreter is the ArchiveInterpreter block kind.
type Interpreter struct{}

func (*Interpreter) Kind() string { return "ArchiveInterpreter" }

func (*Interpreter) Definition() registry.Definition {
	return registry.Definition{
		Description: "Unpacks a zip or gzip archive into a file system.",
		Input:       iotype.File,
		Output:      iotype.FileSystem,
		Properties: schema.Properties{
			{Name: "archiveType", Type: valuetype.Text, Default: cty.StringVal(TypeZip),
				Validate: schema.OneOf(TypeZip, TypeGzip)},
		},
	}
}

func (*Interpreter) Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	file := input.(*artifact.File)
	archiveType := ec.GetText("archiveType")
	ec.LogDebug("Unpacking archive", "file", file.Name, "type", archiveType)

	var (
		fs  *artifact.FileSystem
		err error
	)
	switch archiveType {
	case TypeZip:
		fs, err = unzip(ctx, file.Content)
	case TypeGzip:
		fs, err = gunzip(file)
	}
	if err != nil {
		return nil, ec.Errorf("Cannot unpack %s archive %q: %s", archiveType, file.Name, err)
	}
	ec.LogInfo("Unpacked archive", "file", file.Name, "files", len(fs.Paths()))
	return fs, nil
}

func unzip(ctx context.Context, content []byte) (*artifact.FileSystem, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	fs := artifact.NewFileSystem()
	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if zf.FileInfo().IsDir() {
			continue
		}
		data, err := readZipFile(zf)
		if err != nil {
			return nil, err
		}
		if err := fs.PutFile(zf.Name, artifact.NewFile(path.Base(zf.Name), data, "")); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", zf.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// gunzip stores the single compressed file under the name from the gzip
// header, or the archive name without its .gz suffix.
func gunzip(file *artifact.File) (*artifact.FileSystem, error) {
	zr, err := gzip.NewReader(bytes.NewReader(file.Content))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	name := path.Base(zr.Name)
	if zr.Name == "" {
		name = strings.TrimSuffix(file.Name, ".gz")
	}
	fs := artifact.NewFileSystem()
	if err := fs.PutFile(name, artifact.NewFile(name, data, "")); err != nil {
		return nil, err
	}
	return fs, nil
}
