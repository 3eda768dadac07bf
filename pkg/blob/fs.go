package blob

import (
	"context"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
)

// DefaultRoot is where the filesystem backend writes when no root is set.
const DefaultRoot = "./backups"

// Filesystem stores blobs as files under a root directory. Content types
// are inferred from the key's extension.
type Filesystem struct {
	root string
}

var _ Store = (*Filesystem)(nil)

// NewFilesystem creates root if needed.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("mkdir", root, err)
	}
	return &Filesystem{root: root}, nil
}

// Driver implements Store.
func (s *Filesystem) Driver() Driver { return DriverFilesystem }

// Put implements Store. The file is written to a temporary name and
// renamed into place.
func (s *Filesystem) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	k, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	p := filepath.Join(s.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(p), constants.DirPermissions); err != nil {
		return Info{}, errors.WrapIO("mkdir", filepath.Dir(p), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return Info{}, errors.WrapIO("create", p, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return Info{}, errors.WrapIO("write", p, err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, errors.WrapIO("close", p, err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return Info{}, errors.WrapIO("chmod", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return Info{}, errors.WrapIO("rename", p, err)
	}

	st, err := os.Stat(p)
	if err != nil {
		return Info{}, errors.WrapIO("stat", p, err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(p))
	}
	return Info{Key: k, Size: st.Size(), ContentType: contentType, LastModified: st.ModTime().UTC()}, nil
}

// Get implements Store.
func (s *Filesystem) Get(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(k)))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("blob", k)
	}
	if err != nil {
		return nil, errors.WrapIO("open", k, err)
	}
	return f, nil
}

// List implements Store. Keys are returned in lexical order.
func (s *Filesystem) List(ctx context.Context, prefix string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Info{
			Key:          key,
			Size:         st.Size(),
			ContentType:  mime.TypeByExtension(filepath.Ext(p)),
			LastModified: st.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO("list", s.root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
