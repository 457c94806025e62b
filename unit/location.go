package unit

import (
	"archive/zip"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/errors"
)

// Location is where a resource was found: a search-path entry and the
// resource's path inside it.
type Location struct {
	unit    *Unit
	Entry   string
	Path    string
	Archive bool
}

// String renders the location as a file path, or as zip:<archive>!/<path>
// for archive members.
func (l Location) String() string {
	if l.Archive {
		return "zip:" + l.Entry + "!/" + l.Path
	}
	return path.Join(l.Entry, l.Path)
}

// Unit returns the unit whose search path holds the resource.
func (l Location) Unit() *Unit {
	return l.unit
}

// Open opens the resource for reading.
func (l Location) Open() (io.ReadCloser, error) {
	if l.unit == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "location has no owning unit")
	}
	return l.unit.open(l)
}

// ReadAll reads the whole resource.
func (l Location) ReadAll() ([]byte, error) {
	rc, err := l.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// archive is an open zip entry of the search path.
type archive struct {
	file    afero.File
	members map[string]*zip.File
}

func cleanResource(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// findLocal looks name up in the unit's own search path, in order.
func (u *Unit) findLocal(name string) (Location, bool) {
	name = cleanResource(name)
	if name == "" {
		return Location{}, false
	}
	for _, entry := range u.searchPath {
		if loc, ok := u.lookupEntry(entry, name); ok {
			return loc, true
		}
	}
	return Location{}, false
}

func (u *Unit) lookupEntry(entry, name string) (Location, bool) {
	info, err := u.fs.Stat(filepath.FromSlash(entry))
	if err != nil {
		return Location{}, false
	}
	if info.IsDir() {
		fi, err := u.fs.Stat(filepath.Join(filepath.FromSlash(entry), filepath.FromSlash(name)))
		if err != nil || fi.IsDir() {
			return Location{}, false
		}
		return Location{unit: u, Entry: entry, Path: name}, true
	}

	a, err := u.archive(entry)
	if err != nil {
		Logger().Debug("skipping unreadable search path entry",
			zap.String("unit", u.id),
			zap.String("entry", entry),
			zap.Error(err))
		return Location{}, false
	}
	if _, ok := a.members[name]; !ok {
		return Location{}, false
	}
	return Location{unit: u, Entry: entry, Path: name, Archive: true}, true
}

// archive returns the open archive for entry, opening it on first use.
func (u *Unit) archive(entry string) (*archive, error) {
	u.cacheMu.Lock()
	defer u.cacheMu.Unlock()

	if a, ok := u.archives[entry]; ok {
		return a, nil
	}
	if u.disposed.Load() {
		return nil, errors.InvalidState(u.owner, "unit "+u.id+" is disposed")
	}

	f, err := u.fs.Open(filepath.FromSlash(entry))
	if err != nil {
		return nil, errors.Load("open archive "+entry, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Load("stat archive "+entry, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, errors.Load("read archive "+entry, err)
	}

	a := &archive{file: f, members: make(map[string]*zip.File, len(zr.File))}
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		a.members[cleanResource(zf.Name)] = zf
	}
	u.archives[entry] = a
	return a, nil
}

func (u *Unit) open(l Location) (io.ReadCloser, error) {
	if !l.Archive {
		f, err := u.fs.Open(filepath.Join(filepath.FromSlash(l.Entry), filepath.FromSlash(l.Path)))
		if err != nil {
			return nil, errors.Load("open "+l.String(), err)
		}
		return f, nil
	}
	a, err := u.archive(l.Entry)
	if err != nil {
		return nil, err
	}
	zf, ok := a.members[l.Path]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "resource", l.String())
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, errors.Load("open "+l.String(), err)
	}
	return rc, nil
}
