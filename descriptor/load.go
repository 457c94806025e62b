package descriptor

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/wippyai/artifact-runtime/errors"
)

// Directory layout scanned by LoadDir.
const (
	DomainsDir = "domains"
	AppsDir    = "apps"
)

// Load reads and parses the descriptor at name.
func Load(fs afero.Fs, name string) (*Descriptor, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, errors.Load("read descriptor "+name, err)
	}
	d, err := Parse(data, filepath.Dir(name))
	if err != nil {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Detail("descriptor %s", name).
			Cause(err).
			Build()
	}
	d.Source = name
	return d, nil
}

// Set is the result of scanning a deployment directory.
type Set struct {
	Domains      []*Descriptor
	Applications []*Descriptor
}

// LoadDir reads root/domains/*.yaml and root/apps/*.yaml in file name order.
// A descriptor without a kind takes the kind of its directory; one whose
// kind contradicts its directory is an error.
func LoadDir(fs afero.Fs, root string) (*Set, error) {
	domains, err := loadKind(fs, filepath.Join(root, DomainsDir), KindDomain)
	if err != nil {
		return nil, err
	}
	apps, err := loadKind(fs, filepath.Join(root, AppsDir), KindApplication)
	if err != nil {
		return nil, err
	}
	return &Set{Domains: domains, Applications: apps}, nil
}

func loadKind(fs afero.Fs, dir string, kind Kind) ([]*Descriptor, error) {
	ok, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, errors.Load("stat "+dir, err)
	}
	if !ok {
		return nil, nil
	}
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Load("read "+dir, err)
	}

	var names []string
	for _, fi := range infos {
		if fi.IsDir() || !IsDescriptorFile(fi.Name()) {
			continue
		}
		names = append(names, fi.Name())
	}
	sort.Strings(names)

	out := make([]*Descriptor, 0, len(names))
	for _, n := range names {
		d, err := LoadAs(fs, filepath.Join(dir, n), kind)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// LoadAs reads the descriptor at name. A descriptor without a kind takes
// kind; one with a different kind is an error.
func LoadAs(fs afero.Fs, name string, kind Kind) (*Descriptor, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, errors.Load("read descriptor "+name, err)
	}
	d, err := parseWithKind(data, filepath.Dir(name), kind)
	if err != nil {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Detail("descriptor %s", name).
			Cause(err).
			Build()
	}
	d.Source = name
	return d, nil
}

// KindOf returns the kind implied by the directory holding name, as laid out
// for LoadDir.
func KindOf(name string) (Kind, bool) {
	switch filepath.Base(filepath.Dir(name)) {
	case DomainsDir:
		return KindDomain, true
	case AppsDir:
		return KindApplication, true
	}
	return "", false
}

func parseWithKind(data []byte, dir string, kind Kind) (*Descriptor, error) {
	d, err := decode(data, dir)
	if err != nil {
		return nil, err
	}
	if d.Kind == "" {
		d.Kind = kind
	} else if d.Kind != kind {
		return nil, errors.InvalidInput(errors.PhaseParse,
			"descriptor of kind "+string(d.Kind)+" found in the "+string(kind)+" directory")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// IsDescriptorFile reports whether name has a descriptor extension.
func IsDescriptorFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
