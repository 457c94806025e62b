package unit

import (
	"context"
	"strings"
)

// Family is a group of process-global native resources that a unit may
// acquire through the symbols it loads. A unit that loads a symbol in any
// of the prefixes has touched the family.
type Family struct {
	Name     string
	Prefixes []string
}

// Matches reports whether namespace falls under one of f's prefixes.
func (f Family) Matches(namespace string) bool {
	for _, p := range f.Prefixes {
		if namespace == p || strings.HasPrefix(namespace, p+".") {
			return true
		}
	}
	return false
}

// Releaser frees the resources a family holds on behalf of owner.
type Releaser func(ctx context.Context, owner string) error

const (
	FamilyDatabase = "database"
	FamilyIBMMQ    = "ibm-mq"
	FamilyActiveMQ = "activemq"
)

// DefaultFamilies is the table of tracked native resource families.
var DefaultFamilies = []Family{
	{Name: FamilyDatabase, Prefixes: []string{"database.sql", "org.postgresql", "com.mysql"}},
	{Name: FamilyIBMMQ, Prefixes: []string{"com.ibm.mq"}},
	{Name: FamilyActiveMQ, Prefixes: []string{"org.apache.activemq"}},
}

// OnSymbolTouched records that namespace was resolved on behalf of u.
// It is called for every successful symbol resolution.
func (u *Unit) OnSymbolTouched(namespace string) {
	for i, f := range u.families {
		if !u.touched[i].Load() && f.Matches(namespace) {
			u.touched[i].Store(true)
		}
	}
}

// Touched reports whether u touched the named family.
func (u *Unit) Touched(family string) bool {
	for i, f := range u.families {
		if f.Name == family {
			return u.touched[i].Load()
		}
	}
	return false
}

func (u *Unit) touch(family string) {
	for i, f := range u.families {
		if f.Name == family {
			u.touched[i].Store(true)
			return
		}
	}
}

// releaser returns the releaser configured for family, or one that closes
// the native handles u's owner registered in that family.
func (u *Unit) releaser(family string) Releaser {
	if r, ok := u.releasers[family]; ok {
		return r
	}
	if u.natives == nil {
		return nil
	}
	natives := u.natives
	return func(_ context.Context, owner string) error {
		return natives.Release(family, owner)
	}
}
