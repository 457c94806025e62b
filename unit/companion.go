package unit

import (
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/errors"
)

// findCompanionResource serves a coordinate request from a companion unit,
// creating the companion from a matching search-path entry on first use.
func (u *Unit) findCompanionResource(req coordinate.Request) (Location, bool) {
	if c := u.lookupCompanion(req.Coordinate); c != nil {
		return c.findLocal(req.Resource)
	}

	for _, entry := range u.searchPath {
		if !req.Coordinate.MatchesLocation(entry) {
			continue
		}
		c, err := u.companionFor(entry, req.Coordinate)
		if err != nil {
			Logger().Debug("companion unavailable",
				zap.String("unit", u.id),
				zap.String("entry", entry),
				zap.Error(err))
			return Location{}, false
		}
		return c.findLocal(req.Resource)
	}
	return Location{}, false
}

// lookupCompanion finds an existing companion. A wildcard request takes the
// first companion of the same artifact in map order.
func (u *Unit) lookupCompanion(requested coordinate.Coordinate) *Unit {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if !requested.IsWildcard() {
		return u.companions[requested.Key()]
	}
	for _, c := range u.companions {
		if coordinate.SameArtifact(c.coord, requested) {
			return c
		}
	}
	return nil
}

// companionFor returns the companion for a search-path entry, creating it if
// needed. Only the check-then-insert runs under the lock.
func (u *Unit) companionFor(entry string, requested coordinate.Coordinate) (*Unit, error) {
	coord, ok := coordinate.FromLocation(entry, requested.Group)
	if !ok {
		coord = requested
	}
	key := coord.Key()

	u.mu.Lock()
	defer u.mu.Unlock()

	if c, ok := u.companions[key]; ok {
		return c, nil
	}
	if u.disposed.Load() {
		return nil, errors.InvalidState(u.owner, "unit "+u.id+" is disposed")
	}

	c := New(Config{
		Fs:            u.fs,
		Natives:       u.natives,
		Releasers:     u.releasers,
		RuntimeConfig: u.runtimeConfig,
		ID:            u.id + "/" + coord.String(),
		Owner:         u.owner,
		Coordinate:    coord,
		SearchPath:    []string{entry},
		Families:      u.families,
	})
	u.companions[key] = c

	Logger().Debug("created companion unit",
		zap.String("unit", u.id),
		zap.String("coordinate", coord.String()),
		zap.String("entry", entry))
	return c, nil
}

// CompanionCount returns the number of companion units created so far.
func (u *Unit) CompanionCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.companions)
}
