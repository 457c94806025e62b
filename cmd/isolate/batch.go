package main

import (
	"sort"

	"github.com/wippyai/artifact-runtime/descriptor"
)

// orderBatch puts domain descriptors ahead of application descriptors,
// keeping file order within each kind.
func orderBatch(batch []string) []string {
	out := append([]string(nil), batch...)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func rank(name string) int {
	kind, _ := descriptor.KindOf(name)
	switch kind {
	case descriptor.KindDomain:
		return 0
	case descriptor.KindApplication:
		return 1
	}
	return 2
}
