// Package cliflag groups pflag.FlagSets under named headings so cobra
// commands can print "Generic flags:", "Gateway flags:", etc. separately,
// following the same grouping convention used by Kubernetes-style CLIs.
package cliflag

import (
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// NamedFlagSets stores flag sets in the order they were first requested,
// so usage text prints groups in the order callers registered them.
type NamedFlagSets struct {
	Order    []string
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet returns the flag set registered under name, creating it if this
// is the first request for that name.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}

// PrintSections writes each named flag set's usage, sorted flags within
// each section, to sb with a leading title line.
func (nfs *NamedFlagSets) PrintSections(sb *strings.Builder, cols int) {
	for _, name := range nfs.Order {
		fs := nfs.FlagSets[name]
		if fs == nil || !fs.HasFlags() {
			continue
		}
		sb.WriteString(strings.ToUpper(name[:1]) + name[1:] + " flags:\n")
		fs.SetOutput(flagSetWriter{sb})
		fs.PrintDefaults()
		sb.WriteString("\n")
	}
}

type flagSetWriter struct{ sb *strings.Builder }

func (w flagSetWriter) Write(p []byte) (int, error) {
	w.sb.Write(p)
	return len(p), nil
}

// SortedNames returns the registered section names in alphabetical order,
// useful for callers that want deterministic iteration independent of
// registration order.
func (nfs *NamedFlagSets) SortedNames() []string {
	names := make([]string, 0, len(nfs.FlagSets))
	for name := range nfs.FlagSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
