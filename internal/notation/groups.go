package notation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BaseGroupName names the ground configuration group.
const BaseGroupName = "base_group"

var configTokenPattern = regexp.MustCompile(`^(\d+)\*(\d+)$`)

type configToken struct {
	n     int
	count int
}

func parseConfig(config string) ([]configToken, error) {
	fields := strings.Fields(config)
	if len(fields) == 0 {
		return nil, invalid("parse config", "empty configuration")
	}
	tokens := make([]configToken, 0, len(fields))
	for _, field := range fields {
		m := configTokenPattern.FindStringSubmatch(field)
		if m == nil {
			return nil, invalid("parse config", "token %q in %q is not <n>*<count>", field, config)
		}
		n, _ := strconv.Atoi(m[1])
		count, _ := strconv.Atoi(m[2])
		if n <= 0 {
			return nil, invalid("parse config", "token %q has non-positive principal number", field)
		}
		tokens = append(tokens, configToken{n: n, count: count})
	}
	return tokens, nil
}

func formatConfig(tokens []configToken) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = fmt.Sprintf("%d*%d", t.n, t.count)
	}
	return strings.Join(parts, " ")
}

// ConfigGroup is a non-relativistic configuration in solver syntax ("1*2 2*7 4*1")
// together with its index: 0 for the base group, otherwise the principal
// number of the excited electron.
type ConfigGroup struct {
	config string
	index  int
}

// NewConfigGroup validates config and returns the group.
func NewConfigGroup(config string, index int) (ConfigGroup, error) {
	if index < 0 {
		return ConfigGroup{}, invalid("config group", "negative group index %d", index)
	}
	tokens, err := parseConfig(config)
	if err != nil {
		return ConfigGroup{}, err
	}
	return ConfigGroup{config: formatConfig(tokens), index: index}, nil
}

func (g ConfigGroup) Config() string { return g.config }
func (g ConfigGroup) Index() int     { return g.index }

// OuterN is the principal number of the last configuration token.
func (g ConfigGroup) OuterN() int {
	tokens, _ := parseConfig(g.config)
	if len(tokens) == 0 {
		return 0
	}
	return tokens[len(tokens)-1].n
}

// Name is the solver group label.
func (g ConfigGroup) Name() string {
	if g.index == 0 {
		return BaseGroupName
	}
	return "group" + strconv.Itoa(g.index)
}

// ElectronCount sums the occupation of every token.
func (g ConfigGroup) ElectronCount() int {
	tokens, _ := parseConfig(g.config)
	total := 0
	for _, t := range tokens {
		total += t.count
	}
	return total
}

func (g ConfigGroup) String() string { return g.Name() + ": " + g.config }

// Compare orders groups by index.
func (g ConfigGroup) Compare(other ConfigGroup) int { return g.index - other.index }

// ConfigGroups is the base configuration plus every single excitation of
// its outermost electron up to MaxN.
type ConfigGroups struct {
	groups []ConfigGroup
	maxN   int
}

// GroupPair is one (lower, upper) group combination fed to the transition
// and excitation tables.
type GroupPair struct {
	Lower ConfigGroup
	Upper ConfigGroup
}

// NewConfigGroups builds the base group from base and one excited group for
// every n in (base_n, maxN], where base_n is the principal number of the
// last base token.
func NewConfigGroups(base string, maxN int) (ConfigGroups, error) {
	tokens, err := parseConfig(base)
	if err != nil {
		return ConfigGroups{}, err
	}
	if maxN <= 0 {
		return ConfigGroups{}, invalid("config groups", "max_n must be positive, got %d", maxN)
	}
	last := tokens[len(tokens)-1]
	if last.count == 0 {
		return ConfigGroups{}, invalid("config groups", "last token of %q has no electron to excite", base)
	}

	groups := []ConfigGroup{{config: formatConfig(tokens), index: 0}}
	excitedCore := append([]configToken(nil), tokens[:len(tokens)-1]...)
	if last.count > 1 {
		excitedCore = append(excitedCore, configToken{n: last.n, count: last.count - 1})
	}
	for n := last.n + 1; n <= maxN; n++ {
		excited := append(append([]configToken(nil), excitedCore...), configToken{n: n, count: 1})
		groups = append(groups, ConfigGroup{config: formatConfig(excited), index: n})
	}
	return ConfigGroups{groups: groups, maxN: maxN}, nil
}

// All returns every group ordered by index.
func (c ConfigGroups) All() []ConfigGroup {
	return append([]ConfigGroup(nil), c.groups...)
}

func (c ConfigGroups) Base() ConfigGroup {
	if len(c.groups) == 0 {
		return ConfigGroup{}
	}
	return c.groups[0]
}

func (c ConfigGroups) MaxN() int { return c.maxN }

// Names returns the solver labels in index order.
func (c ConfigGroups) Names() []string {
	names := make([]string, len(c.groups))
	for i, g := range c.groups {
		names[i] = g.Name()
	}
	return names
}

// Pairs returns the combinations with replacement of all groups, each pair
// ordered lower index first.
func (c ConfigGroups) Pairs() []GroupPair {
	pairs := make([]GroupPair, 0, len(c.groups)*(len(c.groups)+1)/2)
	for i := range c.groups {
		for j := i; j < len(c.groups); j++ {
			pairs = append(pairs, GroupPair{Lower: c.groups[i], Upper: c.groups[j]})
		}
	}
	return pairs
}
