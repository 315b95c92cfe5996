package port

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
)

// Conflict is a set of rules whose listen addresses bind the same port
// on overlapping addresses.
type Conflict struct {
	Port  int
	Rules []int // 1-based rule indexes, ascending
}

func (c Conflict) String() string {
	idx := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		idx[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("port %d is used by rules %s", c.Port, strings.Join(idx, ", "))
}

type listener struct {
	index int
	host  string
	port  int
}

// Parse splits a listen address into host and port.
// The host is normalized; an IP literal is returned in canonical form.
func Parse(listen string) (host string, port int, err error) {
	h, p, err := net.SplitHostPort(strings.TrimSpace(listen))
	if err != nil {
		return "", 0, err
	}
	port, err = strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.String(), port, nil
	}
	return strings.ToLower(h), port, nil
}

// IsWildcard reports whether host binds every address.
func IsWildcard(host string) bool {
	switch host {
	case "", "0.0.0.0", "::":
		return true
	}
	return false
}

func overlaps(a, b listener) bool {
	return a.port == b.port && (a.host == b.host || IsWildcard(a.host) || IsWildcard(b.host))
}

// Conflicts finds rules that would bind the same port twice.
// Rules with unparsable listen addresses are ignored.
func Conflicts(list []rules.Rule) []Conflict {
	var ls []listener
	for _, r := range list {
		host, p, err := Parse(r.Listen)
		if err != nil {
			continue
		}
		ls = append(ls, listener{index: r.Index, host: host, port: p})
	}

	byPort := make(map[int][]int)
	seen := make(map[int]bool)
	for i := range ls {
		for j := i + 1; j < len(ls); j++ {
			if !overlaps(ls[i], ls[j]) {
				continue
			}
			p := ls[i].port
			for _, idx := range []int{ls[i].index, ls[j].index} {
				key := p<<20 | idx
				if !seen[key] {
					seen[key] = true
					byPort[p] = append(byPort[p], idx)
				}
			}
		}
	}

	var out []Conflict
	for p, idx := range byPort {
		slices.Sort(idx)
		out = append(out, Conflict{Port: p, Rules: idx})
	}
	slices.SortFunc(out, func(a, b Conflict) int { return a.Port - b.Port })
	return out
}

// Free returns the lowest port in [from, to] that no rule listens on.
func Free(list []rules.Rule, from, to int) (int, error) {
	used := make(map[int]bool)
	for _, r := range list {
		if _, p, err := Parse(r.Listen); err == nil {
			used[p] = true
		}
	}

	for p := from; p <= to; p++ {
		if !used[p] {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no available ports in range %d-%d", from, to)
}
