package rules

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// BlockMarker starts every rule block.
	BlockMarker = "[[endpoints]]"

	// RemarkPrefix introduces the optional remark comment of a block.
	RemarkPrefix = "# 备注:"
)

// DefaultDocument is written when the configuration file does not exist.
const DefaultDocument = `[network]
no_tcp = false
use_udp = true
`

// Rule is one forwarding rule. Index is its 1-based position in the file.
type Rule struct {
	Index  int    `json:"index" yaml:"index"`
	Listen string `json:"listen" yaml:"listen"`
	Remote string `json:"remote" yaml:"remote"`
	Remark string `json:"remark,omitempty" yaml:"remark,omitempty"`
}

// Network is the global [network] table.
type Network struct {
	NoTCP  bool `toml:"no_tcp"`
	UseUDP bool `toml:"use_udp"`
}

// block is one [[endpoints]] block and the lines it owns.
// A block runs from its marker to the line before the next marker, or EOF.
type block struct {
	start, end int
	listen     string
	remote     string
	remark     string
}

// Document is a parsed configuration file. Lines outside the rule blocks
// are preserved verbatim.
type Document struct {
	lines  []string
	blocks []block

	// Network is the decoded [network] table. Zero if the file did not decode.
	Network Network

	// Decoded reports whether the whole file parsed as TOML.
	// When false, field values come from textual extraction.
	Decoded bool
}

// endpointFields mirrors the keys realm-ctl reads from each block.
type endpointFields struct {
	Listen string `toml:"listen"`
	Remote string `toml:"remote"`
}

type realmConfig struct {
	Network   Network          `toml:"network"`
	Endpoints []endpointFields `toml:"endpoints"`
}

// Parse splits data into the global section and rule blocks.
// It never fails: malformed TOML falls back to textual field extraction.
func Parse(data []byte) *Document {
	doc := &Document{}
	if len(data) > 0 {
		doc.lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	doc.scan()

	var cfg realmConfig
	if _, err := toml.Decode(string(data), &cfg); err == nil {
		doc.Decoded = true
		doc.Network = cfg.Network
		if len(cfg.Endpoints) == len(doc.blocks) {
			for i, ep := range cfg.Endpoints {
				doc.blocks[i].listen = ep.Listen
				doc.blocks[i].remote = ep.Remote
			}
		}
	}

	return doc
}

// scan locates blocks and extracts fields textually.
func (d *Document) scan() {
	d.blocks = nil
	cur := -1
	remoteSeen := false

	for i, line := range d.lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == BlockMarker {
			if cur >= 0 {
				d.blocks[cur].end = i - 1
			}
			d.blocks = append(d.blocks, block{start: i, end: len(d.lines) - 1})
			cur = len(d.blocks) - 1
			remoteSeen = false
			continue
		}
		if cur < 0 {
			continue
		}

		b := &d.blocks[cur]
		if strings.HasPrefix(trimmed, RemarkPrefix) {
			if !remoteSeen {
				b.remark = strings.TrimSpace(strings.TrimPrefix(trimmed, RemarkPrefix))
			}
			continue
		}

		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "listen":
			b.listen = unquote(value)
		case "remote":
			b.remote = unquote(value)
			remoteSeen = true
		}
	}
}

// unquote strips whitespace and one pair of surrounding quotes.
func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// Len returns the number of rule blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// Rules yields the rules in file order with 1-based indices.
func (d *Document) Rules() iter.Seq[Rule] {
	return func(yield func(Rule) bool) {
		for i, b := range d.blocks {
			r := Rule{Index: i + 1, Listen: b.listen, Remote: b.remote, Remark: b.remark}
			if !yield(r) {
				return
			}
		}
	}
}

// Rule returns the rule at the 1-based index.
func (d *Document) Rule(index int) (Rule, bool) {
	if index < 1 || index > len(d.blocks) {
		return Rule{}, false
	}
	b := d.blocks[index-1]
	return Rule{Index: index, Listen: b.listen, Remote: b.remote, Remark: b.remark}, true
}

// Remove deletes the block at the 1-based index, then collapses runs of
// blank lines and drops blank lines at the end of the file.
func (d *Document) Remove(index int) error {
	if index < 1 || index > len(d.blocks) {
		return fmt.Errorf("index %d out of range [1, %d]", index, len(d.blocks))
	}
	b := d.blocks[index-1]

	kept := make([]string, 0, len(d.lines)-(b.end-b.start+1))
	kept = append(kept, d.lines[:b.start]...)
	kept = append(kept, d.lines[b.end+1:]...)

	d.lines = normalizeBlankLines(kept)
	d.reparse()
	return nil
}

// reparse refreshes block positions and decoded values from the current lines.
func (d *Document) reparse() {
	fresh := Parse(d.Bytes())
	*d = *fresh
}

// normalizeBlankLines collapses consecutive blank lines into one and
// removes blank lines at the end.
func normalizeBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	prevBlank := false
	for _, l := range lines {
		blank := strings.TrimSpace(l) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, l)
		prevBlank = blank
	}
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return out
}

// Bytes serializes the document. Every line, including the last, ends in a newline.
func (d *Document) Bytes() []byte {
	if len(d.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(d.lines, "\n") + "\n")
}

// EncodeBlock renders the canonical block for a rule:
// marker, remark, listen, remote.
func EncodeBlock(listen, remote, remark string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(BlockMarker + "\n")

	remark = sanitizeRemark(remark)
	if remark == "" {
		buf.WriteString(RemarkPrefix + "\n")
	} else {
		buf.WriteString(RemarkPrefix + " " + remark + "\n")
	}

	if err := toml.NewEncoder(&buf).Encode(endpointFields{Listen: listen, Remote: remote}); err != nil {
		return nil, fmt.Errorf("failed to encode rule: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeRemark keeps a remark on a single line.
func sanitizeRemark(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
