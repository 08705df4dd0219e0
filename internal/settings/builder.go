package settings

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/models"
)

// groupDelimiter separates explicit groups inside a stored section name.
const groupDelimiter = "--"

// builder folds loaded rows into a tree.
type builder struct {
	decode func(string) any
	log    zerolog.Logger
}

// fold assembles rows into their explicit groups and then parses every
// top-level group into tree. Rows are sorted by section first so the
// outcome does not depend on the order the store returned them in.
func (b *builder) fold(tree Branch, rows []models.RawRow) {
	sorted := make([]models.RawRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Section < sorted[j].Section })

	grouped := codec.NewArray()
	for _, row := range sorted {
		b.assemble(grouped, row)
	}
	for _, p := range grouped.Pairs() {
		b.parseFields(tree, codec.KeyString(p.Key), p.Value, 0)
	}
}

// assemble places the decoded payload of row at the position named by its
// "--"-separated section. Values are stored raw; coercion happens later in
// parseFields.
func (b *builder) assemble(grouped *codec.Array, row models.RawRow) {
	segs := strings.Split(row.Section, groupDelimiter)
	cur := grouped
	for _, seg := range segs[:len(segs)-1] {
		existing, ok := cur.Get(seg)
		if !ok {
			next := codec.NewArray()
			cur.Set(seg, next)
			cur = next
			continue
		}
		arr, isArray := existing.(*codec.Array)
		if !isArray {
			// Sections sort before their children, so the scalar always
			// arrives first. The group replaces it in place.
			b.log.Warn().
				Str("section", row.Section).
				Str("segment", seg).
				Msg("Settings group replaces a scalar value of the same name")
			arr = codec.NewArray()
			cur.Set(seg, arr)
		}
		cur = arr
	}
	cur.Set(segs[len(segs)-1], b.decode(row.Options))
}

// parseFields writes value under key into parent, nesting by sub-fields
// and by compound keys, and coerces the leaves.
func (b *builder) parseFields(parent Branch, key string, value any, level int) {
	if HasSubfields(value) {
		child, ok := b.branchAt(parent, key)
		if !ok {
			return
		}
		for _, p := range value.(*codec.Array).Pairs() {
			b.parseFields(child, codec.KeyString(p.Key), p.Value, level+1)
		}
		return
	}

	if IsSplit(key, level) {
		first, rest := SplitKey(key)
		child, ok := b.branchAt(parent, first)
		if !ok {
			return
		}
		b.parseFields(child, rest, value, level+1)
		return
	}

	if _, isBranch := parent[key].(Branch); isBranch {
		b.log.Warn().Str("key", key).Int("level", level).Msg("Settings value conflicts with an existing group, keeping the group")
		return
	}
	parent[key] = Leaf{Value: ParseOption(value)}
}

// branchAt returns the branch stored under key, creating it when missing.
// It refuses to replace an existing leaf.
func (b *builder) branchAt(parent Branch, key string) (Branch, bool) {
	switch existing := parent[key].(type) {
	case Branch:
		return existing, true
	case nil:
		child := Branch{}
		parent[key] = child
		return child, true
	}
	b.log.Warn().Str("key", key).Msg("Settings group conflicts with an existing value, keeping the value")
	return nil, false
}
