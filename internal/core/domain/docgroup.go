package domain

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// DocState classifies a contentful document relative to a point in time.
type DocState string

// Document states.
const (
	// DocStateActive means the document is currently in force.
	DocStateActive DocState = "active"

	// DocStateInactive means the document expired and has been superseded.
	DocStateInactive DocState = "inactive"

	// DocStateOutdated means the latest document of its lineage has expired.
	DocStateOutdated DocState = "outdated"
)

// IsValid returns true if the state is recognised.
func (s DocState) IsValid() bool {
	switch s {
	case DocStateActive, DocStateInactive, DocStateOutdated:
		return true
	default:
		return false
	}
}

// DocumentGroup is a version lineage: the latest document plus its
// predecessors in ascending start date order. Groups are derived on every
// read and never stored.
type DocumentGroup struct {
	// Latest is the member with the greatest start date, or the sole member.
	Latest *Document `json:"latest"`

	// Previous holds all other members, oldest first.
	Previous []*Document `json:"previous"`
}

// NewDocumentGroup builds a group from its members. A single member (of any
// shape) becomes the latest. For several members, which must all be
// contentful, the greatest start date wins and on equal dates the member
// encountered last wins.
func NewDocumentGroup(docs []*Document) DocumentGroup {
	if len(docs) == 1 {
		return DocumentGroup{Latest: docs[0], Previous: []*Document{}}
	}

	latest := 0
	for i := 1; i < len(docs); i++ {
		if !docs[latest].StartDate.After(docs[i].StartDate) {
			latest = i
		}
	}

	previous := make([]*Document, 0, len(docs)-1)
	for i, doc := range docs {
		if i != latest {
			previous = append(previous, doc)
		}
	}
	sort.SliceStable(previous, func(i, j int) bool {
		return previous[i].StartDate.Before(previous[j].StartDate)
	})

	return DocumentGroup{Latest: docs[latest], Previous: previous}
}

// IsContentful reports whether the latest document is contentful.
func (g DocumentGroup) IsContentful() bool {
	return g.Latest != nil && g.Latest.IsContentful()
}

// IsCurrent reports whether the latest document is current. ok is false for
// contentless groups, which have no notion of currency.
func (g DocumentGroup) IsCurrent(now time.Time) (current, ok bool) {
	if !g.IsContentful() {
		return false, false
	}
	return g.Latest.IsCurrent(now), true
}

// State returns the state of the latest document. ok is false for
// contentless groups.
func (g DocumentGroup) State(now time.Time) (DocState, bool) {
	if !g.IsContentful() {
		return "", false
	}
	return g.Latest.State(true, now), true
}

// Members returns the latest document followed by the previous ones, newest first.
func (g DocumentGroup) Members() []*Document {
	members := make([]*Document, 0, len(g.Previous)+1)
	members = append(members, g.Latest)
	for i := len(g.Previous) - 1; i >= 0; i-- {
		members = append(members, g.Previous[i])
	}
	return members
}

// ToDocGroups partitions documents into groups. Nil entries are dropped.
// Output order: grouped lineages by first appearance of their key, then
// ungrouped contentful documents, then contentless documents, each in
// input order.
func ToDocGroups(docs []*Document) []DocumentGroup {
	var (
		keys        []string
		buckets     = make(map[string][]*Document)
		ungrouped   []*Document
		contentless []*Document
	)

	for _, doc := range docs {
		switch {
		case doc == nil:
			continue
		case !doc.IsContentful():
			contentless = append(contentless, doc)
		case doc.Group == "":
			ungrouped = append(ungrouped, doc)
		default:
			if _, seen := buckets[doc.Group]; !seen {
				keys = append(keys, doc.Group)
			}
			buckets[doc.Group] = append(buckets[doc.Group], doc)
		}
	}

	groups := make([]DocumentGroup, 0, len(keys)+len(ungrouped)+len(contentless))
	for _, key := range keys {
		groups = append(groups, NewDocumentGroup(buckets[key]))
	}
	for _, doc := range ungrouped {
		groups = append(groups, NewDocumentGroup([]*Document{doc}))
	}
	for _, doc := range contentless {
		groups = append(groups, NewDocumentGroup([]*Document{doc}))
	}
	return groups
}

// DocQuery filters document groups. Empty slices match everything.
type DocQuery struct {
	// Types keeps documents whose type is listed.
	Types []DocType

	// States keeps groups whose latest document is in one of these states.
	// Contentless groups never match a state filter.
	States []DocState
}

// QueryGroups filters documents by type, groups them, then filters the
// groups by state.
func QueryGroups(docs []*Document, q DocQuery, now time.Time) []DocumentGroup {
	filtered := docs
	if len(q.Types) > 0 {
		filtered = make([]*Document, 0, len(docs))
		for _, doc := range docs {
			if doc != nil && slices.Contains(q.Types, doc.Type) {
				filtered = append(filtered, doc)
			}
		}
	}

	groups := ToDocGroups(filtered)
	if len(q.States) == 0 {
		return groups
	}

	out := groups[:0]
	for _, g := range groups {
		if state, ok := g.State(now); ok && slices.Contains(q.States, state) {
			out = append(out, g)
		}
	}
	return out
}

// SearchGroups keeps contentful documents whose type identifier, long or
// short label, or party name contains text (case-insensitive), then groups them.
func SearchGroups(docs []*Document, text string) []DocumentGroup {
	needle := strings.ToLower(strings.TrimSpace(text))
	matched := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || !doc.IsContentful() {
			continue
		}
		if matchesSearch(doc, needle) {
			matched = append(matched, doc)
		}
	}
	return ToDocGroups(matched)
}

// ActionItems returns groups that need attention: an outdated latest
// contentful document, or an uncategorised upload.
func ActionItems(groups []DocumentGroup, now time.Time) []DocumentGroup {
	var items []DocumentGroup
	for _, g := range groups {
		if state, ok := g.State(now); ok {
			if state == DocStateOutdated {
				items = append(items, g)
			}
			continue
		}
		if g.Latest != nil && g.Latest.Type == DocTypeUncategorized {
			items = append(items, g)
		}
	}
	return items
}

func matchesSearch(doc *Document, needle string) bool {
	labels := doc.Type.Describe()
	haystacks := []string{
		string(doc.Type),
		strings.ReplaceAll(string(doc.Type), "_", " "),
		labels.Long,
		labels.Short,
	}
	if doc.Party != nil {
		haystacks = append(haystacks, doc.Party.Name)
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
