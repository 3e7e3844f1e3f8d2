// Package scheduling holds the occupancy scheduling core: the interval index,
// the conflict checker and day bucketing of listings.
package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/scolendar-api/internal/models"
)

// ResourceKind names a schedulable resource.
type ResourceKind string

const (
	KindClassroom  ResourceKind = "classroom"
	KindTeacher    ResourceKind = "teacher"
	KindClassGroup ResourceKind = "class-group"
)

// ResourceKey identifies the resource an overlap query runs against.
// Group is only meaningful for KindClassGroup.
type ResourceKey struct {
	Kind  ResourceKind
	ID    string
	Group models.GroupTarget
}

// ClassroomKey targets a classroom.
func ClassroomKey(id string) ResourceKey {
	return ResourceKey{Kind: KindClassroom, ID: id}
}

// TeacherKey targets a teacher.
func TeacherKey(id string) ResourceKey {
	return ResourceKey{Kind: KindTeacher, ID: id}
}

// ClassGroupKey targets the students of a class reached by group.
func ClassGroupKey(classID string, group models.GroupTarget) ResourceKey {
	return ResourceKey{Kind: KindClassGroup, ID: classID, Group: group}
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether the occupancy intersects the interval.
func (i Interval) Overlaps(o models.Occupancy) bool {
	return o.Start.Before(i.End) && o.End().After(i.Start)
}

// Index answers overlap queries per resource. Results exclude deleted
// occupancies and are ordered by start then id.
type Index interface {
	Overlapping(ctx context.Context, key ResourceKey, window Interval) ([]models.Occupancy, error)
}

// LockKeys returns the sorted serialization keys covering every resource the draft touches.
// A class key covers all its groups.
func LockKeys(drafts ...models.OccupancyDraft) []string {
	set := make(map[string]struct{})
	for _, d := range drafts {
		if d.ClassroomID != "" {
			set["classroom:"+d.ClassroomID] = struct{}{}
		}
		if d.TeacherID != nil && *d.TeacherID != "" {
			set["teacher:"+*d.TeacherID] = struct{}{}
		}
		if d.ClassID != nil && *d.ClassID != "" {
			set["class:"+*d.ClassID] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortOccupancies orders by start ascending, ties by id ascending.
func SortOccupancies(list []models.Occupancy) {
	sort.SliceStable(list, func(i, j int) bool {
		return lessOccupancy(list[i], list[j])
	})
}

func lessOccupancy(a, b models.Occupancy) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}

type slot struct {
	kind ResourceKind
	id   string
}

type series struct {
	items       []models.Occupancy
	maxDuration time.Duration
}

// MemoryIndex keeps per-resource occupancy slices sorted by start. A lookup
// binary-searches the first candidate at window.Start minus the longest
// stored duration and scans until window.End.
type MemoryIndex struct {
	mu     sync.RWMutex
	series map[slot]*series
}

// NewMemoryIndex builds an index seeded with the given occupancies.
func NewMemoryIndex(occupancies ...models.Occupancy) *MemoryIndex {
	idx := &MemoryIndex{series: make(map[slot]*series)}
	for _, o := range occupancies {
		idx.Add(o)
	}
	return idx
}

// Add stores an occupancy under its classroom, teacher and class. Deleted occupancies are ignored.
func (m *MemoryIndex) Add(o models.Occupancy) {
	if o.Deleted {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slotsOf(o) {
		m.insert(s, o)
	}
}

// Remove drops an occupancy from every slot it was stored in.
func (m *MemoryIndex) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ser := range m.series {
		for i := range ser.items {
			if ser.items[i].ID == id {
				ser.items = append(ser.items[:i], ser.items[i+1:]...)
				break
			}
		}
	}
}

// Overlapping implements Index.
func (m *MemoryIndex) Overlapping(ctx context.Context, key ResourceKey, window Interval) ([]models.Occupancy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ser, ok := m.series[slot{kind: key.Kind, id: key.ID}]
	if !ok {
		return []models.Occupancy{}, nil
	}

	from := window.Start.Add(-ser.maxDuration)
	lo := sort.Search(len(ser.items), func(i int) bool {
		return !ser.items[i].Start.Before(from)
	})

	result := make([]models.Occupancy, 0)
	for i := lo; i < len(ser.items); i++ {
		o := ser.items[i]
		if !o.Start.Before(window.End) {
			break
		}
		if !window.Overlaps(o) {
			continue
		}
		if key.Kind == KindClassGroup && !key.Group.ConflictsWith(o.Group()) {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (m *MemoryIndex) insert(s slot, o models.Occupancy) {
	ser, ok := m.series[s]
	if !ok {
		ser = &series{}
		m.series[s] = ser
	}
	pos := sort.Search(len(ser.items), func(i int) bool {
		return lessOccupancy(o, ser.items[i])
	})
	ser.items = append(ser.items, models.Occupancy{})
	copy(ser.items[pos+1:], ser.items[pos:])
	ser.items[pos] = o
	if d := o.Duration(); d > ser.maxDuration {
		ser.maxDuration = d
	}
}

func slotsOf(o models.Occupancy) []slot {
	slots := []slot{{kind: KindClassroom, id: o.ClassroomID}}
	if o.TeacherID != nil && *o.TeacherID != "" {
		slots = append(slots, slot{kind: KindTeacher, id: *o.TeacherID})
	}
	if o.ClassID != nil && *o.ClassID != "" {
		slots = append(slots, slot{kind: KindClassGroup, id: *o.ClassID})
	}
	return slots
}

type overlay struct {
	layers []Index
}

// Overlay answers queries from every layer, merged and de-duplicated by id.
// Earlier layers win on duplicate ids.
func Overlay(layers ...Index) Index {
	return &overlay{layers: layers}
}

func (o *overlay) Overlapping(ctx context.Context, key ResourceKey, window Interval) ([]models.Occupancy, error) {
	seen := make(map[string]struct{})
	merged := make([]models.Occupancy, 0)
	for _, layer := range o.layers {
		items, err := layer.Overlapping(ctx, key, window)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}
	SortOccupancies(merged)
	return merged, nil
}
