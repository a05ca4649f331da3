// Package schema maps in-process records onto the remote relational layout.
//
// Every collection carries an explicit allow-list of storage fields plus the
// coercion flags the historical store expects. Encoding is the only path a
// write may take to the store; anything not declared here is dropped before
// it reaches the wire.
package schema

import (
	"context"
	"fmt"
	"sync"
)

// Record is an in-process row keyed by camelCase field names.
type Record = map[string]any

// Payload is a storage row keyed by snake_case column names.
type Payload = map[string]any

// FKFormat selects the identifier format a foreign-key field is validated
// against during encoding.
type FKFormat int

const (
	// FKAny performs no format validation (empty values still become NULL).
	FKAny FKFormat = iota
	// FKUUID requires a canonical UUID; handling of malformed values depends
	// on the collection's Strict flag.
	FKUUID
	// FKNumeric requires a digits-only identifier (cleaned badge numbers).
	FKNumeric
)

// Field declares one allow-listed storage column.
type Field struct {
	Name     string // snake_case column name
	Numeric  bool   // integer-coerced on encode
	Foreign  bool   // relational reference: empty string becomes NULL
	Required bool   // record fails encoding if the field is absent afterwards
}

// Spec declares one collection's storage contract.
type Spec struct {
	Collection string // in-process name ("bibleStudies")
	Table      string // storage table ("bible_studies")
	Fields     []Field
	FKFormat   FKFormat
	Strict     bool // malformed FK rejects the record instead of nulling it
	Singleton  bool // single-row table, writes always update the existing row
}

func (s *Spec) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SingletonResolver looks up the identifier of a singleton collection's only
// row. Returns "" when the table is still empty.
type SingletonResolver func(ctx context.Context, table string) (string, error)

// Registry holds every collection spec plus the cached singleton row ids.
type Registry struct {
	specs    map[string]*Spec
	byTable  map[string]*Spec
	resolver SingletonResolver

	mu           sync.Mutex
	singletonIDs map[string]string
}

// NewRegistry builds the registry over the fixed collection set. resolver may
// be nil when no singleton writes are expected (tests, read-only tooling).
func NewRegistry(resolver SingletonResolver) *Registry {
	r := &Registry{
		specs:        make(map[string]*Spec, len(collections)),
		byTable:      make(map[string]*Spec, len(collections)),
		resolver:     resolver,
		singletonIDs: make(map[string]string),
	}
	for i := range collections {
		s := &collections[i]
		r.specs[s.Collection] = s
		r.byTable[s.Table] = s
	}
	return r
}

// Spec returns the spec for an in-process collection name.
func (r *Registry) Spec(collection string) (*Spec, bool) {
	s, ok := r.specs[collection]
	return s, ok
}

// Collections lists every in-process collection name.
func (r *Registry) Collections() []string {
	out := make([]string, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	return out
}

// CacheSingletonID stores a known singleton row id so later encodes skip the
// lookup. The full sync calls this when it sees the config row.
func (r *Registry) CacheSingletonID(table, id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	r.singletonIDs[table] = id
	r.mu.Unlock()
}

func (r *Registry) singletonID(ctx context.Context, table string) (string, error) {
	r.mu.Lock()
	id, ok := r.singletonIDs[table]
	r.mu.Unlock()
	if ok {
		return id, nil
	}
	if r.resolver == nil {
		return "", nil
	}
	id, err := r.resolver(ctx, table)
	if err != nil {
		return "", fmt.Errorf("resolve singleton id for %s: %w", table, err)
	}
	if id != "" {
		r.CacheSingletonID(table, id)
	}
	return id, nil
}

// collections is the declarative storage contract. Field lists mirror the
// historical store layout column for column; timestamps are epoch millis and
// therefore numeric.
var collections = []Spec{
	{
		Collection: "users", Table: "users",
		Fields: []Field{
			{Name: "id"}, {Name: "name"}, {Name: "email"}, {Name: "password"},
			{Name: "role"}, {Name: "profile_pic"}, {Name: "unit"},
			{Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "bibleStudies", Table: "bible_studies",
		FKFormat: FKUUID,
		Fields: []Field{
			{Name: "id"}, {Name: "user_id", Foreign: true}, {Name: "date"},
			{Name: "unit"}, {Name: "sector"}, {Name: "name"}, {Name: "whatsapp"},
			{Name: "status"}, {Name: "participant_type"}, {Name: "guide"},
			{Name: "lesson"}, {Name: "observations"},
			{Name: "created_at", Numeric: true}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "bibleClasses", Table: "bible_classes",
		FKFormat: FKUUID,
		Fields: []Field{
			{Name: "id"}, {Name: "user_id", Foreign: true}, {Name: "date"},
			{Name: "unit"}, {Name: "sector"}, {Name: "status"},
			{Name: "participant_type"}, {Name: "guide"}, {Name: "lesson"},
			{Name: "observations"},
			{Name: "created_at", Numeric: true}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "bibleClassAttendees", Table: "bible_class_attendees",
		Fields: []Field{
			{Name: "id"}, {Name: "class_id", Foreign: true},
			{Name: "student_name"}, {Name: "staff_id", Foreign: true},
			{Name: "created_at", Numeric: true},
		},
	},
	{
		Collection: "smallGroups", Table: "small_groups",
		FKFormat: FKUUID,
		Fields: []Field{
			{Name: "id"}, {Name: "user_id", Foreign: true}, {Name: "date"},
			{Name: "unit"}, {Name: "sector"}, {Name: "group_name"},
			{Name: "leader"}, {Name: "leader_phone"}, {Name: "shift"},
			{Name: "participants_count", Numeric: true, Required: true},
			{Name: "observations"},
			{Name: "created_at", Numeric: true}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "staffVisits", Table: "staff_visits",
		FKFormat: FKUUID,
		Fields: []Field{
			{Name: "id"}, {Name: "user_id", Foreign: true}, {Name: "date"},
			{Name: "unit"}, {Name: "sector"}, {Name: "reason"},
			{Name: "staff_name"}, {Name: "requires_return"}, {Name: "return_date"},
			{Name: "return_completed"}, {Name: "observations"},
			{Name: "created_at", Numeric: true}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "visitRequests", Table: "visit_requests",
		Fields: []Field{
			{Name: "id"}, {Name: "pg_name"}, {Name: "leader_name"},
			{Name: "leader_phone"}, {Name: "unit"}, {Name: "date"},
			{Name: "status"}, {Name: "request_notes"},
			{Name: "preferred_chaplain_id", Foreign: true},
			{Name: "assigned_chaplain_id", Foreign: true},
			{Name: "chaplain_response"}, {Name: "is_read"},
			{Name: "created_at", Numeric: true}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "config", Table: "app_config",
		Singleton: true,
		Fields: []Field{
			{Name: "id"}, {Name: "mural_text"},
			{Name: "header_line1"}, {Name: "header_line2"}, {Name: "header_line3"},
			{Name: "font_size1", Numeric: true}, {Name: "font_size2", Numeric: true},
			{Name: "font_size3", Numeric: true},
			{Name: "report_logo_width", Numeric: true},
			{Name: "report_logo_x", Numeric: true}, {Name: "report_logo_y", Numeric: true},
			{Name: "header_line1_x", Numeric: true}, {Name: "header_line1_y", Numeric: true},
			{Name: "header_line2_x", Numeric: true}, {Name: "header_line2_y", Numeric: true},
			{Name: "header_line3_x", Numeric: true}, {Name: "header_line3_y", Numeric: true},
			{Name: "header_padding_top", Numeric: true},
			{Name: "header_text_align"}, {Name: "primary_color"},
			{Name: "app_logo_url"}, {Name: "report_logo_url"},
			{Name: "last_modified_by"},
			{Name: "last_modified_at", Numeric: true}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "proSectors", Table: "pro_sectors",
		Fields: []Field{
			{Name: "id"}, {Name: "name"}, {Name: "unit"}, {Name: "active"},
		},
	},
	{
		Collection: "proStaff", Table: "pro_staff",
		FKFormat: FKNumeric,
		Fields: []Field{
			{Name: "id"}, {Name: "name"}, {Name: "sector_id", Foreign: true},
			{Name: "unit"}, {Name: "whatsapp"}, {Name: "active"},
		},
	},
	{
		Collection: "proPatients", Table: "pro_patients",
		Fields: []Field{
			{Name: "id"}, {Name: "name"}, {Name: "unit"}, {Name: "whatsapp"},
			{Name: "last_lesson"}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "proProviders", Table: "pro_providers",
		Fields: []Field{
			{Name: "id"}, {Name: "name"}, {Name: "unit"}, {Name: "whatsapp"},
			{Name: "sector"}, {Name: "updated_at", Numeric: true},
		},
	},
	{
		Collection: "proGroups", Table: "pro_groups",
		FKFormat: FKNumeric,
		Fields: []Field{
			{Name: "id"}, {Name: "name"}, {Name: "current_leader"},
			{Name: "leader_phone"}, {Name: "sector_id", Foreign: true},
			{Name: "unit"}, {Name: "active"},
		},
	},
	{
		Collection: "proGroupLocations", Table: "pro_group_locations",
		FKFormat: FKNumeric, Strict: true,
		Fields: []Field{
			{Name: "id"},
			{Name: "group_id", Foreign: true, Required: true},
			{Name: "sector_id", Foreign: true, Required: true},
			{Name: "unit"},
			{Name: "created_at", Numeric: true},
		},
	},
	{
		Collection: "proGroupMembers", Table: "pro_group_members",
		FKFormat: FKNumeric, Strict: true,
		Fields: []Field{
			{Name: "id"},
			{Name: "group_id", Foreign: true, Required: true},
			{Name: "staff_id", Foreign: true, Required: true},
			{Name: "joined_at", Numeric: true},
		},
	},
}
