package ingest

import (
	"time"

	"chaplaincy-data/internal/domain"
	"chaplaincy-data/internal/normalize"
	"chaplaincy-data/internal/schema"
)

// Stats summarizes a confirmed merge for the operator.
type Stats struct {
	New         int
	Updated     int
	Deactivated int
}

// Merge semantics, shared by all three kinds: every incoming row updates or
// creates its canonical entity; every canonical entity absent from the
// incoming set is marked inactive, never deleted, so history and audit keep
// their references. The returned records are the full entity set to upsert.

// MergeSectors applies a sector sheet against the current canonical set.
func MergeSectors(existing []domain.Sector, incoming []Row, unit string) ([]schema.Record, Stats) {
	return mergeEntities(len(existing), incoming,
		func(i int) (string, schema.Record, bool) {
			e := existing[i]
			return normalize.NumericID(e.ID), e.Record(), e.Active
		},
		func(row Row, current schema.Record) schema.Record {
			if current == nil {
				return domain.Sector{ID: row.ID, Name: row.Name, Unit: unit, Active: true}.Record()
			}
			current["name"] = row.Name
			current["active"] = true
			return current
		})
}

// MergeStaff applies a staff sheet. Resolved sectors overwrite the stored
// link; unresolved rows keep whatever link the entity already had.
func MergeStaff(existing []domain.Staff, incoming []Row, unit string) ([]schema.Record, Stats) {
	return mergeEntities(len(existing), incoming,
		func(i int) (string, schema.Record, bool) {
			e := existing[i]
			return normalize.NumericID(e.ID), e.Record(), e.Active
		},
		func(row Row, current schema.Record) schema.Record {
			if current == nil {
				return domain.Staff{
					ID: row.ID, Name: row.Name, Unit: unit,
					SectorID: row.SectorID, Active: true,
				}.Record()
			}
			current["name"] = row.Name
			current["active"] = true
			if row.SectorResolved {
				current["sectorId"] = row.SectorID
			}
			return current
		})
}

// MergeGroups applies a group sheet.
func MergeGroups(existing []domain.Group, incoming []Row, unit string) ([]schema.Record, Stats) {
	return mergeEntities(len(existing), incoming,
		func(i int) (string, schema.Record, bool) {
			e := existing[i]
			return normalize.NumericID(e.ID), e.Record(), e.Active
		},
		func(row Row, current schema.Record) schema.Record {
			if current == nil {
				return domain.Group{ID: row.ID, Name: row.Name, Unit: unit, Active: true}.Record()
			}
			current["name"] = row.Name
			current["active"] = true
			return current
		})
}

func mergeEntities(
	existingLen int,
	incoming []Row,
	at func(i int) (key string, rec schema.Record, active bool),
	apply func(row Row, current schema.Record) schema.Record,
) ([]schema.Record, Stats) {
	var stats Stats
	stamp := time.Now().UnixMilli()

	byKey := make(map[string]schema.Record, existingLen)
	wasActive := make(map[string]bool, existingLen)
	order := make([]string, 0, existingLen+len(incoming))
	for i := 0; i < existingLen; i++ {
		key, rec, active := at(i)
		byKey[key] = rec
		wasActive[key] = active
		order = append(order, key)
	}

	incomingKeys := make(map[string]bool, len(incoming))
	for _, row := range incoming {
		incomingKeys[row.ID] = true
		current, ok := byKey[row.ID]
		if ok {
			byKey[row.ID] = apply(row, current)
			byKey[row.ID]["updatedAt"] = stamp
			stats.Updated++
		} else {
			rec := apply(row, nil)
			rec["updatedAt"] = stamp
			byKey[row.ID] = rec
			order = append(order, row.ID)
			stats.New++
		}
	}

	out := make([]schema.Record, 0, len(order))
	for _, key := range order {
		rec := byKey[key]
		if !incomingKeys[key] {
			if wasActive[key] {
				rec["active"] = false
				rec["updatedAt"] = stamp
				stats.Deactivated++
			}
		}
		out = append(out, rec)
	}
	return out, stats
}
