// Package migrate surfaces and resolves orphans: free-text sector/group
// values sitting in historical records with no exact-match canonical entity.
package migrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chaplaincy-data/internal/domain"
	"chaplaincy-data/internal/normalize"
	"chaplaincy-data/internal/repository"

	"go.uber.org/zap"
)

// Kind selects which free-text namespace is being reconciled.
type Kind string

const (
	KindSector Kind = "sector"
	KindGroup  Kind = "group"
)

// sectorTargets and groupTargets enumerate every historical column a rename
// must cascade through.
var (
	sectorTargets = []repository.MigrationTarget{
		{Table: "bible_studies", Column: "sector"},
		{Table: "bible_classes", Column: "sector"},
		{Table: "small_groups", Column: "sector"},
		{Table: "staff_visits", Column: "sector"},
	}
	groupTargets = []repository.MigrationTarget{
		{Table: "small_groups", Column: "group_name"},
		{Table: "visit_requests", Column: "pg_name"},
	}
)

// Refresher is the slice of the sync engine the bridge needs after a
// successful rename.
type Refresher interface {
	FullSync(ctx context.Context) (*domain.Snapshot, error)
}

// Bridge resolves orphaned free-text values by remapping them onto
// canonical entities, cascading the rename across all historical records.
type Bridge struct {
	store     repository.Store
	refresher Refresher
	logger    *zap.Logger
}

func NewBridge(store repository.Store, refresher Refresher, logger *zap.Logger) *Bridge {
	return &Bridge{store: store, refresher: refresher, logger: logger}
}

// Orphans returns every distinct free-text value of the kind observed in
// historical records that has no exact-match canonical display name, sorted.
// Matching is deliberately exact, not normalized: display-name drift is
// precisely what is being surfaced here.
func Orphans(snap *domain.Snapshot, kind Kind) []string {
	observed := make(map[string]bool)
	canonical := make(map[string]bool)

	switch kind {
	case KindSector:
		for _, r := range snap.BibleStudies {
			addTrimmed(observed, r.Sector)
		}
		for _, r := range snap.BibleClasses {
			addTrimmed(observed, r.Sector)
		}
		for _, r := range snap.SmallGroups {
			addTrimmed(observed, r.Sector)
		}
		for _, r := range snap.StaffVisits {
			addTrimmed(observed, r.Sector)
		}
		for _, s := range snap.Sectors {
			addTrimmed(canonical, s.Name)
		}
	case KindGroup:
		for _, r := range snap.SmallGroups {
			addTrimmed(observed, r.GroupName)
		}
		for _, r := range snap.VisitRequests {
			addTrimmed(observed, r.PGName)
		}
		for _, g := range snap.Groups {
			addTrimmed(canonical, g.Name)
		}
	}

	out := make([]string, 0, len(observed))
	for v := range observed {
		if !canonical[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func addTrimmed(set map[string]bool, s string) {
	s = strings.TrimSpace(s)
	if s != "" {
		set[s] = true
	}
}

// Migrate rewrites every historical record whose free-text field equals
// oldText to newName, atomically on the server side, then refreshes the
// cache so the orphan disappears from subsequent Orphans calls. Re-running
// after success matches zero rows and is not an error.
func (b *Bridge) Migrate(ctx context.Context, kind Kind, oldText, newName string) (string, error) {
	if strings.TrimSpace(oldText) == "" || strings.TrimSpace(newName) == "" {
		return "", fmt.Errorf("both the historical value and the canonical name are required")
	}

	var targets []repository.MigrationTarget
	switch kind {
	case KindSector:
		targets = sectorTargets
	case KindGroup:
		targets = groupTargets
	default:
		return "", fmt.Errorf("unknown migration kind %q", kind)
	}

	counts, err := b.store.MigrateFreeText(ctx, targets, oldText, newName)
	if err != nil {
		return "", err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	if _, err := b.refresher.FullSync(ctx); err != nil {
		// The rename is already committed; a stale cache here self-heals on
		// the next change-feed event.
		b.logger.Warn("cache refresh after migration failed", zap.Error(err))
	}

	return fmt.Sprintf("%q -> %q: %d historical record(s) updated", oldText, newName, total), nil
}

// MergeGroups folds the source canonical group into the target: memberships
// and location links move to the target, duplicates are dropped, the source
// group is deleted. When the display names differ the source name is also
// cascaded through historical records so no new orphan appears.
func (b *Bridge) MergeGroups(ctx context.Context, snap *domain.Snapshot, sourceID, targetID string) (string, error) {
	sourceID = strings.TrimSpace(sourceID)
	targetID = strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return "", fmt.Errorf("both the source and target group ids are required")
	}
	if sourceID == targetID {
		return "", fmt.Errorf("a group cannot be merged into itself")
	}

	source, ok := findGroup(snap, sourceID)
	if !ok {
		return "", fmt.Errorf("unknown source group %q", sourceID)
	}
	target, ok := findGroup(snap, targetID)
	if !ok {
		return "", fmt.Errorf("unknown target group %q", targetID)
	}

	counts, err := b.store.MergeGroupRows(ctx, sourceID, targetID)
	if err != nil {
		return "", err
	}

	var renamed int64
	if source.Name != target.Name {
		renameCounts, err := b.store.MigrateFreeText(ctx, groupTargets, source.Name, target.Name)
		if err != nil {
			// The row merge is already committed; report what remains.
			return "", fmt.Errorf("group rows merged but historical rename failed: %w", err)
		}
		for _, n := range renameCounts {
			renamed += n
		}
	}

	if _, err := b.refresher.FullSync(ctx); err != nil {
		b.logger.Warn("cache refresh after group merge failed", zap.Error(err))
	}

	return fmt.Sprintf("%q merged into %q: %d member(s) and %d location(s) moved, %d duplicate(s) dropped, %d historical record(s) renamed",
		source.Name, target.Name,
		counts.MembersMoved, counts.LocationsMoved,
		counts.MembersDropped+counts.LocationsDropped,
		renamed), nil
}

func findGroup(snap *domain.Snapshot, id string) (domain.Group, bool) {
	for _, g := range snap.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return domain.Group{}, false
}

// UnifyIDs normalizes every canonical entity id to its cleaned numeric form
// and rewrites all referencing columns in one transaction. Cleaned ids that
// two or more entities would share are skipped rather than silently merged.
func (b *Bridge) UnifyIDs(ctx context.Context, snap *domain.Snapshot) (string, error) {
	sectorIDs := make([]string, 0, len(snap.Sectors))
	for _, s := range snap.Sectors {
		sectorIDs = append(sectorIDs, s.ID)
	}
	staffIDs := make([]string, 0, len(snap.Staff))
	for _, s := range snap.Staff {
		staffIDs = append(staffIDs, s.ID)
	}
	groupIDs := make([]string, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		groupIDs = append(groupIDs, g.ID)
	}

	sectorMap, sectorSkipped := cleanIDMap(sectorIDs)
	staffMap, staffSkipped := cleanIDMap(staffIDs)
	groupMap, groupSkipped := cleanIDMap(groupIDs)
	skipped := sectorSkipped + staffSkipped + groupSkipped

	var rewrites []repository.ValueRewrite
	appendRewrites := func(m map[string]string, targets []repository.MigrationTarget) {
		olds := make([]string, 0, len(m))
		for old := range m {
			olds = append(olds, old)
		}
		sort.Strings(olds)
		for _, old := range olds {
			for _, t := range targets {
				rewrites = append(rewrites, repository.ValueRewrite{
					Table: t.Table, Column: t.Column, Old: old, New: m[old],
				})
			}
		}
	}
	appendRewrites(sectorMap, []repository.MigrationTarget{
		{Table: "pro_sectors", Column: "id"},
		{Table: "pro_staff", Column: "sector_id"},
		{Table: "pro_groups", Column: "sector_id"},
		{Table: "pro_group_locations", Column: "sector_id"},
	})
	appendRewrites(staffMap, []repository.MigrationTarget{
		{Table: "pro_staff", Column: "id"},
		{Table: "pro_group_members", Column: "staff_id"},
	})
	appendRewrites(groupMap, []repository.MigrationTarget{
		{Table: "pro_groups", Column: "id"},
		{Table: "pro_group_members", Column: "group_id"},
		{Table: "pro_group_locations", Column: "group_id"},
	})

	if len(rewrites) == 0 {
		return fmt.Sprintf("all ids already unified, %d skipped due to collisions", skipped), nil
	}

	counts, err := b.store.RewriteValues(ctx, rewrites)
	if err != nil {
		return "", err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	if _, err := b.refresher.FullSync(ctx); err != nil {
		b.logger.Warn("cache refresh after id unification failed", zap.Error(err))
	}

	unified := len(sectorMap) + len(staffMap) + len(groupMap)
	return fmt.Sprintf("%d id(s) unified across %d row(s), %d skipped due to collisions", unified, total, skipped), nil
}

// cleanIDMap maps each id onto its cleaned numeric form. Ids already clean
// are omitted; a cleaned form claimed by more than one id is ambiguous, so
// those ids are skipped and counted instead of remapped.
func cleanIDMap(ids []string) (map[string]string, int) {
	byClean := make(map[string][]string)
	for _, id := range ids {
		clean := normalize.NumericID(id)
		if clean == "" {
			continue
		}
		byClean[clean] = append(byClean[clean], id)
	}

	out := make(map[string]string)
	skipped := 0
	for clean, olds := range byClean {
		if len(olds) > 1 {
			skipped += len(olds)
			continue
		}
		if olds[0] != clean {
			out[olds[0]] = clean
		}
	}
	return out, skipped
}
