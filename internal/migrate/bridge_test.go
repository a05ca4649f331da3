package migrate

import (
	"context"
	"testing"

	"chaplaincy-data/internal/domain"
	"chaplaincy-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMigrator struct {
	repository.Store // unused methods panic if reached

	targets []repository.MigrationTarget
	oldText string
	newText string
	counts  map[string]int64
	err     error

	merged        [][2]string
	mergeCounts   repository.MergeCounts
	mergeErr      error
	rewrites      []repository.ValueRewrite
	rewriteCounts map[string]int64
	rewriteErr    error
}

func (f *fakeMigrator) MigrateFreeText(ctx context.Context, targets []repository.MigrationTarget, oldText, newText string) (map[string]int64, error) {
	f.targets = targets
	f.oldText = oldText
	f.newText = newText
	return f.counts, f.err
}

func (f *fakeMigrator) MergeGroupRows(ctx context.Context, sourceID, targetID string) (repository.MergeCounts, error) {
	f.merged = append(f.merged, [2]string{sourceID, targetID})
	return f.mergeCounts, f.mergeErr
}

func (f *fakeMigrator) RewriteValues(ctx context.Context, rewrites []repository.ValueRewrite) (map[string]int64, error) {
	f.rewrites = rewrites
	return f.rewriteCounts, f.rewriteErr
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) FullSync(ctx context.Context) (*domain.Snapshot, error) {
	f.calls++
	return &domain.Snapshot{}, f.err
}

func TestOrphansSectorSetDifference(t *testing.T) {
	snap := &domain.Snapshot{
		BibleStudies: []domain.BibleStudy{{Sector: "UTI"}, {Sector: "PEDIATRIA 2º ANDAR"}},
		StaffVisits:  []domain.StaffVisit{{Sector: "  UTI  "}, {Sector: "Ala Antiga"}},
		SmallGroups:  []domain.SmallGroup{{Sector: ""}},
		Sectors:      []domain.Sector{{Name: "UTI"}, {Name: "Pediatria"}},
	}

	orphans := Orphans(snap, KindSector)
	assert.Equal(t, []string{"Ala Antiga", "PEDIATRIA 2º ANDAR"}, orphans)
}

func TestOrphansMatchExactlyNotNormalized(t *testing.T) {
	snap := &domain.Snapshot{
		SmallGroups: []domain.SmallGroup{{GroupName: "pg esperança"}},
		Groups:      []domain.Group{{Name: "PG Esperança"}},
	}
	// case drift is exactly what the operator must see
	assert.Equal(t, []string{"pg esperança"}, Orphans(snap, KindGroup))
}

func TestOrphansGroupIncludesVisitRequests(t *testing.T) {
	snap := &domain.Snapshot{
		VisitRequests: []domain.VisitRequest{{PGName: "PG Betel"}},
		Groups:        []domain.Group{{Name: "PG Esperança"}},
	}
	assert.Equal(t, []string{"PG Betel"}, Orphans(snap, KindGroup))
}

func TestMigrateCascadesSectorRename(t *testing.T) {
	store := &fakeMigrator{counts: map[string]int64{
		"bible_studies": 7, "staff_visits": 2,
	}}
	refresher := &fakeRefresher{}
	b := NewBridge(store, refresher, zap.NewNop())

	summary, err := b.Migrate(context.Background(), KindSector, "PEDIATRIA 2º ANDAR", "Pediatria")
	require.NoError(t, err)

	assert.Equal(t, sectorTargets, store.targets)
	assert.Equal(t, "PEDIATRIA 2º ANDAR", store.oldText)
	assert.Equal(t, "Pediatria", store.newText)
	assert.Contains(t, summary, "9 historical record(s) updated")
	assert.Equal(t, 1, refresher.calls)
}

func TestMigrateGroupTargets(t *testing.T) {
	store := &fakeMigrator{counts: map[string]int64{}}
	b := NewBridge(store, &fakeRefresher{}, zap.NewNop())

	_, err := b.Migrate(context.Background(), KindGroup, "pg esperança", "PG Esperança")
	require.NoError(t, err)
	assert.Equal(t, groupTargets, store.targets)
}

func TestMigrateValidatesArguments(t *testing.T) {
	b := NewBridge(&fakeMigrator{}, &fakeRefresher{}, zap.NewNop())

	_, err := b.Migrate(context.Background(), KindSector, "  ", "Pediatria")
	require.Error(t, err)
	_, err = b.Migrate(context.Background(), KindSector, "Ala Antiga", "")
	require.Error(t, err)
}

func TestMigrateZeroRowsIsNotAnError(t *testing.T) {
	store := &fakeMigrator{counts: map[string]int64{}}
	b := NewBridge(store, &fakeRefresher{}, zap.NewNop())

	summary, err := b.Migrate(context.Background(), KindSector, "Ala Antiga", "Pediatria")
	require.NoError(t, err)
	assert.Contains(t, summary, "0 historical record(s) updated")
}

func TestMigrateSurvivesRefreshFailure(t *testing.T) {
	store := &fakeMigrator{counts: map[string]int64{"small_groups": 1}}
	refresher := &fakeRefresher{err: assert.AnError}
	b := NewBridge(store, refresher, zap.NewNop())

	// the rename committed; a stale cache is not the caller's problem
	_, err := b.Migrate(context.Background(), KindSector, "Ala Antiga", "Pediatria")
	require.NoError(t, err)
}

func TestMergeGroupsCascadesNameWhenDifferent(t *testing.T) {
	store := &fakeMigrator{
		mergeCounts: repository.MergeCounts{MembersMoved: 3, MembersDropped: 1, LocationsMoved: 2},
		counts:      map[string]int64{"small_groups": 4},
	}
	refresher := &fakeRefresher{}
	b := NewBridge(store, refresher, zap.NewNop())

	snap := &domain.Snapshot{Groups: []domain.Group{
		{ID: "101", Name: "PG Betel"},
		{ID: "202", Name: "PG Esperança"},
	}}

	summary, err := b.MergeGroups(context.Background(), snap, "101", "202")
	require.NoError(t, err)

	require.Equal(t, [][2]string{{"101", "202"}}, store.merged)
	assert.Equal(t, groupTargets, store.targets)
	assert.Equal(t, "PG Betel", store.oldText)
	assert.Equal(t, "PG Esperança", store.newText)
	assert.Contains(t, summary, "3 member(s) and 2 location(s) moved")
	assert.Contains(t, summary, "4 historical record(s) renamed")
	assert.Equal(t, 1, refresher.calls)
}

func TestMergeGroupsSkipsRenameWhenNamesMatch(t *testing.T) {
	store := &fakeMigrator{}
	b := NewBridge(store, &fakeRefresher{}, zap.NewNop())

	snap := &domain.Snapshot{Groups: []domain.Group{
		{ID: "101", Name: "PG Betel"},
		{ID: "202", Name: "PG Betel"},
	}}

	_, err := b.MergeGroups(context.Background(), snap, "101", "202")
	require.NoError(t, err)
	assert.Nil(t, store.targets)
}

func TestMergeGroupsValidatesArguments(t *testing.T) {
	b := NewBridge(&fakeMigrator{}, &fakeRefresher{}, zap.NewNop())
	snap := &domain.Snapshot{Groups: []domain.Group{{ID: "101", Name: "PG Betel"}}}

	_, err := b.MergeGroups(context.Background(), snap, "", "101")
	require.Error(t, err)
	_, err = b.MergeGroups(context.Background(), snap, "101", "101")
	require.Error(t, err)
	_, err = b.MergeGroups(context.Background(), snap, "101", "999")
	require.ErrorContains(t, err, "unknown target group")
	_, err = b.MergeGroups(context.Background(), snap, "999", "101")
	require.ErrorContains(t, err, "unknown source group")
}

func TestUnifyIDsRewritesEntityAndReferenceColumns(t *testing.T) {
	store := &fakeMigrator{rewriteCounts: map[string]int64{"pro_staff": 2, "pro_group_members": 1}}
	refresher := &fakeRefresher{}
	b := NewBridge(store, refresher, zap.NewNop())

	snap := &domain.Snapshot{
		Sectors: []domain.Sector{{ID: "407"}},
		Staff:   []domain.Staff{{ID: "HAB-00123"}, {ID: "456"}},
		Groups:  []domain.Group{{ID: "A-45"}},
	}

	summary, err := b.UnifyIDs(context.Background(), snap)
	require.NoError(t, err)

	require.Equal(t, []repository.ValueRewrite{
		{Table: "pro_staff", Column: "id", Old: "HAB-00123", New: "00123"},
		{Table: "pro_group_members", Column: "staff_id", Old: "HAB-00123", New: "00123"},
		{Table: "pro_groups", Column: "id", Old: "A-45", New: "45"},
		{Table: "pro_group_members", Column: "group_id", Old: "A-45", New: "45"},
		{Table: "pro_group_locations", Column: "group_id", Old: "A-45", New: "45"},
	}, store.rewrites)
	assert.Contains(t, summary, "2 id(s) unified across 3 row(s)")
	assert.Equal(t, 1, refresher.calls)
}

func TestUnifyIDsSkipsCollidingCleanedForms(t *testing.T) {
	store := &fakeMigrator{rewriteCounts: map[string]int64{}}
	b := NewBridge(store, &fakeRefresher{}, zap.NewNop())

	// both staff ids clean to 00123, so neither may be rewritten
	snap := &domain.Snapshot{
		Staff:  []domain.Staff{{ID: "HAB-00123"}, {ID: "A-00123"}},
		Groups: []domain.Group{{ID: "HAB-7"}},
	}

	summary, err := b.UnifyIDs(context.Background(), snap)
	require.NoError(t, err)

	require.Equal(t, []repository.ValueRewrite{
		{Table: "pro_groups", Column: "id", Old: "HAB-7", New: "7"},
		{Table: "pro_group_members", Column: "group_id", Old: "HAB-7", New: "7"},
		{Table: "pro_group_locations", Column: "group_id", Old: "HAB-7", New: "7"},
	}, store.rewrites)
	assert.Contains(t, summary, "2 skipped due to collisions")
}

func TestUnifyIDsNoOpWhenAlreadyClean(t *testing.T) {
	store := &fakeMigrator{}
	refresher := &fakeRefresher{}
	b := NewBridge(store, refresher, zap.NewNop())

	snap := &domain.Snapshot{
		Sectors: []domain.Sector{{ID: "407"}},
		Staff:   []domain.Staff{{ID: "00123"}},
	}

	summary, err := b.UnifyIDs(context.Background(), snap)
	require.NoError(t, err)
	assert.Nil(t, store.rewrites)
	assert.Contains(t, summary, "already unified")
	assert.Equal(t, 0, refresher.calls)
}
