package sync

import (
	"context"
	"fmt"
	"regexp"
	gosync "sync"

	"chaplaincy-data/internal/domain"
	"chaplaincy-data/internal/repository"
	"chaplaincy-data/internal/schema"

	"go.uber.org/zap"
)

const (
	// maxRows bounds every collection fetch; the store holds a few thousand
	// rows per table at most.
	maxRows = 10000
	// chunkSize bounds one write transaction.
	chunkSize = 100
)

// Publisher announces "the store changed" to every other observer. The
// engine publishes after each successful write; nil disables publishing.
type Publisher interface {
	Publish(ctx context.Context) error
}

// Engine moves data between the remote store and the local cache. All
// mutations go encode → store → unconditional full refresh; the engine never
// patches the cache locally, so local and remote state cannot diverge
// silently. No operation retries on its own: every failure is terminal for
// that call.
type Engine struct {
	store     repository.Store
	registry  *schema.Registry
	cache     *Cache
	publisher Publisher
	logger    *zap.Logger
}

func NewEngine(store repository.Store, registry *schema.Registry, cache *Cache, publisher Publisher, logger *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		registry:  registry,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// Cache exposes the snapshot holder for read-side consumers.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// FullSync fetches every collection in parallel, decodes the rows, inlines
// class attendees into their parent class records, and atomically swaps the
// assembled snapshot into the cache. On any collection failure nothing is
// published and the previous snapshot stays in place.
func (e *Engine) FullSync(ctx context.Context) (*domain.Snapshot, error) {
	names := e.registry.Collections()

	var (
		wg       gosync.WaitGroup
		mu       gosync.Mutex
		firstErr error
	)
	fetched := make(map[string][]schema.Record, len(names))

	for _, name := range names {
		spec, _ := e.registry.Spec(name)
		wg.Add(1)
		go func(name string, spec *schema.Spec) {
			defer wg.Done()
			rows, err := e.store.SelectAll(ctx, spec.Table, maxRows)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("sync %s: %w", name, err)
				}
				return
			}
			decoded := make([]schema.Record, 0, len(rows))
			for _, row := range rows {
				decoded = append(decoded, e.registry.Decode(row))
			}
			fetched[name] = decoded
		}(name, spec)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	snap := assembleSnapshot(fetched)
	if snap.Config != nil && snap.Config.ID != "" {
		e.registry.CacheSingletonID("app_config", snap.Config.ID)
	}
	e.cache.Replace(snap)
	e.logger.Debug("full sync complete",
		zap.Int("sectors", len(snap.Sectors)),
		zap.Int("staff", len(snap.Staff)),
		zap.Int("groups", len(snap.Groups)),
	)
	return snap, nil
}

// Upsert encodes the records (schema validation happens before any network
// call), writes them in chunks of chunkSize, and on success refreshes the
// cache and publishes a change event. The first failing chunk aborts the
// call; chunks already sent are not rolled back. The caller must treat the
// whole operation as failed and the next full sync reveals true state.
func (e *Engine) Upsert(ctx context.Context, collection string, recs ...schema.Record) error {
	if len(recs) == 0 {
		return nil
	}
	spec, ok := e.registry.Spec(collection)
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}

	payloads := make([]schema.Payload, 0, len(recs))
	for _, rec := range recs {
		p, err := e.registry.Encode(ctx, collection, rec)
		if err != nil {
			return err
		}
		payloads = append(payloads, p)
	}

	for i := 0; i < len(payloads); i += chunkSize {
		end := i + chunkSize
		if end > len(payloads) {
			end = len(payloads)
		}
		if err := e.store.UpsertChunk(ctx, spec.Table, payloads[i:end]); err != nil {
			e.logger.Error("chunked upsert failed",
				zap.String("collection", collection),
				zap.Int("chunk_start", i),
				zap.Error(err),
			)
			return err
		}
	}

	if collection == "bibleClasses" {
		if err := e.replaceAttendees(ctx, recs); err != nil {
			return err
		}
	}

	e.refresh(ctx)
	return nil
}

// Delete removes a single row and refreshes, same contract as Upsert.
func (e *Engine) Delete(ctx context.Context, collection, id string) error {
	spec, ok := e.registry.Spec(collection)
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if err := e.store.DeleteRow(ctx, spec.Table, id); err != nil {
		return err
	}
	e.refresh(ctx)
	return nil
}

// refresh reloads the snapshot and announces the change. The write itself
// already succeeded, so a failed refresh is logged, not surfaced; the change
// feed will converge us on the next event.
func (e *Engine) refresh(ctx context.Context) {
	if _, err := e.FullSync(ctx); err != nil {
		e.logger.Warn("post-write refresh failed", zap.Error(err))
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx); err != nil {
			e.logger.Warn("change publish failed", zap.Error(err))
		}
	}
}

// badgeSuffixRe extracts the badge number from names entered as
// "Maria Souza (1234)".
var badgeSuffixRe = regexp.MustCompile(`\((\d+)\)$`)

// replaceAttendees rewrites the attendee child rows of each class wholesale:
// delete by class, reinsert from the inlined student list.
func (e *Engine) replaceAttendees(ctx context.Context, classes []schema.Record) error {
	for _, cls := range classes {
		id, _ := cls["id"].(string)
		students := studentList(cls["students"])
		if id == "" || students == nil {
			continue
		}
		if err := e.store.DeleteWhere(ctx, "bible_class_attendees", "class_id", id); err != nil {
			return fmt.Errorf("clear attendees of class %s: %w", id, err)
		}
		rows := make([]map[string]any, 0, len(students))
		for _, name := range students {
			var staffID any
			if m := badgeSuffixRe.FindStringSubmatch(name); m != nil {
				staffID = m[1]
			}
			rows = append(rows, map[string]any{
				"class_id":     id,
				"student_name": name,
				"staff_id":     staffID,
			})
		}
		if err := e.store.InsertRows(ctx, "bible_class_attendees", rows); err != nil {
			return fmt.Errorf("insert attendees of class %s: %w", id, err)
		}
	}
	return nil
}

func studentList(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// assembleSnapshot binds the decoded collections into the typed snapshot,
// denormalizing attendee rows onto their classes.
func assembleSnapshot(fetched map[string][]schema.Record) *domain.Snapshot {
	snap := &domain.Snapshot{}

	for _, rec := range fetched["users"] {
		snap.Users = append(snap.Users, domain.UserFromRecord(rec))
	}
	for _, rec := range fetched["bibleStudies"] {
		snap.BibleStudies = append(snap.BibleStudies, domain.BibleStudyFromRecord(rec))
	}
	for _, rec := range fetched["smallGroups"] {
		snap.SmallGroups = append(snap.SmallGroups, domain.SmallGroupFromRecord(rec))
	}
	for _, rec := range fetched["staffVisits"] {
		snap.StaffVisits = append(snap.StaffVisits, domain.StaffVisitFromRecord(rec))
	}
	for _, rec := range fetched["visitRequests"] {
		snap.VisitRequests = append(snap.VisitRequests, domain.VisitRequestFromRecord(rec))
	}
	for _, rec := range fetched["proSectors"] {
		snap.Sectors = append(snap.Sectors, domain.SectorFromRecord(rec))
	}
	for _, rec := range fetched["proStaff"] {
		snap.Staff = append(snap.Staff, domain.StaffFromRecord(rec))
	}
	for _, rec := range fetched["proPatients"] {
		snap.Patients = append(snap.Patients, domain.PatientFromRecord(rec))
	}
	for _, rec := range fetched["proProviders"] {
		snap.Providers = append(snap.Providers, domain.ProviderFromRecord(rec))
	}
	for _, rec := range fetched["proGroups"] {
		snap.Groups = append(snap.Groups, domain.GroupFromRecord(rec))
	}
	for _, rec := range fetched["proGroupLocations"] {
		snap.GroupLocations = append(snap.GroupLocations, domain.GroupLocationFromRecord(rec))
	}
	for _, rec := range fetched["proGroupMembers"] {
		snap.GroupMembers = append(snap.GroupMembers, domain.GroupMemberFromRecord(rec))
	}

	// Attendee rows are inlined as a name list on the parent class.
	byClass := make(map[string][]string)
	for _, rec := range fetched["bibleClassAttendees"] {
		classID, _ := rec["classId"].(string)
		name, _ := rec["studentName"].(string)
		if classID != "" && name != "" {
			byClass[classID] = append(byClass[classID], name)
		}
	}
	for _, rec := range fetched["bibleClasses"] {
		cls := domain.BibleClassFromRecord(rec)
		cls.Students = byClass[cls.ID]
		snap.BibleClasses = append(snap.BibleClasses, cls)
	}

	if rows := fetched["config"]; len(rows) > 0 {
		cfg := domain.AppConfigFromRecord(rows[0])
		snap.Config = &cfg
	}

	return snap
}
