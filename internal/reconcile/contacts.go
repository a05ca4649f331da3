// Package reconcile keeps canonical contact records in step with the
// details chaplains type into day-to-day activity forms, without an explicit
// "edit contact" step.
package reconcile

import (
	"context"
	"time"

	"chaplaincy-data/internal/domain"
	"chaplaincy-data/internal/normalize"
	"chaplaincy-data/internal/schema"
	syncengine "chaplaincy-data/internal/sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind selects which canonical contact set a name reconciles against.
type Kind string

const (
	KindStaff    Kind = "staff"
	KindPatient  Kind = "patient"
	KindProvider Kind = "provider"
)

// Writer is the slice of the sync engine the reconciler needs.
type Writer interface {
	Upsert(ctx context.Context, collection string, recs ...schema.Record) error
}

// Reconciler opportunistically updates canonical Staff/Patient/Provider
// records from activity form input. It is strictly best-effort: every
// failure is logged and swallowed so the caller's primary record save is
// never blocked by contact bookkeeping.
type Reconciler struct {
	writer Writer
	cache  *syncengine.Cache
	logger *zap.Logger
	now    func() int64
}

func NewReconciler(writer Writer, cache *syncengine.Cache, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		writer: writer,
		cache:  cache,
		logger: logger,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// SyncContact reconciles one observed contact. name matches by normalized
// key within kind+unit; phone is digits-only and only overwrites when it has
// at least 8 digits and differs from the stored value. locationHint carries
// the sector observed on the form (a canonical sector name for staff, free
// text for providers). Non-empty stored fields are never cleared by empty
// input.
func (r *Reconciler) SyncContact(ctx context.Context, name, phone, unit string, kind Kind, locationHint string) {
	if name == "" {
		return
	}
	snap := r.cache.Snapshot()
	if snap == nil {
		return
	}
	cleanPhone := normalize.Digits(phone)
	key := normalize.Key(name)

	switch kind {
	case KindStaff:
		r.syncStaff(ctx, snap, key, cleanPhone, unit, locationHint)
	case KindPatient:
		r.syncPatient(ctx, snap, name, key, cleanPhone, unit)
	case KindProvider:
		r.syncProvider(ctx, snap, name, key, cleanPhone, unit, locationHint)
	}
}

// syncStaff updates only; reconciliation never creates staff, the badge
// import owns that set.
func (r *Reconciler) syncStaff(ctx context.Context, snap *domain.Snapshot, key, phone, unit, sectorName string) {
	var staff *domain.Staff
	for i := range snap.Staff {
		s := &snap.Staff[i]
		if s.Active && s.Unit == unit && normalize.Key(s.Name) == key {
			staff = s
			break
		}
	}
	if staff == nil {
		return
	}

	updated := *staff
	changed := false
	if len(phone) >= 8 && phone != staff.Whatsapp {
		updated.Whatsapp = phone
		changed = true
	}
	if sectorName != "" {
		for _, sec := range snap.ActiveSectors() {
			if sec.Name == sectorName && sec.Unit == unit && staff.SectorID != sec.ID {
				updated.SectorID = sec.ID
				changed = true
				break
			}
		}
	}
	if !changed {
		return
	}
	r.save(ctx, "proStaff", updated.Record(), updated.Name)
}

func (r *Reconciler) syncPatient(ctx context.Context, snap *domain.Snapshot, name, key, phone, unit string) {
	var patient *domain.Patient
	for i := range snap.Patients {
		p := &snap.Patients[i]
		if p.Unit == unit && normalize.Key(p.Name) == key {
			patient = p
			break
		}
	}
	if patient == nil {
		rec := domain.Patient{
			ID:        uuid.NewString(),
			Name:      name,
			Unit:      unit,
			Whatsapp:  phone,
			UpdatedAt: r.now(),
		}
		r.save(ctx, "proPatients", rec.Record(), name)
		return
	}
	if phone == "" || phone == patient.Whatsapp {
		return
	}
	updated := *patient
	updated.Whatsapp = phone
	updated.UpdatedAt = r.now()
	r.save(ctx, "proPatients", updated.Record(), name)
}

func (r *Reconciler) syncProvider(ctx context.Context, snap *domain.Snapshot, name, key, phone, unit, sector string) {
	var provider *domain.Provider
	for i := range snap.Providers {
		p := &snap.Providers[i]
		if p.Unit == unit && normalize.Key(p.Name) == key {
			provider = p
			break
		}
	}
	if provider == nil {
		rec := domain.Provider{
			ID:        uuid.NewString(),
			Name:      name,
			Unit:      unit,
			Whatsapp:  phone,
			Sector:    sector,
			UpdatedAt: r.now(),
		}
		r.save(ctx, "proProviders", rec.Record(), name)
		return
	}

	phoneChanged := phone != "" && phone != provider.Whatsapp
	sectorChanged := sector != "" && sector != provider.Sector
	if !phoneChanged && !sectorChanged {
		return
	}
	updated := *provider
	if phoneChanged {
		updated.Whatsapp = phone
	}
	if sectorChanged {
		updated.Sector = sector
	}
	updated.UpdatedAt = r.now()
	r.save(ctx, "proProviders", updated.Record(), name)
}

func (r *Reconciler) save(ctx context.Context, collection string, rec schema.Record, name string) {
	if err := r.writer.Upsert(ctx, collection, rec); err != nil {
		// Best effort: the activity record the chaplain is saving must not
		// fail because contact bookkeeping did.
		r.logger.Warn("contact reconciliation skipped",
			zap.String("collection", collection),
			zap.String("name", name),
			zap.Error(err),
		)
	}
}
