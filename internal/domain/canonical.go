package domain

// Canonical entities are the single authoritative records for sectors,
// groups and people, as opposed to the free-text mentions of them inside
// historical activity records. They are only ever created or mutated by
// administrative actions or the contact reconciler; uniqueness is logical
// (normalized name + unit), not a storage constraint.

// Sector is a canonical hospital sector.
type Sector struct {
	ID     string
	Name   string
	Unit   string
	Active bool
}

func SectorFromRecord(rec map[string]any) Sector {
	return Sector{
		ID:     recString(rec, "id"),
		Name:   recString(rec, "name"),
		Unit:   recString(rec, "unit"),
		Active: recActive(rec),
	}
}

func (s Sector) Record() map[string]any {
	return map[string]any{
		"id": s.ID, "name": s.Name, "unit": s.Unit, "active": s.Active,
	}
}

// Staff is a canonical staff member keyed by badge number.
type Staff struct {
	ID       string
	Name     string
	SectorID string
	Unit     string
	Whatsapp string
	Active   bool
}

func StaffFromRecord(rec map[string]any) Staff {
	return Staff{
		ID:       recString(rec, "id"),
		Name:     recString(rec, "name"),
		SectorID: recString(rec, "sectorId"),
		Unit:     recString(rec, "unit"),
		Whatsapp: recString(rec, "whatsapp"),
		Active:   recActive(rec),
	}
}

func (s Staff) Record() map[string]any {
	return map[string]any{
		"id": s.ID, "name": s.Name, "sectorId": s.SectorID,
		"unit": s.Unit, "whatsapp": s.Whatsapp, "active": s.Active,
	}
}

// Patient is a canonical patient contact.
type Patient struct {
	ID         string
	Name       string
	Unit       string
	Whatsapp   string
	LastLesson string
	UpdatedAt  int64
}

func PatientFromRecord(rec map[string]any) Patient {
	return Patient{
		ID:         recString(rec, "id"),
		Name:       recString(rec, "name"),
		Unit:       recString(rec, "unit"),
		Whatsapp:   recString(rec, "whatsapp"),
		LastLesson: recString(rec, "lastLesson"),
		UpdatedAt:  recInt64(rec, "updatedAt"),
	}
}

func (p Patient) Record() map[string]any {
	return map[string]any{
		"id": p.ID, "name": p.Name, "unit": p.Unit,
		"whatsapp": p.Whatsapp, "lastLesson": p.LastLesson, "updatedAt": p.UpdatedAt,
	}
}

// Provider is a canonical external service provider contact.
type Provider struct {
	ID        string
	Name      string
	Unit      string
	Whatsapp  string
	Sector    string
	UpdatedAt int64
}

func ProviderFromRecord(rec map[string]any) Provider {
	return Provider{
		ID:        recString(rec, "id"),
		Name:      recString(rec, "name"),
		Unit:      recString(rec, "unit"),
		Whatsapp:  recString(rec, "whatsapp"),
		Sector:    recString(rec, "sector"),
		UpdatedAt: recInt64(rec, "updatedAt"),
	}
}

func (p Provider) Record() map[string]any {
	return map[string]any{
		"id": p.ID, "name": p.Name, "unit": p.Unit,
		"whatsapp": p.Whatsapp, "sector": p.Sector, "updatedAt": p.UpdatedAt,
	}
}

// Group is a canonical small group (PG).
type Group struct {
	ID            string
	Name          string
	CurrentLeader string
	LeaderPhone   string
	SectorID      string
	Unit          string
	Active        bool
}

func GroupFromRecord(rec map[string]any) Group {
	return Group{
		ID:            recString(rec, "id"),
		Name:          recString(rec, "name"),
		CurrentLeader: recString(rec, "currentLeader"),
		LeaderPhone:   recString(rec, "leaderPhone"),
		SectorID:      recString(rec, "sectorId"),
		Unit:          recString(rec, "unit"),
		Active:        recActive(rec),
	}
}

func (g Group) Record() map[string]any {
	return map[string]any{
		"id": g.ID, "name": g.Name, "currentLeader": g.CurrentLeader,
		"leaderPhone": g.LeaderPhone, "sectorId": g.SectorID,
		"unit": g.Unit, "active": g.Active,
	}
}

// GroupLocation ties a group to its geographic home sector. The model allows
// several rows per group; in practice at most one is active.
type GroupLocation struct {
	ID        string
	GroupID   string
	SectorID  string
	Unit      string
	CreatedAt int64
}

func GroupLocationFromRecord(rec map[string]any) GroupLocation {
	return GroupLocation{
		ID:        recString(rec, "id"),
		GroupID:   recString(rec, "groupId"),
		SectorID:  recString(rec, "sectorId"),
		Unit:      recString(rec, "unit"),
		CreatedAt: recInt64(rec, "createdAt"),
	}
}

// GroupMember enrolls a staff member in a group. Re-enrollment is modelled as
// delete-old + insert-new, never an update.
type GroupMember struct {
	ID       string
	GroupID  string
	StaffID  string
	JoinedAt int64
}

func GroupMemberFromRecord(rec map[string]any) GroupMember {
	return GroupMember{
		ID:       recString(rec, "id"),
		GroupID:  recString(rec, "groupId"),
		StaffID:  recString(rec, "staffId"),
		JoinedAt: recInt64(rec, "joinedAt"),
	}
}
