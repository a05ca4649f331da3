package domain

// Snapshot is one complete, consistent view of every collection in the
// remote store. Snapshots are immutable once published: the sync engine
// builds a fresh one and swaps it wholesale, never patches one in place.
type Snapshot struct {
	Users         []User
	BibleStudies  []BibleStudy
	BibleClasses  []BibleClass
	SmallGroups   []SmallGroup
	StaffVisits   []StaffVisit
	VisitRequests []VisitRequest
	Config        *AppConfig

	Sectors        []Sector
	Staff          []Staff
	Patients       []Patient
	Providers      []Provider
	Groups         []Group
	GroupLocations []GroupLocation
	GroupMembers   []GroupMember
}

// ActiveSectors filters out deactivated sectors; option lists and
// reconciliation only ever see active entities.
func (s *Snapshot) ActiveSectors() []Sector {
	out := make([]Sector, 0, len(s.Sectors))
	for _, sec := range s.Sectors {
		if sec.Active {
			out = append(out, sec)
		}
	}
	return out
}

// ActiveStaff filters out deactivated staff.
func (s *Snapshot) ActiveStaff() []Staff {
	out := make([]Staff, 0, len(s.Staff))
	for _, st := range s.Staff {
		if st.Active {
			out = append(out, st)
		}
	}
	return out
}

// ActiveGroups filters out deactivated groups.
func (s *Snapshot) ActiveGroups() []Group {
	out := make([]Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		if g.Active {
			out = append(out, g)
		}
	}
	return out
}
