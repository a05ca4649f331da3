package domain

// Historical activity records carry the sector/group/person as free text
// captured at entry time, not as a foreign key. That text drifts from the
// canonical names over the years; the migration bridge exists to close the
// gap.

// BibleStudy is a one-on-one study session record.
type BibleStudy struct {
	ID              string
	UserID          string
	Date            string
	Unit            string
	Sector          string
	Name            string
	Whatsapp        string
	Status          string
	ParticipantType string
	Guide           string
	Lesson          string
	Observations    string
}

func BibleStudyFromRecord(rec map[string]any) BibleStudy {
	return BibleStudy{
		ID:              recString(rec, "id"),
		UserID:          recString(rec, "userId"),
		Date:            recString(rec, "date"),
		Unit:            recString(rec, "unit"),
		Sector:          recString(rec, "sector"),
		Name:            recString(rec, "name"),
		Whatsapp:        recString(rec, "whatsapp"),
		Status:          recString(rec, "status"),
		ParticipantType: recString(rec, "participantType"),
		Guide:           recString(rec, "guide"),
		Lesson:          recString(rec, "lesson"),
		Observations:    recString(rec, "observations"),
	}
}

// BibleClass is a class session; Students is denormalized from the attendee
// rows during full sync.
type BibleClass struct {
	ID              string
	UserID          string
	Date            string
	Unit            string
	Sector          string
	Status          string
	ParticipantType string
	Guide           string
	Lesson          string
	Observations    string
	Students        []string
}

func BibleClassFromRecord(rec map[string]any) BibleClass {
	return BibleClass{
		ID:              recString(rec, "id"),
		UserID:          recString(rec, "userId"),
		Date:            recString(rec, "date"),
		Unit:            recString(rec, "unit"),
		Sector:          recString(rec, "sector"),
		Status:          recString(rec, "status"),
		ParticipantType: recString(rec, "participantType"),
		Guide:           recString(rec, "guide"),
		Lesson:          recString(rec, "lesson"),
		Observations:    recString(rec, "observations"),
		Students:        recStrings(rec, "students"),
	}
}

// SmallGroup is a small-group (PG) session record.
type SmallGroup struct {
	ID                string
	UserID            string
	Date              string
	Unit              string
	Sector            string
	GroupName         string
	Leader            string
	LeaderPhone       string
	Shift             string
	ParticipantsCount int64
	Observations      string
}

func SmallGroupFromRecord(rec map[string]any) SmallGroup {
	return SmallGroup{
		ID:                recString(rec, "id"),
		UserID:            recString(rec, "userId"),
		Date:              recString(rec, "date"),
		Unit:              recString(rec, "unit"),
		Sector:            recString(rec, "sector"),
		GroupName:         recString(rec, "groupName"),
		Leader:            recString(rec, "leader"),
		LeaderPhone:       recString(rec, "leaderPhone"),
		Shift:             recString(rec, "shift"),
		ParticipantsCount: recInt64(rec, "participantsCount"),
		Observations:      recString(rec, "observations"),
	}
}

// StaffVisit is a staff visit record.
type StaffVisit struct {
	ID              string
	UserID          string
	Date            string
	Unit            string
	Sector          string
	Reason          string
	StaffName       string
	RequiresReturn  bool
	ReturnDate      string
	ReturnCompleted bool
	Observations    string
}

func StaffVisitFromRecord(rec map[string]any) StaffVisit {
	return StaffVisit{
		ID:              recString(rec, "id"),
		UserID:          recString(rec, "userId"),
		Date:            recString(rec, "date"),
		Unit:            recString(rec, "unit"),
		Sector:          recString(rec, "sector"),
		Reason:          recString(rec, "reason"),
		StaffName:       recString(rec, "staffName"),
		RequiresReturn:  recBool(rec, "requiresReturn"),
		ReturnDate:      recString(rec, "returnDate"),
		ReturnCompleted: recBool(rec, "returnCompleted"),
		Observations:    recString(rec, "observations"),
	}
}

// VisitRequest is an inbound chaplain visit request from a group leader.
type VisitRequest struct {
	ID                  string
	PGName              string
	LeaderName          string
	LeaderPhone         string
	Unit                string
	Date                string
	Status              string
	RequestNotes        string
	PreferredChaplainID string
	AssignedChaplainID  string
	ChaplainResponse    string
	IsRead              bool
}

func VisitRequestFromRecord(rec map[string]any) VisitRequest {
	return VisitRequest{
		ID:                  recString(rec, "id"),
		PGName:              recString(rec, "pgName"),
		LeaderName:          recString(rec, "leaderName"),
		LeaderPhone:         recString(rec, "leaderPhone"),
		Unit:                recString(rec, "unit"),
		Date:                recString(rec, "date"),
		Status:              recString(rec, "status"),
		RequestNotes:        recString(rec, "requestNotes"),
		PreferredChaplainID: recString(rec, "preferredChaplainId"),
		AssignedChaplainID:  recString(rec, "assignedChaplainId"),
		ChaplainResponse:    recString(rec, "chaplainResponse"),
		IsRead:              recBool(rec, "isRead"),
	}
}

// User is an application operator (chaplain or admin).
type User struct {
	ID   string
	Name string
	Role string
	Unit string
}

func UserFromRecord(rec map[string]any) User {
	return User{
		ID:   recString(rec, "id"),
		Name: recString(rec, "name"),
		Role: recString(rec, "role"),
		Unit: recString(rec, "unit"),
	}
}

// AppConfig is the singleton configuration row (mural text plus report
// header layout).
type AppConfig struct {
	ID             string
	MuralText      string
	HeaderLine1    string
	HeaderLine2    string
	HeaderLine3    string
	PrimaryColor   string
	LastModifiedBy string
	LastModifiedAt int64
}

func AppConfigFromRecord(rec map[string]any) AppConfig {
	return AppConfig{
		ID:             recString(rec, "id"),
		MuralText:      recString(rec, "muralText"),
		HeaderLine1:    recString(rec, "headerLine1"),
		HeaderLine2:    recString(rec, "headerLine2"),
		HeaderLine3:    recString(rec, "headerLine3"),
		PrimaryColor:   recString(rec, "primaryColor"),
		LastModifiedBy: recString(rec, "lastModifiedBy"),
		LastModifiedAt: recInt64(rec, "lastModifiedAt"),
	}
}
