package ingest

import (
	"fmt"
	"strings"

	"chaplaincy-data/internal/domain"
	"chaplaincy-data/internal/normalize"
)

// Kind selects which canonical entity set a sheet feeds.
type Kind string

const (
	KindStaff   Kind = "staff"
	KindSectors Kind = "sectors"
	KindGroups  Kind = "groups"
)

// headerScanLimit bounds how deep we look for the header row; HR exports
// routinely carry a few banner rows above it.
const headerScanLimit = 50

// Row is one accepted sheet row, ids already cleaned.
type Row struct {
	ID   string
	Name string

	// Staff sheets declare a sector; raw values are kept for the preview.
	SectorIDRaw    string
	SectorNameRaw  string
	SectorID       string // resolved canonical sector id
	SectorName     string // resolved canonical sector name
	SectorResolved bool   // false = flagged for operator attention, still imported
}

// Preview is the parse result shown to the operator before anything is
// written: accepted rows plus human-readable validation notes.
type Preview struct {
	Kind     Kind
	Rows     []Row
	Warnings []string
}

// Synonym sets for column resolution, in storage spelling (accents stripped,
// upper-cased). The historical sheets are Brazilian HR exports.
var (
	idSynonyms         = []string{"ID", "COD", "MATRICULA", "MAT", "CRACHA", "REGISTRO"}
	nameSynonyms       = []string{"NOME", "COLABORADOR", "FUNCIONARIO", "SETOR", "PG", "GRUPO", "DESCRICAO"}
	sectorIDSynonyms   = []string{"ID SETOR", "COD SETOR", "COD DEPARTAMENTO", "CODIGO SETOR"}
	sectorNameSynonyms = []string{"NOME SETOR", "SETOR", "DEPARTAMENTO"}

	headerKeywords = []string{"SETOR", "MATRICULA", "CRACHA", "PG", "GRUPO", "DEPARTAMENTO", "ID", "NOME"}
)

// ParseSheet normalizes a raw sheet into a preview for the given kind.
// sectors is the canonical set staff rows resolve their declared sector
// against; unit tags every accepted row.
//
// Import-type mismatches (a staff roster loaded into the sector tab and the
// like) are rejected before any row is processed.
func ParseSheet(rows [][]string, kind Kind, sectors []domain.Sector, unit string) (*Preview, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet is empty or has no data rows")
	}

	headers, dataStart := findHeaderRow(rows)
	if dataStart < 0 {
		return nil, fmt.Errorf("columns not identified within the first %d rows", headerScanLimit)
	}
	if err := validateSheetKind(headers, kind); err != nil {
		return nil, err
	}

	idxID := findColumn(headers, idSynonyms)
	idxName := findColumn(headers, nameSynonyms)
	idxSecID := findColumn(headers, sectorIDSynonyms)
	idxSecName := findColumn(headers, sectorNameSynonyms)
	if idxID < 0 || idxName < 0 {
		return nil, fmt.Errorf("required identifier/name columns not found")
	}

	preview := &Preview{Kind: kind}
	seen := make(map[string]bool)

	for _, raw := range rows[dataStart:] {
		id := normalize.NumericID(cell(raw, idxID))
		name := strings.TrimSpace(cell(raw, idxName))
		if id == "" && kind == KindGroups {
			// Group sheets sometimes carry the id inside the name column.
			id = normalize.NumericID(name)
		}
		if id == "" || seen[id] {
			continue // first occurrence wins
		}
		seen[id] = true

		row := Row{ID: id, Name: name}
		if kind == KindStaff {
			row.SectorIDRaw = normalize.NumericID(cell(raw, idxSecID))
			row.SectorNameRaw = strings.TrimSpace(cell(raw, idxSecName))
			resolveSector(&row, sectors, unit)
			if !row.SectorResolved {
				preview.Warnings = append(preview.Warnings,
					fmt.Sprintf("row %s (%s): declared sector %q not recognized", id, name, declaredSector(row)))
			}
		}
		preview.Rows = append(preview.Rows, row)
	}

	return preview, nil
}

// resolveSector links a declared sector to the canonical set: cleaned
// numeric id first, normalized name as fallback. Unresolved rows are flagged
// for the operator, never dropped.
func resolveSector(row *Row, sectors []domain.Sector, unit string) {
	if row.SectorIDRaw != "" {
		for _, s := range sectors {
			if s.Unit == unit && normalize.NumericID(s.ID) == row.SectorIDRaw {
				row.SectorID = s.ID
				row.SectorName = s.Name
				row.SectorResolved = true
				return
			}
		}
	}
	if row.SectorNameRaw != "" {
		key := normalize.Key(row.SectorNameRaw)
		for _, s := range sectors {
			if s.Unit == unit && normalize.Key(s.Name) == key {
				row.SectorID = s.ID
				row.SectorName = s.Name
				row.SectorResolved = true
				return
			}
		}
	}
}

func declaredSector(row Row) string {
	if row.SectorNameRaw != "" {
		return row.SectorNameRaw
	}
	return row.SectorIDRaw
}

// findHeaderRow scans for the first row carrying at least one recognizable
// keyword; that row becomes the header and the next row the data start.
func findHeaderRow(rows [][]string) ([]string, int) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		normalized := make([]string, len(rows[i]))
		hit := false
		for j, c := range rows[i] {
			normalized[j] = headerKey(c)
			for _, kw := range headerKeywords {
				if strings.Contains(normalized[j], kw) {
					hit = true
				}
			}
		}
		if hit {
			return normalized, i + 1
		}
	}
	return nil, -1
}

// validateSheetKind rejects sheets whose header signal does not match the
// target entity kind, before any row is touched.
func validateSheetKind(headers []string, kind Kind) error {
	hasStaffCols := anyContains(headers, "MATRICULA", "CRACHA", "FUNCIONARIO", "COLABORADOR")
	hasSectorCols := anyContains(headers, "DEPARTAMENTO", "CENTRO DE CUSTO") || hasBareSector(headers)
	hasID := anyContains(headers, "ID", "COD")
	hasGroupSignal := anyContains(headers, "PG", "GRUPO", "NOME", "LIDER")

	switch kind {
	case KindStaff:
		if !hasStaffCols {
			return fmt.Errorf("sheet does not look like a staff roster (no badge/employee columns)")
		}
	case KindSectors:
		if !hasSectorCols || hasStaffCols {
			return fmt.Errorf("sheet does not look like a sector list")
		}
	case KindGroups:
		if !hasID || !hasGroupSignal || hasStaffCols || hasSectorCols {
			return fmt.Errorf("sheet does not look like a group list")
		}
	default:
		return fmt.Errorf("unknown import kind %q", kind)
	}
	return nil
}

func anyContains(headers []string, subs ...string) bool {
	for _, h := range headers {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return true
			}
		}
	}
	return false
}

// hasBareSector matches a SETOR column that is not the sector-id column of a
// staff sheet.
func hasBareSector(headers []string) bool {
	for _, h := range headers {
		if strings.Contains(h, "SETOR") && !strings.Contains(h, "ID") {
			return true
		}
	}
	return false
}

var headerPunct = strings.NewReplacer(".", "", ",", "", "º", "", "°", "", "ª", "", "#", "")

// headerKey folds a header cell for synonym matching: accents stripped,
// upper-cased, ordinal markers removed, whitespace collapsed.
func headerKey(s string) string {
	s = strings.ToUpper(normalize.Key(s))
	s = headerPunct.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// findColumn resolves a logical field: exact synonym match wins over
// substring containment.
func findColumn(headers []string, synonyms []string) int {
	for i, h := range headers {
		for _, syn := range synonyms {
			if h == syn {
				return i
			}
		}
	}
	for i, h := range headers {
		for _, syn := range synonyms {
			if strings.Contains(h, syn) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
