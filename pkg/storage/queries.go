package storage

import (
	"fmt"

	"github.com/dougsko/rxcore/pkg/radio"
)

// RecordQuery filters records. A zero query matches everything.
type RecordQuery struct {
	Type      *radio.RecordType
	Scanlists uint16 // match records in any of these lists, 0 for all
	Name      string // substring match
	Limit     int
	Offset    int
}

// RecordStats counts records by type
type RecordStats struct {
	VFOs     int `json:"vfos"`
	Channels int `json:"channels"`
	Bands    int `json:"bands"`
}

// QueryRecords retrieves records in index order
func (rs *RecordStore) QueryRecords(query RecordQuery) ([]radio.Record, error) {
	var args []interface{}
	var conditions []string

	sqlQuery := "SELECT " + recordColumns + " FROM records WHERE 1=1"

	if query.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *query.Type)
	}

	if query.Scanlists != 0 {
		conditions = append(conditions, "(scanlists & ?) != 0")
		args = append(args, query.Scanlists)
	}

	if query.Name != "" {
		conditions = append(conditions, "name LIKE ?")
		args = append(args, "%"+query.Name+"%")
	}

	for _, condition := range conditions {
		sqlQuery += " AND " + condition
	}

	sqlQuery += " ORDER BY idx ASC"

	if query.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, query.Limit)

		if query.Offset > 0 {
			sqlQuery += " OFFSET ?"
			args = append(args, query.Offset)
		}
	}

	rows, err := rs.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []radio.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func typeFilter(t radio.RecordType) *radio.RecordType {
	return &t
}

// Channels returns the channel records in any list of mask
func (rs *RecordStore) Channels(mask uint16) ([]radio.Record, error) {
	return rs.QueryRecords(RecordQuery{Type: typeFilter(radio.RecordChannel), Scanlists: mask})
}

// ChannelIndexes returns the storage indexes of the channels in mask, the
// form the channel scanner walks.
func (rs *RecordStore) ChannelIndexes(mask uint16) ([]uint16, error) {
	recs, err := rs.Channels(mask)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, len(recs))
	for _, r := range recs {
		out = append(out, uint16(r.Index))
	}
	return out, nil
}

// Bands returns the band records in any list of mask
func (rs *RecordStore) Bands(mask uint16) ([]radio.Record, error) {
	return rs.QueryRecords(RecordQuery{Type: typeFilter(radio.RecordBand), Scanlists: mask})
}

// Stats counts the stored records by type
func (rs *RecordStore) Stats() (*RecordStats, error) {
	rows, err := rs.db.Query("SELECT type, COUNT(*) FROM records GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	var stats RecordStats
	for rows.Next() {
		var t radio.RecordType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan record count: %w", err)
		}
		switch t {
		case radio.RecordVFO:
			stats.VFOs = n
		case radio.RecordChannel:
			stats.Channels = n
		case radio.RecordBand:
			stats.Bands = n
		}
	}
	return &stats, rows.Err()
}

// NextFreeIndex is one past the highest stored index
func (rs *RecordStore) NextFreeIndex() (int, error) {
	var next int
	err := rs.db.QueryRow("SELECT COALESCE(MAX(idx) + 1, 0) FROM records").Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to find free index: %w", err)
	}
	return next, nil
}
