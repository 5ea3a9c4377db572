// Package journal persists every replication decision to a duckdb file so a
// session can be audited after the fact, including close decisions that
// rounded to zero and issued no request.
package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/copier"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS opens_seq;
CREATE SEQUENCE IF NOT EXISTS closes_seq;
CREATE TABLE IF NOT EXISTS opens (
	id              BIGINT DEFAULT nextval('opens_seq'),
	trace_id        UBIGINT,
	instrument      BIGINT,
	instrument_name VARCHAR,
	side            VARCHAR,
	source_volume   BIGINT,
	adjusted_volume BIGINT,
	multiplier      DOUBLE,
	mode            VARCHAR,
	ts              TIMESTAMP
);
CREATE TABLE IF NOT EXISTS closes (
	id              BIGINT DEFAULT nextval('closes_seq'),
	trace_id        UBIGINT,
	instrument      BIGINT,
	instrument_name VARCHAR,
	position        BIGINT,
	source_volume   BIGINT,
	closed_volume   BIGINT,
	ratio           DOUBLE,
	step            BIGINT,
	full_close      BOOLEAN,
	ts              TIMESTAMP
);
`

type Journal struct {
	db *sql.DB
}

func Open(dataSourceName string) (*Journal, error) {
	db, err := sql.Open("duckdb", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) RecordOpen(ctx context.Context, record copier.OpenRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO opens
		(trace_id, instrument, instrument_name, side, source_volume, adjusted_volume, multiplier, mode, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.TraceID, record.Instrument, record.InstrumentName,
		record.Side.String(), record.SourceVolume, record.AdjustedVolume,
		record.Multiplier.Float64(), string(record.Mode), record.At,
	)
	return err
}

func (j *Journal) RecordClose(ctx context.Context, record copier.CloseRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO closes
		(trace_id, instrument, instrument_name, position, source_volume, closed_volume, ratio, step, full_close, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.TraceID, record.Instrument, record.InstrumentName,
		record.Position, record.SourceVolume, record.ClosedVolume,
		record.Ratio.Float64(), record.Step, record.Full, record.At,
	)
	return err
}

// Opens returns the journaled opens for one instrument, newest first.
func (j *Journal) Opens(ctx context.Context, instrument int64) ([]copier.OpenRecord, error) {

	rows, err := j.db.QueryContext(ctx, `
		SELECT trace_id, instrument, instrument_name, side, source_volume, adjusted_volume, multiplier, mode, ts
		FROM opens WHERE instrument = ? ORDER BY ts DESC`, instrument)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []copier.OpenRecord
	for rows.Next() {
		var record copier.OpenRecord
		var side, mode string
		var multiplier float64
		if err := rows.Scan(&record.TraceID, &record.Instrument, &record.InstrumentName,
			&side, &record.SourceVolume, &record.AdjustedVolume,
			&multiplier, &mode, &record.At); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		record.Side = parseSide(side)
		record.Multiplier = fixed.FromFloat64(multiplier)
		record.Mode = copier.AdjustMode(mode)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return records, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func parseSide(s string) common.Side {
	switch s {
	case "buy":
		return common.SideBuy
	case "sell":
		return common.SideSell
	default:
		return common.SideUnspecified
	}
}
