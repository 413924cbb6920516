package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/render"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownSession is returned when a session id is not in the journal.
var ErrUnknownSession = errors.New("unknown session")

// SessionRecord is one row of the sessions table.
type SessionRecord struct {
	ID             string            `json:"id"`
	Mode           variants.Mode     `json:"mode"`
	Capture        placement.Capture `json:"capture"`
	InitialVariant string            `json:"initial_variant"`
	Source         string            `json:"source"`
	Started        time.Time         `json:"started"`
	Ended          *time.Time        `json:"ended,omitempty"`
}

// StartSession records the start of a session.
func (db *DB) StartSession(ctx context.Context, rec SessionRecord) error {
	capture := rec.Capture
	if capture == "" {
		capture = placement.CaptureDefault
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, mode, capture, initial_variant, source, started_unix_nano)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Mode), string(capture), rec.InitialVariant, rec.Source, rec.Started.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// EndSession stamps the end time of a session.
func (db *DB) EndSession(ctx context.Context, id string, at time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE sessions SET ended_unix_nano = ? WHERE session_id = ?`, at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return nil
}

const sessionColumns = `session_id, mode, capture, initial_variant, source, started_unix_nano, ended_unix_nano`

func scanSession(sc interface{ Scan(...interface{}) error }) (SessionRecord, error) {
	var (
		rec           SessionRecord
		mode, capture string
		started       int64
		ended         sql.NullInt64
	)
	if err := sc.Scan(&rec.ID, &mode, &capture, &rec.InitialVariant, &rec.Source, &started, &ended); err != nil {
		return SessionRecord{}, err
	}
	rec.Mode = variants.Mode(mode)
	rec.Capture = placement.Capture(capture)
	rec.Started = time.Unix(0, started).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		rec.Ended = &t
	}
	return rec, nil
}

// Session returns one session.
func (db *DB) Session(ctx context.Context, id string) (SessionRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return rec, err
}

// Sessions returns the most recent sessions, newest first.
func (db *DB) Sessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY started_unix_nano DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CommandRecord is one applied command.
type CommandRecord struct {
	SessionID string `json:"session_id"`
	// AfterSeq is the last frame processed before the command applied.
	AfterSeq uint64                 `json:"after_seq"`
	Kind     string                 `json:"kind"`
	Arg      string                 `json:"arg"`
	Offset   placement.ManualOffset `json:"offset"`
	Applied  time.Time              `json:"applied"`
}

// RecordCommand appends a command to the session's log.
func (db *DB) RecordCommand(ctx context.Context, c CommandRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO commands (session_id, after_seq, kind, arg, offset_dx, offset_dy, applied_unix_nano)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.SessionID, int64(c.AfterSeq), c.Kind, c.Arg, c.Offset.DX, c.Offset.DY, c.Applied.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}
	return nil
}

// Commands returns a session's commands in the order they were applied.
func (db *DB) Commands(ctx context.Context, sessionID string) ([]CommandRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT after_seq, kind, arg, offset_dx, offset_dy, applied_unix_nano
		FROM commands WHERE session_id = ? ORDER BY command_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		c := CommandRecord{SessionID: sessionID}
		var seq, applied int64
		if err := rows.Scan(&seq, &c.Kind, &c.Arg, &c.Offset.DX, &c.Offset.DY, &applied); err != nil {
			return nil, err
		}
		c.AfterSeq = uint64(seq)
		c.Applied = time.Unix(0, applied).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// PlacementRecord is one journaled placement. Flat placements fill X, Y,
// Scale and Angle; mesh placements fill X, Y, Z, Scale (the x-axis scale)
// and Orientation.
type PlacementRecord struct {
	SessionID   string       `json:"session_id"`
	Seq         uint64       `json:"seq"`
	Frame       time.Time    `json:"frame"`
	VariantID   string       `json:"variant_id"`
	Face        int          `json:"face"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Z           float64      `json:"z"`
	Scale       float64      `json:"scale"`
	Angle       float64      `json:"angle"`
	Orientation *r3.Rotation `json:"orientation,omitempty"`
}

// RecordOutput journals every placement in out in one transaction.
func (db *DB) RecordOutput(ctx context.Context, out *render.Output) error {
	if out.Empty() {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO placements (session_id, seq, frame_unix_nano, variant_id, face, x, y, z, scale, angle, qw, qx, qy, qz)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		ts := out.Timestamp.UnixNano()
		for i, s := range out.Sprites {
			if _, err := stmt.ExecContext(ctx, out.SessionID, int64(out.Seq), ts, out.VariantID, i,
				s.X, s.Y, 0.0, s.Scale, s.Angle, nil, nil, nil, nil); err != nil {
				return fmt.Errorf("failed to insert placement: %w", err)
			}
		}
		if m := out.Mesh; m != nil {
			q := m.Orientation
			if _, err := stmt.ExecContext(ctx, out.SessionID, int64(out.Seq), ts, out.VariantID, 0,
				m.Position.X, m.Position.Y, m.Position.Z, m.Scale.X, 0.0, q.Real, q.Imag, q.Jmag, q.Kmag); err != nil {
				return fmt.Errorf("failed to insert placement: %w", err)
			}
		}
		return nil
	})
}

// Placements returns up to limit placements of a session in frame order.
func (db *DB) Placements(ctx context.Context, sessionID string, limit int) ([]PlacementRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := db.QueryContext(ctx, `
		SELECT seq, frame_unix_nano, variant_id, face, x, y, z, scale, angle, qw, qx, qy, qz
		FROM placements WHERE session_id = ? ORDER BY seq, face LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlacementRecord
	for rows.Next() {
		p := PlacementRecord{SessionID: sessionID}
		var seq, ts int64
		var qw, qx, qy, qz sql.NullFloat64
		if err := rows.Scan(&seq, &ts, &p.VariantID, &p.Face, &p.X, &p.Y, &p.Z, &p.Scale, &p.Angle, &qw, &qx, &qy, &qz); err != nil {
			return nil, err
		}
		p.Seq = uint64(seq)
		p.Frame = time.Unix(0, ts).UTC()
		if qw.Valid {
			p.Orientation = &r3.Rotation{Real: qw.Float64, Imag: qx.Float64, Jmag: qy.Float64, Kmag: qz.Float64}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Journal is a render.Sink that records every output to the database.
type Journal struct {
	db *DB
}

// NewJournal returns a sink writing to db.
func NewJournal(db *DB) *Journal { return &Journal{db: db} }

// Draw implements render.Sink.
func (j *Journal) Draw(out *render.Output) error {
	return j.db.RecordOutput(context.Background(), out)
}
