// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
//
// A collection named "docs" is stored as two tables: docs_points maps
// integer rowids to point ids and JSON payloads, and docs_vectors is a
// vec0 virtual table using cosine distance.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/elvenok1/servidor-api-rag/pkg/vector"
)

var (
	collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	vecDimensions  = regexp.MustCompile(`float\[(\d+)\]`)
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// Point is a stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// NewDriver opens a SQLite vector database backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// Every connection to ":memory:" is a separate database.
	if c.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

func tables(collection string) (points, vectors string, err error) {
	if !collectionName.MatchString(collection) {
		return "", "", fmt.Errorf("invalid sqlite collection name %q", collection)
	}
	return collection + "_points", collection + "_vectors", nil
}

// CreateCollection creates the tables backing a collection if they do not exist.
func (d *Driver) CreateCollection(ctx context.Context, name string, dimensions uint) error {
	if dimensions == 0 {
		return errors.New("sqlite-vec embedding dimensions cannot be 0")
	}

	points, vectors, err := tables(name)
	if err != nil {
		return err
	}

	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			point_id TEXT NOT NULL UNIQUE,
			payload TEXT NOT NULL DEFAULT '{}'
		)`, points)); err != nil {
		return fmt.Errorf("creating points table: %w", err)
	}

	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d] distance_metric=cosine)`,
		vectors, dimensions,
	)); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	return nil
}

// Upsert stores points in an existing collection, replacing points with the same id.
// It exists for local seeding; the search path never writes.
func (d *Driver) Upsert(ctx context.Context, collection string, pts []Point) error {
	if len(pts) == 0 {
		return nil
	}

	points, vectors, err := tables(collection)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range pts {
		blob, err := sqlite_vec.SerializeFloat32(p.Vector)
		if err != nil {
			return fmt.Errorf("serializing vector for point %s: %w", p.ID, err)
		}

		payload := p.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
		}

		var rowID int64
		err = tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM %s WHERE point_id = ?`, points), p.ID,
		).Scan(&rowID)

		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE %s SET payload = ? WHERE rowid = ?`, points),
				string(payloadJSON), rowID,
			); err != nil {
				return fmt.Errorf("updating point %s: %w", p.ID, err)
			}

			// vec0 does not support UPDATE
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, vectors), rowID,
			); err != nil {
				return fmt.Errorf("deleting old vector for point %s: %w", p.ID, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s(point_id, payload) VALUES (?, ?)`, points),
				p.ID, string(payloadJSON),
			)
			if err != nil {
				return fmt.Errorf("inserting point %s: %w", p.ID, err)
			}
			if rowID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("getting rowid for point %s: %w", p.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing point %s: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, vectors),
			rowID, blob,
		); err != nil {
			return fmt.Errorf("inserting vector for point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted points into sqlite-vec",
		"collection", collection,
		"count", len(pts),
	)

	return nil
}

// CollectionInfo reports the collection's dimensions and point count.
func (d *Driver) CollectionInfo(ctx context.Context, name string) (vector.CollectionInfo, error) {
	points, vectors, err := tables(name)
	if err != nil {
		return vector.CollectionInfo{}, fmt.Errorf("%w: %v", vector.ErrNotFound, err)
	}

	var ddl string
	err = d.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE name = ?`, vectors,
	).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return vector.CollectionInfo{}, fmt.Errorf("%w: %s", vector.ErrNotFound, name)
	}
	if err != nil {
		return vector.CollectionInfo{}, fmt.Errorf("%w: reading schema: %v", vector.ErrConnection, err)
	}

	info := vector.CollectionInfo{Name: name}
	if m := vecDimensions.FindStringSubmatch(ddl); m != nil {
		dims, err := strconv.ParseUint(m[1], 10, 32)
		if err == nil {
			info.Dimensions = uint(dims)
		}
	}

	var count int64
	if err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s`, points),
	).Scan(&count); err != nil {
		return vector.CollectionInfo{}, fmt.Errorf("%w: counting points: %v", vector.ErrConnection, err)
	}
	info.PointCount = uint64(count)

	return info, nil
}

// Query finds the Limit nearest points by cosine distance.
// Scores are cosine similarities (1 - distance).
func (d *Driver) Query(ctx context.Context, req vector.QueryRequest) ([]vector.QueryResult, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", vector.ErrQuery, req.Limit)
	}

	points, vectors, err := tables(req.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrQuery, err)
	}

	blob, err := sqlite_vec.SerializeFloat32(req.Vector)
	if err != nil {
		return nil, fmt.Errorf("%w: serializing query vector: %v", vector.ErrQuery, err)
	}

	// KNN via vec0 MATCH, then JOIN back to get point ids and payloads.
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			p.point_id,
			p.payload,
			v.distance
		FROM %s v
		INNER JOIN %s p ON p.rowid = v.rowid
		WHERE v.embedding MATCH ?
			AND v.k = ?
		ORDER BY v.distance
	`, vectors, points), blob, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrQuery, err)
	}
	defer rows.Close()

	results := make([]vector.QueryResult, 0, req.Limit)
	for rows.Next() {
		var (
			id, payloadJSON string
			distance        float64
		)
		if err := rows.Scan(&id, &payloadJSON, &distance); err != nil {
			return nil, fmt.Errorf("%w: scanning result: %v", vector.ErrQuery, err)
		}

		score := float32(1 - distance)
		if req.ScoreThreshold != 0 && score < req.ScoreThreshold {
			continue
		}

		payload := map[string]any{}
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("%w: decoding payload of point %s: %v", vector.ErrQuery, id, err)
		}

		results = append(results, vector.QueryResult{
			ID:      id,
			Score:   score,
			Payload: payload,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating results: %v", vector.ErrQuery, err)
	}

	d.logger.Debug("queried sqlite-vec",
		"collection", req.Collection,
		"results", len(results),
	)

	return results, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
