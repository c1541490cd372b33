// Package store is the Postgres persistence backend for the memory
// store. The JSON file layout stays the default; this backend kicks in
// when DATABASE_URL is set.
package store

import (
	"context"
	"embed"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"balatro-pilot/pilot/memory"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   memory.Persister implementation
------------------------------*/

// SaveSession stores the sealed record as one JSONB document keyed by
// session id, with the headline fields broken out for querying.
func (db *DB) SaveSession(rec *memory.SessionRecord) error {
	ctx := context.Background()
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
        INSERT INTO sessions(id, started_at, ended_at, final_ante, final_score, success, record)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO UPDATE
          SET ended_at    = EXCLUDED.ended_at,
              final_ante  = EXCLUDED.final_ante,
              final_score = EXCLUDED.final_score,
              success     = EXCLUDED.success,
              record      = EXCLUDED.record
    `, rec.ID, rec.StartedAt, rec.EndedAt, rec.FinalAnte, rec.FinalScore, rec.Success, b)
	return err
}

// SaveAggregate upserts every metric row atomically.
func (db *DB) SaveAggregate(agg *memory.Aggregate) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // safe if already committed

	for name, p := range agg.Jokers {
		if _, err := tx.Exec(ctx, `
            INSERT INTO joker_perf(name, usage_count, wins, win_rate, total_score, avg_score_boost, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,now())
            ON CONFLICT (name) DO UPDATE
              SET usage_count     = EXCLUDED.usage_count,
                  wins            = EXCLUDED.wins,
                  win_rate        = EXCLUDED.win_rate,
                  total_score     = EXCLUDED.total_score,
                  avg_score_boost = EXCLUDED.avg_score_boost,
                  updated_at      = now()
        `, name, p.UsageCount, p.Wins, p.WinRate, p.TotalScore, p.AvgScoreBoost); err != nil {
			return err
		}
	}
	for handType, p := range agg.HandTypes {
		if _, err := tx.Exec(ctx, `
            INSERT INTO hand_type_perf(hand_type, usage_count, successes, success_rate, avg_score, updated_at)
            VALUES ($1,$2,$3,$4,$5,now())
            ON CONFLICT (hand_type) DO UPDATE
              SET usage_count  = EXCLUDED.usage_count,
                  successes    = EXCLUDED.successes,
                  success_rate = EXCLUDED.success_rate,
                  avg_score    = EXCLUDED.avg_score,
                  updated_at   = now()
        `, handType, p.UsageCount, p.Successes, p.SuccessRate, p.AvgScore); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// LoadSessions returns the newest max sealed sessions, oldest first.
func (db *DB) LoadSessions(max int) ([]*memory.SessionRecord, error) {
	ctx := context.Background()
	if max <= 0 {
		max = memory.DefaultCapacity
	}
	rows, err := db.Query(ctx, `
        SELECT record
          FROM sessions
         WHERE ended_at IS NOT NULL
         ORDER BY started_at DESC
         LIMIT $1
    `, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*memory.SessionRecord
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		var rec memory.SessionRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Newest-first from the query; the store wants oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (db *DB) LoadAggregate() (*memory.Aggregate, error) {
	ctx := context.Background()
	agg := memory.NewAggregate()

	rows, err := db.Query(ctx, `
        SELECT name, usage_count, wins, win_rate, total_score, avg_score_boost FROM joker_perf
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var p memory.JokerPerf
		if err := rows.Scan(&name, &p.UsageCount, &p.Wins, &p.WinRate, &p.TotalScore, &p.AvgScoreBoost); err != nil {
			return nil, err
		}
		agg.Jokers[name] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows2, err := db.Query(ctx, `
        SELECT hand_type, usage_count, successes, success_rate, avg_score FROM hand_type_perf
    `)
	if err != nil {
		return nil, err
	}
	defer rows2.Close()
	for rows2.Next() {
		var handType string
		var p memory.HandTypePerf
		if err := rows2.Scan(&handType, &p.UsageCount, &p.Successes, &p.SuccessRate, &p.AvgScore); err != nil {
			return nil, err
		}
		agg.HandTypes[handType] = &p
	}
	if err := rows2.Err(); err != nil {
		return nil, err
	}

	if len(agg.Jokers) == 0 && len(agg.HandTypes) == 0 {
		return nil, nil
	}
	return agg, nil
}
