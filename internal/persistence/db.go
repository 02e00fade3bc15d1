// Package persistence stores simulation state: a SQLite database for the
// durable record and per-day JSON snapshots for resumption and inspection.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/engine"
)

// DB wraps a SQLite connection for settlement state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age_days INTEGER NOT NULL,
		death_day INTEGER,
		alive INTEGER NOT NULL,
		personality TEXT NOT NULL,
		credits REAL NOT NULL,
		memory INTEGER NOT NULL,
		needs_json TEXT NOT NULL,
		goods_json TEXT NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		seller_id TEXT NOT NULL,
		price REAL NOT NULL,
		listed_on_day INTEGER NOT NULL,
		good_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		agent_id TEXT NOT NULL,
		request_json TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS narratives (
		day INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_day ON actions(day);
	CREATE INDEX IF NOT EXISTS idx_agents_alive ON agents(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveAgents writes both rosters to the database (full replace).
func (db *DB) SaveAgents(active, dead []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, name, age_days, death_day, alive, personality, credits, memory,
		 needs_json, goods_json, history_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	insert := func(a *agents.Agent) error {
		needsJSON, _ := json.Marshal(a.Needs)
		goodsJSON, _ := json.Marshal(a.Goods)
		historyJSON, _ := json.Marshal(a.History)

		alive := 0
		if a.Alive {
			alive = 1
		}

		_, err := stmt.Exec(
			a.ID, a.Name, a.AgeDays, a.DeathDay, alive, a.Personality,
			a.Credits, a.Memory,
			string(needsJSON), string(goodsJSON), string(historyJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %s: %w", a.ID, err)
		}
		return nil
	}

	for _, a := range active {
		if err := insert(a); err != nil {
			return err
		}
	}
	for _, a := range dead {
		if err := insert(a); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveActions appends the given action log entries.
func (db *DB) SaveActions(entries []engine.ActionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		reqJSON, _ := json.Marshal(e.Request)
		_, err := tx.Exec(
			"INSERT INTO actions (day, agent_id, request_json, error) VALUES (?, ?, ?, ?)",
			e.Day, e.AgentID, string(reqJSON), e.Err,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveNarrative stores one day's narrative, replacing any previous write.
func (db *DB) SaveNarrative(day int, n engine.Narrative) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO narratives (day, title, content) VALUES (?, ?, ?)",
		day, n.Title, n.Content,
	)
	return err
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}

// SaveState performs a full save of the simulation state at the end of a day.
func (db *DB) SaveState(st *engine.State) error {
	slog.Info("saving state", "day", st.Day, "agents", len(st.Agents), "dead", len(st.DeadAgents))

	if err := db.SaveAgents(st.Agents, st.DeadAgents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.saveListings(st); err != nil {
		return fmt.Errorf("save market: %w", err)
	}
	if err := db.SaveActions(st.TodayActions()); err != nil {
		return fmt.Errorf("save actions: %w", err)
	}
	if n, ok := st.Narratives[st.Day]; ok {
		if err := db.SaveNarrative(st.Day, n); err != nil {
			return fmt.Errorf("save narrative: %w", err)
		}
	}
	if err := db.SaveMeta("last_day", strconv.Itoa(st.Day)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	return nil
}

func (db *DB) saveListings(st *engine.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM listings"); err != nil {
		return err
	}

	for _, l := range st.Market.Listings {
		goodJSON, _ := json.Marshal(l.Good)
		_, err := tx.Exec(
			"INSERT INTO listings (id, seller_id, price, listed_on_day, good_json) VALUES (?, ?, ?, ?, ?)",
			l.ID, l.SellerID, l.Price, l.ListedOnDay, string(goodJSON),
		)
		if err != nil {
			return fmt.Errorf("insert listing %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

type agentRow struct {
	ID          string        `db:"id"`
	Name        string        `db:"name"`
	AgeDays     int           `db:"age_days"`
	DeathDay    sql.NullInt64 `db:"death_day"`
	Alive       int           `db:"alive"`
	Personality string        `db:"personality"`
	Credits     float64       `db:"credits"`
	Memory      int           `db:"memory"`
	NeedsJSON   string        `db:"needs_json"`
	GoodsJSON   string        `db:"goods_json"`
	HistoryJSON string        `db:"history_json"`
}

// LoadAgents reads both rosters back from the database.
func (db *DB) LoadAgents() (active, dead []*agents.Agent, err error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT * FROM agents"); err != nil {
		return nil, nil, fmt.Errorf("load agents: %w", err)
	}

	for _, r := range rows {
		a := &agents.Agent{
			ID:          r.ID,
			Name:        r.Name,
			AgeDays:     r.AgeDays,
			Alive:       r.Alive == 1,
			Personality: r.Personality,
			Credits:     r.Credits,
			Memory:      r.Memory,
		}
		if r.DeathDay.Valid {
			d := int(r.DeathDay.Int64)
			a.DeathDay = &d
		}
		if err := json.Unmarshal([]byte(r.NeedsJSON), &a.Needs); err != nil {
			return nil, nil, fmt.Errorf("agent %s needs: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.GoodsJSON), &a.Goods); err != nil {
			return nil, nil, fmt.Errorf("agent %s goods: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.HistoryJSON), &a.History); err != nil {
			return nil, nil, fmt.Errorf("agent %s history: %w", r.ID, err)
		}
		if a.Alive {
			active = append(active, a)
		} else {
			dead = append(dead, a)
		}
	}
	return active, dead, nil
}

// LastDay returns the last saved day, or 0 if nothing was saved yet.
func (db *DB) LastDay() (int, error) {
	v, err := db.GetMeta("last_day")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// Narratives returns all stored narratives keyed by day.
func (db *DB) Narratives() (map[int]engine.Narrative, error) {
	var rows []struct {
		Day     int    `db:"day"`
		Title   string `db:"title"`
		Content string `db:"content"`
	}
	if err := db.conn.Select(&rows, "SELECT day, title, content FROM narratives ORDER BY day"); err != nil {
		return nil, err
	}
	out := make(map[int]engine.Narrative, len(rows))
	for _, r := range rows {
		out[r.Day] = engine.Narrative{Title: r.Title, Content: r.Content}
	}
	return out, nil
}
