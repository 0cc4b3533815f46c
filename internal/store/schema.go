package store

// Schema mirrors the production tables: one row per office, manager
// and ticket, one analysis and one assignment per ticket, and a named
// counter row per routing pool.
const schema = `
CREATE TABLE IF NOT EXISTS offices (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	address    TEXT NOT NULL,
	latitude   REAL,
	longitude  REAL
);

CREATE TABLE IF NOT EXISTS managers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	position     TEXT NOT NULL,
	office_id    INTEGER NOT NULL REFERENCES offices(id),
	skills       TEXT NOT NULL DEFAULT '',
	current_load INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_managers_office ON managers(office_id);

CREATE TABLE IF NOT EXISTS tickets (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	guid        TEXT NOT NULL UNIQUE,
	gender      TEXT,
	birth_date  DATE,
	description TEXT,
	attachments TEXT,
	segment     TEXT NOT NULL,
	country     TEXT,
	region      TEXT,
	city        TEXT,
	street      TEXT,
	building    TEXT,
	client_lat  REAL,
	client_lon  REAL,
	geo_status  TEXT NOT NULL DEFAULT 'pending',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tickets_segment ON tickets(segment);
CREATE INDEX IF NOT EXISTS idx_tickets_city ON tickets(city);

CREATE TABLE IF NOT EXISTS ticket_analytics (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id      INTEGER NOT NULL UNIQUE REFERENCES tickets(id) ON DELETE CASCADE,
	ticket_type    TEXT NOT NULL,
	sentiment      TEXT NOT NULL,
	priority_score INTEGER NOT NULL,
	language       TEXT NOT NULL DEFAULT 'RU',
	summary        TEXT NOT NULL,
	llm_model      TEXT,
	processed_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_analytics_type ON ticket_analytics(ticket_type);
CREATE INDEX IF NOT EXISTS idx_analytics_language ON ticket_analytics(language);

CREATE TABLE IF NOT EXISTS assignments (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id         INTEGER NOT NULL UNIQUE REFERENCES tickets(id) ON DELETE CASCADE,
	manager_id        INTEGER NOT NULL REFERENCES managers(id),
	office_id         INTEGER NOT NULL REFERENCES offices(id),
	distance_km       REAL,
	assignment_reason TEXT,
	fallback_used     INTEGER NOT NULL DEFAULT 0,
	assigned_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_assignments_manager ON assignments(manager_id);
CREATE INDEX IF NOT EXISTS idx_assignments_office ON assignments(office_id);

CREATE TABLE IF NOT EXISTS round_robin_state (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	rr_key     TEXT NOT NULL UNIQUE,
	counter    INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}
