package storage

// schemaStatements create the tables shared by the SQL backends. Column
// types are valid in both SQLite and PostgreSQL.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS venues (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS meets (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		date       TEXT NOT NULL,
		venue_id   TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
		season     TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		UNIQUE (name, date, venue_id)
	)`,
	`CREATE TABLE IF NOT EXISTS races (
		id         TEXT PRIMARY KEY,
		meet_id    TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		distance   TEXT NOT NULL,
		race_class TEXT NOT NULL,
		gender     TEXT NOT NULL,
		UNIQUE (meet_id, name, distance, race_class, gender)
	)`,
	`CREATE TABLE IF NOT EXISTS athletes (
		id              TEXT PRIMARY KEY,
		first_name      TEXT NOT NULL,
		last_name       TEXT NOT NULL,
		gender          TEXT NOT NULL,
		school          TEXT NOT NULL,
		graduation_year INTEGER,
		UNIQUE (first_name, last_name, gender, school)
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		id           TEXT PRIMARY KEY,
		race_id      TEXT NOT NULL REFERENCES races(id) ON DELETE CASCADE,
		athlete_id   TEXT NOT NULL REFERENCES athletes(id) ON DELETE CASCADE,
		time_seconds DOUBLE PRECISION NOT NULL,
		place        INTEGER NOT NULL,
		points       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS results_race_id_idx ON results (race_id)`,
}

// clearStatements empty the tables child-first.
var clearStatements = []string{
	`DELETE FROM results`,
	`DELETE FROM races`,
	`DELETE FROM meets`,
	`DELETE FROM athletes`,
	`DELETE FROM venues`,
}
