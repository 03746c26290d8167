package archive

// schema creates the results tables when they don't exist yet
const schema = `
CREATE TABLE IF NOT EXISTS simulated_games (
	game_id        TEXT PRIMARY KEY,
	sport_key      TEXT NOT NULL,
	status         TEXT NOT NULL,
	home_team      TEXT NOT NULL,
	home_team_abbr TEXT NOT NULL,
	away_team      TEXT NOT NULL,
	away_team_abbr TEXT NOT NULL,
	home_score     INTEGER NOT NULL,
	away_score     INTEGER NOT NULL,
	winner         TEXT NOT NULL DEFAULT '',
	play_count     INTEGER NOT NULL,
	seed           BIGINT NOT NULL,
	period_scores  JSONB NOT NULL,
	stats          JSONB NOT NULL,
	commence_time  TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS simulated_games_finished_at_idx
	ON simulated_games (finished_at DESC);

CREATE TABLE IF NOT EXISTS simulated_plays (
	game_id        TEXT NOT NULL REFERENCES simulated_games (game_id) ON DELETE CASCADE,
	play_number    INTEGER NOT NULL,
	period         INTEGER NOT NULL,
	clock          TEXT NOT NULL,
	play_type      TEXT NOT NULL,
	offense        TEXT NOT NULL,
	situation      TEXT NOT NULL,
	description    TEXT NOT NULL,
	yards          INTEGER NOT NULL,
	points         INTEGER NOT NULL,
	scoring_team   TEXT NOT NULL,
	turnover       TEXT NOT NULL,
	home_score     INTEGER NOT NULL,
	away_score     INTEGER NOT NULL,
	possession     TEXT NOT NULL,
	field_position INTEGER NOT NULL,
	down           INTEGER NOT NULL,
	yards_to_go    INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, play_number)
);
`
