package eventlog

// Schema is the study database DDL. Applied idempotently at startup;
// every table is append-only except the participant completion flag.
const Schema = `
CREATE TABLE IF NOT EXISTS participants (
	id TEXT PRIMARY KEY,
	session_id TEXT,
	ip_address TEXT,
	user_agent TEXT,
	created_at INTEGER NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	completed_at INTEGER
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	event_category TEXT NOT NULL,
	page_name TEXT,
	task_id TEXT,
	element_id TEXT,
	element_type TEXT,
	action TEXT,
	old_value TEXT,
	new_value TEXT,
	stock_ticker TEXT,
	metadata TEXT,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE INDEX IF NOT EXISTS idx_events_participant_time
	ON events(participant_id, timestamp);

CREATE TABLE IF NOT EXISTS page_visits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	page_name TEXT NOT NULL,
	task_id TEXT,
	entered_at INTEGER NOT NULL,
	exited_at INTEGER,
	duration_seconds REAL,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS demographics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	age INTEGER NOT NULL,
	gender TEXT NOT NULL,
	education TEXT NOT NULL,
	experience TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS task_responses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	task_number INTEGER NOT NULL,
	task_ref TEXT NOT NULL,
	ticker TEXT,
	stock_name TEXT,
	investment REAL NOT NULL,
	total_investment REAL NOT NULL,
	remaining_amount REAL NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS portfolio (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	task_number INTEGER NOT NULL,
	task_ref TEXT NOT NULL,
	stock_name TEXT NOT NULL,
	ticker TEXT NOT NULL,
	invested REAL NOT NULL,
	return_percent REAL NOT NULL,
	final_value REAL NOT NULL,
	profit_loss REAL NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS confidence_risk (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	confidence_rating INTEGER NOT NULL,
	risk_rating INTEGER NOT NULL,
	completed_after_task INTEGER,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	feedback_text TEXT,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);
`
