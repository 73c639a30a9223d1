package database

// ClickHouse DDL for the advice archive. Tables are append-only; nothing in
// the service reads them back.

const (
	// WaterReadingsTableSQL stores the numeric projection of every reading.
	// fields is keyed by history field so custom feature tables need no DDL change.
	WaterReadingsTableSQL = `
		CREATE TABLE IF NOT EXISTS water_readings (
			timestamp DateTime64(3),
			device_id String,
			result_id String,
			fields Map(String, Float64)
		) ENGINE = MergeTree()
		ORDER BY (device_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// AdviceLogTableSQL stores every classification with its evidence
	AdviceLogTableSQL = `
		CREATE TABLE IF NOT EXISTS advice_log (
			timestamp DateTime64(3),
			device_id String,
			result_id String,
			label Nullable(String),
			justification String,
			k UInt32,
			neighbor_labels Array(String),
			neighbor_distances Array(Float64),
			alerts Array(String),
			warnings Array(String)
		) ENGINE = MergeTree()
		ORDER BY (device_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// DeviceRegistryTableSQL creates the device_registry table
	DeviceRegistryTableSQL = `
		CREATE TABLE IF NOT EXISTS device_registry (
			device_id String,
			name String,
			location String,
			registered_at DateTime64(3),
			last_seen DateTime64(3),
			is_active Bool
		) ENGINE = ReplacingMergeTree(last_seen)
		ORDER BY device_id
	`
)

// AllTables returns all table creation SQL statements in order
func AllTables() []string {
	return []string{
		DeviceRegistryTableSQL,
		WaterReadingsTableSQL,
		AdviceLogTableSQL,
	}
}
