package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/SpherenexLabs/npk/internal/models"
)

// ClickHouseDB archives readings and advice. It doubles as a result sink.
type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse connection and ensures the schema exists
func NewClickHouseDB(addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	db := &ClickHouseDB{conn: conn}

	if err := db.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// Name identifies the archive as a result sink
func (db *ClickHouseDB) Name() string {
	return "clickhouse"
}

// Publish archives the reading projection and the advice of one result
func (db *ClickHouseDB) Publish(ctx context.Context, result *models.IngestResult) error {
	if n := len(result.History); n > 0 {
		if err := db.SaveReading(ctx, result.DeviceID, result.ResultID, result.History[n-1]); err != nil {
			return err
		}
	}
	return db.SaveAdvice(ctx, result)
}

// SaveReading stores one history point
func (db *ClickHouseDB) SaveReading(ctx context.Context, deviceID, resultID string, point models.HistoryPoint) error {
	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO water_readings (timestamp, device_id, result_id, fields)")
	if err != nil {
		return fmt.Errorf("failed to prepare reading insert: %w", err)
	}

	if err := batch.Append(point.Timestamp, deviceID, resultID, point.Values); err != nil {
		return fmt.Errorf("failed to append reading: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// SaveAdvice stores a classification with its neighbours, alerts and warnings
func (db *ClickHouseDB) SaveAdvice(ctx context.Context, result *models.IngestResult) error {
	row := adviceRow(result)

	batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO advice_log (timestamp, device_id, result_id, label, justification, k,
		neighbor_labels, neighbor_distances, alerts, warnings)`)
	if err != nil {
		return fmt.Errorf("failed to prepare advice insert: %w", err)
	}

	err = batch.Append(
		row.Timestamp,
		row.DeviceID,
		row.ResultID,
		row.Label,
		row.Justification,
		row.K,
		row.NeighborLabels,
		row.NeighborDistances,
		row.Alerts,
		row.Warnings,
	)
	if err != nil {
		return fmt.Errorf("failed to append advice: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert advice: %w", err)
	}
	return nil
}

// UpsertDevice inserts or updates a device in the registry
func (db *ClickHouseDB) UpsertDevice(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO device_registry (device_id, name, location, registered_at, last_seen, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		device.DeviceID,
		device.Name,
		device.Location,
		device.RegisteredAt,
		device.LastSeen,
		device.IsActive,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	return db.conn.Close()
}

// adviceLogRow is the flattened advice_log column set
type adviceLogRow struct {
	Timestamp         time.Time
	DeviceID          string
	ResultID          string
	Label             *string
	Justification     string
	K                 uint32
	NeighborLabels    []string
	NeighborDistances []float64
	Alerts            []string
	Warnings          []string
}

func adviceRow(result *models.IngestResult) adviceLogRow {
	c := result.Classification
	row := adviceLogRow{
		Timestamp:         result.Timestamp,
		DeviceID:          result.DeviceID,
		ResultID:          result.ResultID,
		Label:             c.Label,
		Justification:     c.Justification,
		K:                 uint32(c.K),
		NeighborLabels:    make([]string, len(c.Neighbors)),
		NeighborDistances: make([]float64, len(c.Neighbors)),
		Alerts:            make([]string, len(result.Alerts)),
		Warnings:          make([]string, len(result.Warnings)),
	}

	for i, n := range c.Neighbors {
		row.NeighborLabels[i] = n.Label
		row.NeighborDistances[i] = n.DistanceSquared
	}
	for i, a := range result.Alerts {
		row.Alerts[i] = a.Field + ": " + a.Message
	}
	for i, w := range result.Warnings {
		row.Warnings[i] = w.String()
	}
	return row
}
