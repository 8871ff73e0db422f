package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/apperrors"
	"github.com/namansh70747/greenops-planner/internal/planner"
)

const schema = `
CREATE TABLE IF NOT EXISTS deployment_events (
	id                           TEXT PRIMARY KEY,
	timestamp                    TIMESTAMPTZ NOT NULL,
	plan_id                      TEXT NOT NULL,
	region                       TEXT NOT NULL,
	region_label                 TEXT NOT NULL DEFAULT '',
	carbon_intensity             DOUBLE PRECISION,
	replicas                     INTEGER NOT NULL,
	scores                       JSONB,
	estimated_hourly_energy_kwh  DOUBLE PRECISION,
	estimated_hourly_co2_kg      DOUBLE PRECISION,
	estimated_hourly_cost_usd    DOUBLE PRECISION,
	estimated_hourly_cost_inr    DOUBLE PRECISION,
	created_at                   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deployment_events_timestamp ON deployment_events (timestamp, id);
CREATE INDEX IF NOT EXISTS idx_deployment_events_plan ON deployment_events (plan_id);
`

const selectColumns = `
	id, timestamp, plan_id, region, region_label, carbon_intensity, replicas, scores,
	estimated_hourly_energy_kwh, estimated_hourly_co2_kg,
	estimated_hourly_cost_usd, estimated_hourly_cost_inr, created_at
`

// PostgresStore is the EventStore backed by PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(connectionURL string, logger *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger,
	}, nil
}

// Migrate creates the deployment_events table and its indexes if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.logger.Info("Deployment event schema ready")
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Append(ctx context.Context, event *DeploymentEvent) error {
	query := `
		INSERT INTO deployment_events (
			id, timestamp, plan_id, region, region_label, carbon_intensity, replicas, scores,
			estimated_hourly_energy_kwh, estimated_hourly_co2_kg,
			estimated_hourly_cost_usd, estimated_hourly_cost_inr
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	scores, err := marshalScores(event.Scores)
	if err != nil {
		return apperrors.Storage("failed to encode scores", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.pool.QueryRow(
		ctx,
		query,
		event.ID,
		event.Timestamp,
		event.PlanID,
		event.Region,
		event.RegionLabel,
		event.CarbonIntensity,
		event.Replicas,
		scores,
		event.EstimatedHourlyEnergyKwh,
		event.EstimatedHourlyCO2Kg,
		event.EstimatedHourlyCostUSD,
		event.EstimatedHourlyCostINR,
	).Scan(&event.CreatedAt)
	if err != nil {
		return apperrors.Storage("failed to save deployment event", err)
	}
	return nil
}

func (s *PostgresStore) Import(ctx context.Context, events []*DeploymentEvent) (int64, error) {
	if len(events) == 0 {
		s.logger.Debug("No deployment events to import")
		return 0, nil
	}
	if err := validateBatch(events); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		scores, err := marshalScores(e.Scores)
		if err != nil {
			return 0, apperrors.Storage("failed to encode scores", err)
		}
		rows = append(rows, []any{
			e.ID,
			e.Timestamp,
			e.PlanID,
			e.Region,
			e.RegionLabel,
			e.CarbonIntensity,
			e.Replicas,
			scores,
			e.EstimatedHourlyEnergyKwh,
			e.EstimatedHourlyCO2Kg,
			e.EstimatedHourlyCostUSD,
			e.EstimatedHourlyCostINR,
		})
	}

	copyCount, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"deployment_events"},
		[]string{
			"id", "timestamp", "plan_id", "region", "region_label", "carbon_intensity", "replicas", "scores",
			"estimated_hourly_energy_kwh", "estimated_hourly_co2_kg",
			"estimated_hourly_cost_usd", "estimated_hourly_cost_inr",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		s.logger.Error("Failed to import deployment events",
			zap.Error(err),
			zap.Int("attempted_count", len(events)))
		return 0, apperrors.Storage("failed to copy deployment events", err)
	}

	s.logger.Info("Imported deployment events",
		zap.Int64("saved_count", copyCount),
		zap.Int("events_count", len(events)))
	return copyCount, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*DeploymentEvent, error) {
	query := `SELECT ` + selectColumns + ` FROM deployment_events WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	event, err := scanEvent(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("deployment", id)
		}
		return nil, apperrors.Storage("failed to get deployment event", err)
	}
	return event, nil
}

// List reads the whole log in one statement, so callers see a consistent prefix.
func (s *PostgresStore) List(ctx context.Context) ([]*DeploymentEvent, error) {
	query := `SELECT ` + selectColumns + ` FROM deployment_events ORDER BY timestamp ASC, id ASC`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Storage("failed to query deployment events", err)
	}
	defer rows.Close()

	var events []*DeploymentEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.Storage("failed to scan deployment event row", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("error iterating deployment events", err)
	}
	return events, nil
}

// PoolStats exposes connection pool counters for the health endpoint.
func (s *PostgresStore) PoolStats() PoolStats {
	stat := s.pool.Stat()
	return PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

func scanEvent(row pgx.Row) (*DeploymentEvent, error) {
	var (
		e      DeploymentEvent
		scores []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.Timestamp,
		&e.PlanID,
		&e.Region,
		&e.RegionLabel,
		&e.CarbonIntensity,
		&e.Replicas,
		&scores,
		&e.EstimatedHourlyEnergyKwh,
		&e.EstimatedHourlyCO2Kg,
		&e.EstimatedHourlyCostUSD,
		&e.EstimatedHourlyCostINR,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(scores) > 0 {
		var s planner.Scores
		if err := json.Unmarshal(scores, &s); err != nil {
			return nil, fmt.Errorf("failed to decode scores: %w", err)
		}
		e.Scores = &s
	}
	return &e, nil
}

func marshalScores(s *planner.Scores) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}
