package container

import (
	"context"
	"fmt"
	"io"

	"proxtest/adapters/battery"
	"proxtest/adapters/excel"
	"proxtest/adapters/postgres"
	"proxtest/adapters/report"
	"proxtest/adapters/rng"
	"proxtest/app"
	"proxtest/internal"
	"proxtest/internal/config"
	"proxtest/internal/permtest"
	"proxtest/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Ports
	Reader    ports.TableReaderPort
	Battery   ports.BatteryPort
	Reporters []ports.ReportPort
	Runs      ports.RunRepositoryPort

	// Services
	Proximity *app.ProximityService
}

// New creates a container from configuration. stdout receives the text
// summary; file reports and the run store are added when configured.
func New(cfg *config.Config, logger *internal.Logger, stdout io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	engine, err := permtest.NewEngine(rng.NewAdapter(), logger, permtest.Options{
		Iterations: cfg.Run.Iterations,
		Workers:    cfg.Run.Workers,
		Seed:       cfg.Run.Seed,
		Policy:     cfg.Policy(),
	})
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Reader:  excel.NewTableReaderAdapter(excel.DefaultExcelConfig(), logger),
		Battery: battery.NewReferee(engine, cfg.Run.Alpha, logger),
	}

	if stdout != nil {
		c.Reporters = append(c.Reporters, report.NewTextReporter(stdout))
	}
	if cfg.Report.Dir != "" {
		c.Reporters = append(c.Reporters, report.NewMarkdownReporter(cfg.Report.Dir, cfg.Report.HTML))
		if cfg.Report.PerIterationCSV {
			c.Reporters = append(c.Reporters, report.NewIterationCSVReporter(cfg.Report.Dir))
		}
	}
	return c, nil
}

// InitWithDatabase connects the run store named by the configuration.
// It is a no-op when no database URL is set.
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		return nil
	}

	db, err := postgres.Open(ctx, c.Config.Database.URL)
	if err != nil {
		return err
	}
	runs, err := postgres.NewRunRepository(ctx, db)
	if err != nil {
		db.Close()
		return err
	}

	c.DB = db
	c.Runs = runs
	c.Logger.Debug("run store connected")
	return nil
}

// ProximityService returns the service wired to the container's ports
func (c *Container) ProximityService() *app.ProximityService {
	if c.Proximity == nil {
		c.Proximity = app.NewProximityService(c.Reader, c.Battery, c.Runs, c.Logger, c.Reporters...)
	}
	return c.Proximity
}

// Close releases infrastructure
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
