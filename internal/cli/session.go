package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yigit/sqlguide/internal/app/repositories"
	"github.com/yigit/sqlguide/internal/app/services"
	"github.com/yigit/sqlguide/internal/bootstrap"
	"github.com/yigit/sqlguide/internal/config"
	"github.com/yigit/sqlguide/internal/db"
	"github.com/yigit/sqlguide/internal/pkg/logger"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// sessionOptions selects what openSession prepares.
type sessionOptions struct {
	// Migrate applies the bookkeeping migrations, needed to record seed
	// applications.
	Migrate bool
	// Override adjusts the configuration before anything is built.
	Override func(*config.Config)
}

// session is what a database command works with.
type session struct {
	cfg  *config.Config
	lgr  zerolog.Logger
	core *bootstrap.Core
}

func (s *session) Close() {
	s.core.DB.Close()
}

func (s *session) seedService() services.SeedService {
	return services.NewSeedService(
		s.core.Seeder,
		repositories.NewSeedRepository(s.core.DB.Pool),
		s.core.Grader.Gate(),
		s.core.Metrics,
		s.lgr,
	)
}

// openSession loads the configuration, connects and wires the grader and
// seeder. Logs go to stderr; only --verbose lets info lines through.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command, so sessionOptions) (*session, error) {
	cfg, _, err := bootstrap.LoadConfigAndSetupLogger(opts.Config, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if so.Override != nil {
		so.Override(cfg)
	}

	level := logger.WarnLevel
	if opts.Verbose {
		level = logger.DebugLevel
	}
	logger.Configure(logger.Config{Level: level, Pretty: true, Output: cmd.ErrOrStderr()})
	lgr := logger.Get()

	var database *db.PostgresDB
	if so.Migrate {
		database, err = bootstrap.SetupDatabase(ctx, cfg, lgr)
	} else {
		database, err = bootstrap.ConnectDatabase(cfg, lgr)
	}
	if err != nil {
		return nil, err
	}

	core, err := bootstrap.BuildCore(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &session{cfg: cfg, lgr: lgr, core: core}, nil
}
