package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/clinmodel/eclbridge/cmd/eclbridge/api"
	"github.com/clinmodel/eclbridge/cmd/eclbridge/audit"
	"github.com/clinmodel/eclbridge/cmd/eclbridge/conversion"
	"github.com/clinmodel/eclbridge/cmd/eclbridge/export"
	"github.com/clinmodel/eclbridge/cmd/eclbridge/model"
	"github.com/clinmodel/eclbridge/util"
)

func main() {
	startTime := time.Now()

	// A missing .env file is fine, configuration may come entirely from
	// the process environment.
	_ = godotenv.Load(".env")

	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).With().Timestamp().Caller().Logger()

	policy := conversion.Policy{
		SkipExistingECL:      util.EnvBool("SKIP_EXISTING_ECL", true),
		DebugMode:            util.EnvBool("DEBUG_MODE", false),
		LogNonSnomedElements: util.EnvBool("LOG_NON_SNOMED", false),
	}
	if policy.DebugMode {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}
	log.Debug().Msg("Starting eclbridge")

	runner, err := newBatchRunner(policy, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up conversion run")
	}
	defer runner.close()

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		router := api.NewRouter(runner, log)
		log.Info().Str("addr", addr).Msg("Serving conversion API")
		if err := http.ListenAndServe(addr, router.SetupRoutes()); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
		return
	}

	stats, err := runner.RunBatch()
	if err != nil {
		log.Fatal().Err(err).Msg("Conversion run failed")
	}

	log.Info().
		Int("examined", stats.Examined).
		Int("converted", stats.Converted).
		Int("skippedExisting", stats.SkippedExisting).
		Int("noSnomedPattern", stats.NoPattern).
		Int("errors", stats.Errors).
		Dur("duration", time.Since(startTime)).
		Msg("Done")
}

// batchRunner owns the configured stores and runs one full conversion
// batch: load elements, convert, persist, export, audit.
type batchRunner struct {
	policy  conversion.Policy
	log     zerolog.Logger
	db      *sqlx.DB
	dbRepo  *model.Repository
	files   *model.FileRepository
	export  *export.Service
	records *audit.Store
}

func newBatchRunner(policy conversion.Policy, log zerolog.Logger) (*batchRunner, error) {
	r := &batchRunner{policy: policy, log: log}

	switch {
	case os.Getenv("ELEMENT_DB_URL") != "":
		db, err := sqlx.Connect("postgres", os.Getenv("ELEMENT_DB_URL"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to the element database: %w", err)
		}
		r.db = db
		r.dbRepo = model.NewRepository(db, log)
	case os.Getenv("MODEL_PATH") != "":
		r.files = model.NewFileRepository(log, os.Getenv("MODEL_PATH"))
	default:
		return nil, fmt.Errorf("either ELEMENT_DB_URL or MODEL_PATH must be set")
	}

	if outDir := os.Getenv("EXPORT_PATH"); outDir != "" {
		svc, err := export.NewService(log, outDir, os.Getenv("VALUESET_BASE_URL"))
		if err != nil {
			return nil, fmt.Errorf("failed to set up ValueSet export: %w", err)
		}
		r.export = svc
	}

	if dsn := os.Getenv("AUDIT_DB_URL"); dsn != "" {
		store, err := audit.NewStore(dsn, log)
		if err != nil {
			return nil, fmt.Errorf("failed to set up audit store: %w", err)
		}
		r.records = store
	}

	return r, nil
}

// RunBatch implements api.Runner.
func (r *batchRunner) RunBatch() (conversion.Stats, error) {
	svc := conversion.NewService(r.policy, r.log)
	var stats conversion.Stats
	var allRecords []conversion.Record

	if r.dbRepo != nil {
		root, err := r.dbRepo.LoadTree()
		if err != nil {
			return stats, err
		}
		runStats, records := svc.Run(root)
		stats.Merge(runStats)
		allRecords = append(allRecords, records...)

		if err := r.dbRepo.SaveTree(root); err != nil {
			return stats, fmt.Errorf("failed to persist converted elements: %w", err)
		}
		if r.export != nil {
			if _, err := r.export.ExportValueSets(root); err != nil {
				return stats, err
			}
		}
	}

	if r.files != nil {
		if err := r.files.LoadModels(); err != nil {
			return stats, err
		}
		for name, root := range r.files.Models() {
			runStats, records := svc.Run(root)
			stats.Merge(runStats)
			allRecords = append(allRecords, records...)

			if err := r.files.SaveModel(name, root); err != nil {
				return stats, err
			}
			if r.export != nil {
				if _, err := r.export.ExportValueSets(root); err != nil {
					return stats, err
				}
			}
		}
	}

	if r.records != nil && len(allRecords) > 0 {
		if err := r.records.Save(allRecords); err != nil {
			r.log.Error().Err(err).Msg("Failed to write audit records")
		}
	}

	return stats, nil
}

func (r *batchRunner) close() {
	if r.db != nil {
		r.db.Close()
	}
	if r.records != nil {
		r.records.Close()
	}
}
