package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/internal/database"
	"github.com/BaSui01/retainflow/internal/migration"
	"github.com/BaSui01/retainflow/store/customer"
)

// =============================================================================
// 🗄️ migrate 命令
// =============================================================================

func runMigrate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := commandFlags("migrate", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	// SQLite 迁移通过 gorm AutoMigrate 执行，需要打开连接
	var db *gorm.DB
	if dbType, err := migration.ParseDatabaseType(cfg.Database.Driver); err == nil && dbType == migration.DatabaseTypeSQLite {
		db, err = database.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	m, err := newMigrator(cfg.Database, db, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	cli := migration.NewCLI(m)
	cli.SetOutput(stdout)
	return cli.Run(ctx, fs.Args())
}

// =============================================================================
// 📚 index 命令
// =============================================================================

func runIndex(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := commandFlags("index", stderr)
	dir := fs.String("dir", "", "Policy directory (overrides retrieval.policy_dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dir != "" {
		cfg.Retrieval.PolicyDir = *dir
	}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	fmt.Fprintf(stdout, "Building policy index from %s...\n", cfg.Retrieval.PolicyDir)
	idx, err := newPolicyIndex(cfg.Retrieval, logger).Reload(ctx)
	if err != nil {
		return err
	}

	counts := idx.ChunkCounts()
	sources := make([]string, 0, len(counts))
	for s := range counts {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Fprintf(stdout, "  %-40s %4d chunks\n", s, counts[s])
	}
	fmt.Fprintf(stdout, "Indexed %d chunks from %d sources.\n", idx.Len(), len(sources))
	return nil
}

// =============================================================================
// 🌱 seed 命令
// =============================================================================

func runSeed(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := commandFlags("seed", stderr)
	csvPath := fs.String("csv", "", "Customer CSV (defaults to customers.csv_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *csvPath == "" {
		*csvPath = cfg.Customers.CSVPath
	}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	n, err := seedCustomers(ctx, *csvPath, func() (*gorm.DB, func() error, error) {
		// seed 总是建表，与 auto_migrate 无关
		dbCfg := cfg.Database
		dbCfg.AutoMigrate = true
		db, pool, err := openDatabase(ctx, dbCfg, connectRetryer(cfg.Retry, logger), logger)
		if err != nil {
			return nil, nil, err
		}
		return db, pool.Close, nil
	}, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Seeded %d customers from %s.\n", n, *csvPath)
	return nil
}

func seedCustomers(ctx context.Context, path string, open func() (*gorm.DB, func() error, error), logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open customer csv: %w", err)
	}
	defer f.Close()

	records, err := customer.ReadCSV(f)
	if err != nil {
		return 0, fmt.Errorf("read customer csv %s: %w", path, err)
	}

	db, closeDB, err := open()
	if err != nil {
		return 0, err
	}
	defer closeDB()

	return customer.NewGormStore(db, logger).Seed(ctx, records)
}
