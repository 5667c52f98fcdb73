// Package catalog is cloudraid's local bookkeeping store: which storages
// exist, which keys exist, and where every block replica of every file
// lives.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/cloudraid/internal/logger"
)

// DatabaseType selects the catalog's backing SQL dialect.
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	// Path is the catalog database file. Default: $XDG_CONFIG_HOME/cloudraid/catalog.db
	Path string
}

// PostgresConfig holds PostgreSQL-specific settings, for deployments that
// want the catalog to outlive a single machine (§4.7 of the expanded spec).
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config selects and configures the catalog's backing database.
type Config struct {
	Type     DatabaseType
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// ApplyDefaults fills unset fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config")
		}
		c.SQLite.Path = filepath.Join(configDir, "cloudraid", "catalog.db")
	}
	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
	}
}

// Validate checks that the configuration is complete for its Type.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// Catalog implements the block/file/storage/key bookkeeping on top of GORM.
// It supports both SQLite (default, single machine) and PostgreSQL (§4.7).
type Catalog struct {
	db     *gorm.DB
	config *Config
}

// New opens (and migrates) the catalog database described by config.
func New(config *Config) (*Catalog, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}

	logger.Info("catalog ready", "type", string(config.Type))
	return &Catalog{db: db, config: config}, nil
}

// DB returns the underlying GORM handle, for tests and advanced queries.
func (c *Catalog) DB() *gorm.DB {
	return c.db
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}

// AddStorage registers a new storage backend.
func (c *Catalog) AddStorage(ctx context.Context, token string, storageType string) (*Storage, error) {
	row := &Storage{Token: token, Type: storageType}
	if err := c.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrStorageAlreadyExists
		}
		return nil, fmt.Errorf("add storage: %w", err)
	}
	return row, nil
}

// GetStorages returns every registered storage.
func (c *Catalog) GetStorages(ctx context.Context) ([]Storage, error) {
	var rows []Storage
	if err := c.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get storages: %w", err)
	}
	return rows, nil
}

// GetStorageByToken looks up a storage by its catalog token.
func (c *Catalog) GetStorageByToken(ctx context.Context, token string) (*Storage, error) {
	var row Storage
	if err := c.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, convertNotFoundError(err, ErrUnknownStorage)
	}
	return &row, nil
}

// DeleteStorage removes a storage row. It does not touch blocks placed on
// it; callers must wipe those first (the CLI's "storage wipe" command).
func (c *Catalog) DeleteStorage(ctx context.Context, token string) error {
	res := c.db.WithContext(ctx).Where("token = ?", token).Delete(&Storage{})
	if res.Error != nil {
		return fmt.Errorf("delete storage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownStorage
	}
	return nil
}

// AddKey registers a new cipher key by its material. The material is the
// unique identity — callers that want a friendly label manage that mapping
// themselves; the catalog only ever compares key material.
func (c *Catalog) AddKey(ctx context.Context, material string) (*Key, error) {
	row := &Key{Key: material}
	if err := c.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrKeyAlreadyExists
		}
		return nil, fmt.Errorf("add key: %w", err)
	}
	return row, nil
}

// GetKeys returns every registered key.
func (c *Catalog) GetKeys(ctx context.Context) ([]Key, error) {
	var rows []Key
	if err := c.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get keys: %w", err)
	}
	return rows, nil
}

// GetKeyByMaterial looks up a key by its material.
func (c *Catalog) GetKeyByMaterial(ctx context.Context, material string) (*Key, error) {
	var row Key
	if err := c.db.WithContext(ctx).Where("key = ?", material).First(&row).Error; err != nil {
		return nil, convertNotFoundError(err, ErrUnknownKey)
	}
	return &row, nil
}

// GetKeyByID looks up a key by its catalog id, used to resolve a Block's
// KeyID back to the cipher that must decrypt it.
func (c *Catalog) GetKeyByID(ctx context.Context, id uint) (*Key, error) {
	var row Key
	if err := c.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, convertNotFoundError(err, ErrUnknownKey)
	}
	return &row, nil
}

// AddFile inserts a new file row with zero progress, or returns
// ErrFileAlreadyExists if filename is already complete. If filename exists,
// is incomplete, and carries the same checksum (a prior upload of the same
// content was interrupted), the existing row is returned so the upload
// engine can resume it. A checksum mismatch against an existing row — same
// filename, different content — also fails with ErrFileAlreadyExists rather
// than resuming: resuming would graft the new content onto a block layout
// sized for the old one, silently corrupting the file.
func (c *Catalog) AddFile(ctx context.Context, file *File) (*File, bool, error) {
	var existing File
	err := c.db.WithContext(ctx).Where("filename = ?", file.Filename).First(&existing).Error
	switch {
	case err == nil:
		if existing.Checksum != file.Checksum {
			return nil, false, ErrFileAlreadyExists
		}
		if existing.UploadedBlocks >= existing.TotalBlocks {
			return nil, false, ErrFileAlreadyExists
		}
		return &existing, true, nil // resume
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := c.db.WithContext(ctx).Create(file).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, false, ErrFileAlreadyExists
			}
			return nil, false, fmt.Errorf("add file: %w", err)
		}
		return file, false, nil
	default:
		return nil, false, fmt.Errorf("lookup file: %w", err)
	}
}

// GetFiles returns every catalog file.
func (c *Catalog) GetFiles(ctx context.Context) ([]File, error) {
	var rows []File
	if err := c.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get files: %w", err)
	}
	return rows, nil
}

// GetFileByFilename looks up a file by its catalog name.
func (c *Catalog) GetFileByFilename(ctx context.Context, filename string) (*File, error) {
	var row File
	if err := c.db.WithContext(ctx).Where("filename = ?", filename).First(&row).Error; err != nil {
		return nil, convertNotFoundError(err, ErrUnknownFile)
	}
	return &row, nil
}

// DeleteFile removes a file and every block row referencing it.
func (c *Catalog) DeleteFile(ctx context.Context, filename string) (*File, error) {
	var file File
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("filename = ?", filename).First(&file).Error; err != nil {
			return convertNotFoundError(err, ErrUnknownFile)
		}
		if err := tx.Where("file_id = ?", file.ID).Delete(&Block{}).Error; err != nil {
			return fmt.Errorf("delete blocks: %w", err)
		}
		if err := tx.Delete(&file).Error; err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// IncrementUploadedBlocks bumps a file's progress counter by n, used after
// each batch commit in the upload engine.
func (c *Catalog) IncrementUploadedBlocks(ctx context.Context, fileID uint, n int) error {
	res := c.db.WithContext(ctx).Model(&File{}).Where("id = ?", fileID).
		UpdateColumn("uploaded_blocks", gorm.Expr("uploaded_blocks + ?", n))
	if res.Error != nil {
		return fmt.Errorf("increment uploaded blocks: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownFile
	}
	return nil
}

// AddBlocks inserts a batch of block rows in one transaction, so the
// upload engine can commit a wave of completed replicas together instead
// of once per block.
func (c *Catalog) AddBlocks(ctx context.Context, blocks []Block) error {
	if len(blocks) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).Create(&blocks).Error; err != nil {
		return fmt.Errorf("add blocks: %w", err)
	}
	return nil
}

// GetBlocksByFile returns every block replica for file, ordered by number
// then duplicate number.
func (c *Catalog) GetBlocksByFile(ctx context.Context, fileID uint) ([]Block, error) {
	var rows []Block
	if err := c.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("number, duplicate_number").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get blocks: %w", err)
	}
	return rows, nil
}

// GetBlocksGroupedByNumber returns a file's blocks bucketed by logical
// block number, each bucket holding every surviving replica for that
// number — the shape the download engine's per-block-number
// replica-fallback loop consumes directly.
func (c *Catalog) GetBlocksGroupedByNumber(ctx context.Context, fileID uint) (map[int][]Block, error) {
	rows, err := c.GetBlocksByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[int][]Block)
	for _, b := range rows {
		grouped[b.Number] = append(grouped[b.Number], b)
	}
	return grouped, nil
}

// UploadedBlockNumbers returns the set of logical block numbers that
// already have at least one replica recorded. The upload engine's resume
// filter does not use it: it counts replicas per number through
// GetBlocksGroupedByNumber instead.
func (c *Catalog) UploadedBlockNumbers(ctx context.Context, fileID uint) (map[int]bool, error) {
	var numbers []int
	if err := c.db.WithContext(ctx).Model(&Block{}).
		Where("file_id = ?", fileID).
		Distinct().Pluck("number", &numbers).Error; err != nil {
		return nil, fmt.Errorf("uploaded block numbers: %w", err)
	}
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set, nil
}
