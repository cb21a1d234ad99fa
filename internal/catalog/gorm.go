package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinytelemetry/cachebench/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const seedBatchSize = 500

// bookRow is the ORM mapping of model.Book.
type bookRow struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	Title  string `gorm:"not null"`
	Author string `gorm:"not null;index"`
	Year   int    `gorm:"not null"`
}

func (bookRow) TableName() string { return "books" }

func (r bookRow) book() model.Book {
	return model.Book{ID: r.ID, Title: r.Title, Author: r.Author, Year: r.Year}
}

// GormRepository reads books through GORM.
type GormRepository struct {
	db *gorm.DB
}

// OpenGorm connects to postgres and migrates the books table.
func OpenGorm(dsn string) (*GormRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormRepository(db)
}

// NewGormRepository wraps an open GORM handle and migrates the books table.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&bookRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// Book returns one book by ID.
func (g *GormRepository) Book(ctx context.Context, id int64) (model.Book, error) {
	var row bookRow
	err := g.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Book{}, fmt.Errorf("%w: %d", model.ErrBookNotFound, id)
	}
	if err != nil {
		return model.Book{}, err
	}
	return row.book(), nil
}

// Books returns up to limit books ordered by ID.
func (g *GormRepository) Books(ctx context.Context, limit int) ([]model.Book, error) {
	var rows []bookRow
	if err := g.db.WithContext(ctx).Order("id").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Book, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.book())
	}
	return out, nil
}

// Seed inserts books 1..n that are not present yet.
func (g *GormRepository) Seed(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	var existing int64
	if err := g.db.WithContext(ctx).Model(&bookRow{}).Where("id <= ?", n).Count(&existing).Error; err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	if existing == int64(n) {
		return nil
	}

	rows := make([]bookRow, 0, n)
	for id := int64(1); id <= int64(n); id++ {
		b := model.SeedBook(id)
		rows = append(rows, bookRow{ID: b.ID, Title: b.Title, Author: b.Author, Year: b.Year})
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, seedBatchSize).Error
	if err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (g *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (g *GormRepository) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
