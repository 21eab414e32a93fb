package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/cache"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db             *gorm.DB
	catalog        repositories.CatalogRepository
	attempt        repositories.AttemptRepository
	askedItem      repositories.AskedItemRepository
	answer         repositories.AnswerRepository
	result         repositories.ResultRepository
	recommendation repositories.RecommendationRepository
	session        repositories.SessionRepository
	student        repositories.StudentRepository
}

// NewRepository wires every gorm-backed store over db. cacheService may be nil.
func NewRepository(db *gorm.DB, cacheService cache.CacheService, catalogTTL time.Duration, logger *slog.Logger) repositories.Repository {
	return &repository{
		db:             db,
		catalog:        NewCatalogPostgreSQL(db, cacheService, catalogTTL, logger),
		attempt:        NewAttemptPostgreSQL(db),
		askedItem:      NewAskedItemPostgreSQL(db),
		answer:         NewAnswerPostgreSQL(db),
		result:         NewResultPostgreSQL(db),
		recommendation: NewRecommendationPostgreSQL(db),
		session:        NewSessionPostgreSQL(db),
		student:        NewStudentPostgreSQL(db),
	}
}

func (r *repository) Catalog() repositories.CatalogRepository               { return r.catalog }
func (r *repository) Attempt() repositories.AttemptRepository               { return r.attempt }
func (r *repository) AskedItem() repositories.AskedItemRepository           { return r.askedItem }
func (r *repository) Answer() repositories.AnswerRepository                 { return r.answer }
func (r *repository) Result() repositories.ResultRepository                 { return r.result }
func (r *repository) Recommendation() repositories.RecommendationRepository { return r.recommendation }
func (r *repository) Session() repositories.SessionRepository               { return r.session }
func (r *repository) Student() repositories.StudentRepository               { return r.student }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table the service owns.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
