package database

import (
	"coaching_backend/internal/config"
	"coaching_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// shouldMigrate release 模式下结构变更交给运维流程，
// --migrate / --migrate-only 置 ForceMigrate 后仍可强制执行
func shouldMigrate(cfg *config.Config) bool {
	return cfg.Server.Mode != "release" || cfg.ForceMigrate
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !shouldMigrate(cfg) {
		log.Println("Database migration skipped (release mode, use --migrate to force)")
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Batch{},
		&model.BatchMember{},
		&model.Assessment{},
		&model.AssessmentQuestion{},
		&model.AssessmentAttempt{},
		&model.AttemptAnswer{},
		&model.Notification{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
