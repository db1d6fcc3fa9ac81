package database

import (
	"errors"
	"fmt"

	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init 连接 PostgreSQL 并完成迁移
func Init(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	return Open(postgres.Open(dsn), logLevel)
}

// Open 使用给定方言打开数据库，迁移表结构并写入成就目录
func Open(dialector gorm.Dialector, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := SeedAchievements(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.DepositModel{},
		&model.ProjectModel{},
		&model.DistributionModel{},
		&model.AuditTrailModel{},
		&model.RewardPointsModel{},
		&model.PointsHistoryModel{},
		&model.AchievementModel{},
		&model.UserAchievementModel{},
		&model.UserModel{},
		&model.ChainEventModel{},
		&model.MonitorCursorModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DefaultAchievements 内置成就目录，按所需积分升序
var DefaultAchievements = []model.AchievementModel{
	{
		Name:           "First Step",
		Description:    "Made your first deposit into the impact vault",
		Image:          "/badges/first-step.svg",
		Criteria:       "Earn at least 1 point",
		PointsRequired: 1,
	},
	{
		Name:           "Rising Supporter",
		Description:    "Contributed 100 USDC worth of deposits",
		Image:          "/badges/rising-supporter.svg",
		Criteria:       "Earn at least 100 points",
		PointsRequired: 100,
	},
	{
		Name:           "Impact Maker",
		Description:    "Reached the Silver level of giving",
		Image:          "/badges/impact-maker.svg",
		Criteria:       "Earn at least 1000 points",
		PointsRequired: 1000,
	},
	{
		Name:           "Champion of Change",
		Description:    "Reached the Gold level of giving",
		Image:          "/badges/champion.svg",
		Criteria:       "Earn at least 5000 points",
		PointsRequired: 5000,
	},
	{
		Name:           "Humanitarian Hero",
		Description:    "Reached the Platinum level of giving",
		Image:          "/badges/hero.svg",
		Criteria:       "Earn at least 10000 points",
		PointsRequired: 10000,
	},
}

// SeedAchievements 按名称幂等写入成就目录
func SeedAchievements(db *gorm.DB) error {
	for _, a := range DefaultAchievements {
		var existing model.AchievementModel
		err := db.Where("name = ?", a.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up achievement %q: %w", a.Name, err)
		}

		achievement := a
		if err := db.Create(&achievement).Error; err != nil {
			return fmt.Errorf("failed to seed achievement %q: %w", a.Name, err)
		}
	}
	return nil
}
