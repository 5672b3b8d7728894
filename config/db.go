package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hotel-sync/logger"
	"hotel-sync/models"
)

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	// Stay dates are stored at UTC midnight.
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

// MySQLDSN resolves the DSN from MYSQL_URL/DATABASE_URL or the DB_* parts.
func (c Config) MySQLDSN() (string, error) {
	if c.DatabaseURL != "" {
		if strings.HasPrefix(c.DatabaseURL, "mysql://") {
			return mysqlDSNFromURL(c.DatabaseURL)
		}
		return c.DatabaseURL, nil
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName,
	), nil
}

// ConnectDatabase opens MySQL and, when enabled, migrates and seeds it.
func ConnectDatabase(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	dsn, err := cfg.MySQLDSN()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(log, gormlogger.Warn, time.Second),
	})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	if cfg.SeedData {
		SeedDatabase(db, log)
	}
	return db, nil
}

// Migrate creates or updates every sync engine table, parents first.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.AllModels()...)
}

// SeedDatabase inserts a demo inventory when the tables are empty.
func SeedDatabase(db *gorm.DB, log *zap.Logger) {
	var rtCount int64
	db.Model(&models.RoomType{}).Count(&rtCount)
	if rtCount > 0 {
		log.Info("inventory already seeded")
		return
	}

	roomTypes := []models.RoomType{
		{TypeName: "Standard", Description: "Standard Room", MaxGuests: 2, Quantity: 1, ExternalRef: "STD"},
		{TypeName: "Superior", Description: "Superior Room", MaxGuests: 3, Quantity: 1, ExternalRef: "SUP"},
		{TypeName: "Dormitory", Description: "Shared dormitory beds", MaxGuests: 1, Quantity: 8, ExternalRef: "DORM"},
	}
	if err := db.Create(&roomTypes).Error; err != nil {
		log.Warn("failed to seed room types", zap.Error(err))
		return
	}

	rooms := []models.Room{
		{RoomTypeID: &roomTypes[0].ID, RoomNumber: "101", ExternalRef: "R101", Status: models.RoomStatusAvailable, Floor: "1"},
		{RoomTypeID: &roomTypes[0].ID, RoomNumber: "102", ExternalRef: "R102", Status: models.RoomStatusAvailable, Floor: "1"},
		{RoomTypeID: &roomTypes[1].ID, RoomNumber: "201", ExternalRef: "R201", Status: models.RoomStatusAvailable, Floor: "2"},
	}
	if err := db.Create(&rooms).Error; err != nil {
		log.Warn("failed to seed rooms", zap.Error(err))
		return
	}
	log.Info("inventory seeded", zap.Int("room_types", len(roomTypes)), zap.Int("rooms", len(rooms)))
}
