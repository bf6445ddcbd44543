package database

import (
	"fmt"
	"log"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// ShouldMigrate reports whether startup should run AutoMigrate. Release
// deployments migrate only when explicitly asked to.
func ShouldMigrate(mode string, force bool) bool {
	if force {
		return true
	}
	return mode != "release"
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.MentorSchedule{},
		&model.TimeSlot{},
		&model.SlotReservation{},
		&model.StudentSubscription{},
		&model.SubscriptionTransaction{},
		&model.StudentProgress{},
		&model.LevelVerification{},
		&model.VerificationRequirement{},
		&model.VerificationSubmission{},
		&model.SlotRequest{},
		&model.Booking{},
		&model.NotificationEvent{},
	)

	if err != nil {
		return err
	}

	log.Println("Database migration completed")

	return nil
}
