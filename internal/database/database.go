package database

import (
	"log"
	"os"
	"time"

	"quizclash/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// RDB is the shared Redis client. It may be nil (e.g. in tests); callers
// that cache through it must treat it as optional.
var RDB *redis.Client

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) {
	var err error

	// Configure GORM logger
	customLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,                   // Enable color
		},
	)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: customLogger,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established.")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migrated successfully.")
}

// Migrate runs the schema migrations for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Question{},
		&models.Answer{},
		&models.Game{},
		&models.GamePlayer{},
		&models.GameQuestion{},
		&models.PlayerAnswer{},
	)
}

// ConnectRedis initializes the shared Redis client.
func ConnectRedis(addr string) {
	RDB = redis.NewClient(&redis.Options{
		Addr: addr,
	})
	log.Printf("Redis client configured for %s.", addr)
}
