package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"rental-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

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
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "rental_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

// SeedDatabase inserts demo users and properties so the API is exercisable
// on a fresh database. Idempotent: skipped when rows already exist.
func SeedDatabase() {
	var userCount int64
	DB.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash default password: %v", err)
			return
		}
		users := []models.User{
			{FullName: "Alice Guest", Email: "guest@rental.local", Phone: "+15550100", Password: string(hash), Role: models.RoleGuest},
			{FullName: "Harold Host", Email: "host@rental.local", Phone: "+15550101", Password: string(hash), Role: models.RoleHost},
			{FullName: "Ada Admin", Email: "admin@rental.local", Phone: "+15550102", Password: string(hash), Role: models.RoleAdmin},
		}
		if err := DB.Create(&users).Error; err != nil {
			log.Printf("warning: failed to seed users: %v", err)
			return
		}
		log.Println("Users seeded")

		properties := []models.Property{
			{OwnerID: users[1].ID, Title: "Seaside Cottage", City: "Brighton", PricePerNight: 120, CleaningFee: 30, ServiceFee: 15, Currency: "USD", MaxGuests: 4},
			{OwnerID: users[1].ID, Title: "Downtown Loft", City: "Austin", PricePerNight: 95, CleaningFee: 20, ServiceFee: 12, Currency: "USD", MaxGuests: 2},
		}
		if err := DB.Create(&properties).Error; err != nil {
			log.Printf("warning: failed to seed properties: %v", err)
			return
		}
		log.Println("Properties seeded")
	}
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Booking{},
		&models.OTPChallenge{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}
