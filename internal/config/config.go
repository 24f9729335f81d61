package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenMaxAge  int
	RefreshTokenMaxAge int

	// BlobDriver selects the media backend: "s3" or "drive".
	BlobDriver string

	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicURL       string

	DriveCredentialsFile string
	DriveAvatarFolderID  string
	DriveHeaderFolderID  string
	DrivePostFolderID    string

	RedisURL string

	CORSOrigins []string

	LoginRatePerMinute int
	LoginRateBurst     int
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	accessTokenMaxAge, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_MAX_AGE"))
	if err != nil || accessTokenMaxAge <= 0 {
		accessTokenMaxAge = 900
	}

	refreshTokenMaxAge, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_MAX_AGE"))
	if err != nil || refreshTokenMaxAge <= 0 {
		refreshTokenMaxAge = 604800
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "3500"
	}

	blobDriver := os.Getenv("BLOB_DRIVER")
	if blobDriver == "" {
		blobDriver = "s3"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	loginRate, err := strconv.Atoi(os.Getenv("LOGIN_RATE_PER_MINUTE"))
	if err != nil || loginRate <= 0 {
		loginRate = 10
	}

	loginBurst, err := strconv.Atoi(os.Getenv("LOGIN_RATE_BURST"))
	if err != nil || loginBurst <= 0 {
		loginBurst = 5
	}

	var corsOrigins []string
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			corsOrigins = append(corsOrigins, origin)
		}
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,

		ServerPort: serverPort,

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenMaxAge:  accessTokenMaxAge,
		RefreshTokenMaxAge: refreshTokenMaxAge,

		BlobDriver: blobDriver,

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          os.Getenv("S3_REGION"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3BucketName:      os.Getenv("S3_BUCKET_NAME"),
		S3PublicURL:       os.Getenv("S3_PUBLIC_URL"),

		DriveCredentialsFile: os.Getenv("GOOGLE_DRIVE_CREDENTIALS_FILE"),
		DriveAvatarFolderID:  os.Getenv("GOOGLE_DRIVE_USERAVATAR_FOLDERID"),
		DriveHeaderFolderID:  os.Getenv("GOOGLE_DRIVE_USERHEADER_FOLDERID"),
		DrivePostFolderID:    os.Getenv("GOOGLE_DRIVE_POSTMEDIA_FOLDERID"),

		RedisURL: os.Getenv("REDIS_URL"),

		CORSOrigins: corsOrigins,

		LoginRatePerMinute: loginRate,
		LoginRateBurst:     loginBurst,
	}, nil
}
