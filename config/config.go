package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/casedock/casedock-api/apperrors"
)

// Config holds the project config values
type Config struct {
	URL          string `yaml:"dbUri"`
	DatabaseName string `yaml:"dbName"`
	BaseURL      string `yaml:"baseUrl"`
	Port         string `yaml:"port"`
	Environment  string `yaml:"environment"`

	JWTSecret      string        `yaml:"jwtSecret"`
	JWTIssuer      string        `yaml:"jwtIssuer"`
	SessionTTL     time.Duration `yaml:"sessionTtl"`
	CookieName     string        `yaml:"cookieName"`
	CookieSecure   bool          `yaml:"cookieSecure"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	StorageDriver       string `yaml:"storageDriver"`
	CloudinaryCloudName string `yaml:"cloudinaryCloudName"`
	CloudinaryAPIKey    string `yaml:"cloudinaryApiKey"`
	CloudinaryAPISecret string `yaml:"cloudinaryApiSecret"`
	CloudinaryFolder    string `yaml:"cloudinaryFolder"`
	MinioEndpoint       string `yaml:"minioEndpoint"`
	MinioAccessKey      string `yaml:"minioAccessKey"`
	MinioSecretKey      string `yaml:"minioSecretKey"`
	MinioBucket         string `yaml:"minioBucket"`
	MinioUseSSL         bool   `yaml:"minioUseSsl"`
	MaxUploadBytes      int64  `yaml:"maxUploadBytes"`
	MaxFilesPerRequest  int    `yaml:"maxFilesPerRequest"`

	SendgridAPIKey string `yaml:"sendgridApiKey"`
	MailFromName   string `yaml:"mailFromName"`
	MailFromEmail  string `yaml:"mailFromEmail"`

	ReconcileSchedule string `yaml:"reconcileSchedule"`
}

// defaults applied before the config file and the environment
func defaults() Config {
	return Config{
		DatabaseName:       "casedock",
		Port:               "8080",
		Environment:        "production",
		JWTIssuer:          "casedock-api",
		SessionTTL:         24 * time.Hour,
		CookieName:         "token",
		RequestTimeout:     60 * time.Second,
		StorageDriver:      "cloudinary",
		CloudinaryFolder:   "casedock",
		MinioBucket:        "casedock",
		MaxUploadBytes:     10 << 20,
		MaxFilesPerRequest: 10,
		MailFromName:       "CaseDock",
		MailFromEmail:      "no-reply@casedock.app",
		ReconcileSchedule:  "@hourly",
	}
}

// New sets up all config related services
func New() *Config {
	conf, err := Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// fall back to env and defaults, the file is optional
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		conf = defaults()
		applyEnv(&conf)
	}

	//setup zap logger and replace default logger
	logger, err := setLogger(conf.Environment)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return &conf
}

// Load reads the optional YAML file at path and then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	conf := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return conf, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return conf, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&conf)
	return conf, nil
}

func applyEnv(conf *Config) {
	setString(&conf.URL, "DB_URI")
	setString(&conf.DatabaseName, "DB_NAME")
	setString(&conf.BaseURL, "BASE_URL")
	setString(&conf.Port, "PORT")
	setString(&conf.Environment, "ENVIRONMENT")

	setString(&conf.JWTSecret, "JWT_SECRET")
	setString(&conf.JWTIssuer, "JWT_ISSUER")
	setDuration(&conf.SessionTTL, "SESSION_TTL")
	setString(&conf.CookieName, "COOKIE_NAME")
	setBool(&conf.CookieSecure, "COOKIE_SECURE")
	setDuration(&conf.RequestTimeout, "REQUEST_TIMEOUT")

	setString(&conf.RedisAddr, "REDIS_ADDR")
	setString(&conf.RedisPassword, "REDIS_PASSWORD")

	setString(&conf.StorageDriver, "STORAGE_DRIVER")
	setString(&conf.CloudinaryCloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&conf.CloudinaryAPIKey, "CLOUDINARY_API_KEY")
	setString(&conf.CloudinaryAPISecret, "CLOUDINARY_API_SECRET")
	setString(&conf.CloudinaryFolder, "CLOUDINARY_FOLDER")
	setString(&conf.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&conf.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&conf.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&conf.MinioBucket, "MINIO_BUCKET")
	setBool(&conf.MinioUseSSL, "MINIO_USE_SSL")
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			conf.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("MAX_FILES_PER_REQUEST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			conf.MaxFilesPerRequest = n
		}
	}

	setString(&conf.SendgridAPIKey, "SENDGRID_API_KEY")
	setString(&conf.MailFromName, "MAIL_FROM_NAME")
	setString(&conf.MailFromEmail, "MAIL_FROM_EMAIL")
	setString(&conf.ReconcileSchedule, "RECONCILE_SCHEDULE")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.URL == "" {
		return fmt.Errorf("DB_URI is not set")
	}
	return nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)
	writeMessage(w, httpStatusCode, message)
}

// ErrorResponse writes err using its classified status. Internal and upstream
// failures are logged and reported with their generic message only.
func ErrorResponse(w http.ResponseWriter, err error) {
	ae := apperrors.As(err)
	switch ae.Kind {
	case apperrors.KindInternal, apperrors.KindUpstream:
		zap.S().Errorw(ae.Message, "code", ae.Code, "error", err)
	default:
		zap.S().Debugw(ae.Message, "code", ae.Code)
	}
	writeMessage(w, ae.HTTPStatus(), ae.Message)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
