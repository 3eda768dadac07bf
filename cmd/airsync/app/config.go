package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/airsync/pkg/applicants"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/journalclub"
	"github.com/agentstation/airsync/pkg/mailinglist"
	"github.com/agentstation/airsync/pkg/rfd"
	"github.com/agentstation/airsync/pkg/store"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Stores
	Store store.Config
	Blob  blob.Config

	// Remote mirror
	Airtable AirtableConfig

	// Notifications and upstream sources
	SlackWebhookURL string
	SendGridAPIKey  string
	EmailDomain     string
	GitHubToken     string
	GitHubOrg       string
	SubscribersCSV  string
	ApplicantSheets []SheetConfig

	// Sync behaviour
	Concurrency      int
	AutoSyncInterval time.Duration

	// Health and metrics server
	ServerHost string
	ServerPort int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// AirtableConfig locates the remote bases and tables.
type AirtableConfig struct {
	APIKey string
	View   string
	// Bases maps an entity to its base id.
	Bases map[string]string
	// Tables maps an entity to its table names, in the order the entity
	// expects them.
	Tables map[string][]string
}

// SheetConfig is one role's application form export.
type SheetConfig struct {
	Role string `mapstructure:"role" yaml:"role"`
	ID   string `mapstructure:"id" yaml:"id"`
	Path string `mapstructure:"path" yaml:"path"`
}

// envBindings maps viper keys to the environment variables that set them.
var envBindings = map[string][]string{
	"airtable.api_key":            {"AIRTABLE_API_KEY"},
	"airtable.view":               {"AIRTABLE_GRID_VIEW"},
	"airtable.bases.journal_club": {"AIRTABLE_BASE_ID_MISC"},
	"airtable.bases.rfds":         {"AIRTABLE_BASE_ID_RACK_ROADMAP"},
	"airtable.bases.mailing_list": {"AIRTABLE_BASE_ID_CUSTOMER_LEADS"},
	"airtable.bases.applicants":   {"AIRTABLE_BASE_ID_RECRUITING_APPLICATIONS", "AIRTABLE_BASE_ID_RECURITING_APPLICATIONS"},
	"airtable.tables.meetings":    {"AIRTABLE_JOURNAL_CLUB_MEETINGS_TABLE"},
	"airtable.tables.papers":      {"AIRTABLE_JOURNAL_CLUB_PAPERS_TABLE"},
	"airtable.tables.rfds":        {"AIRTABLE_RFD_TABLE"},
	"airtable.tables.subscribers": {"AIRTABLE_MAILING_LIST_SIGNUPS_TABLE"},
	"airtable.tables.applicants":  {"AIRTABLE_APPLICATIONS_TABLE"},
	"store.driver":                {"DB_DRIVER"},
	"store.dsn":                   {"DATABASE_URL"},
	"blob.driver":                 {"BLOB_DRIVER"},
	"blob.root":                   {"BLOB_ROOT"},
	"blob.s3.bucket":              {"BLOB_S3_BUCKET"},
	"blob.s3.region":              {"BLOB_S3_REGION", "AWS_REGION"},
	"blob.s3.endpoint":            {"BLOB_S3_ENDPOINT"},
	"blob.s3.prefix":              {"BLOB_S3_PREFIX"},
	"blob.s3.path_style":          {"BLOB_S3_PATH_STYLE"},
	"blob.s3.access_key_id":       {"BLOB_S3_ACCESS_KEY_ID"},
	"blob.s3.secret_access_key":   {"BLOB_S3_SECRET_ACCESS_KEY"},
	"slack.webhook_url":           {"SLACK_WEBHOOK_URL"},
	"sendgrid.api_key":            {"SENDGRID_API_KEY"},
	"sendgrid.domain":             {"EMAIL_TEMPLATE_DOMAIN"},
	"github.token":                {"GITHUB_TOKEN"},
	"github.org":                  {"GITHUB_ORG"},
	"sources.subscribers_csv":     {"SUBSCRIBERS_CSV"},
	"sync.concurrency":            {"SYNC_CONCURRENCY"},
	"sync.auto_sync_interval":     {"AUTO_SYNC_INTERVAL"},
	"server.host":                 {"SERVER_HOST"},
	"server.port":                 {"SERVER_PORT"},
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.airsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}
	setDefaults(v)

	if configFile := os.Getenv("AIRSYNC_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".airsync")
	}

	// Read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return configFrom(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("airtable.view", constants.DefaultView)
	v.SetDefault("airtable.tables.meetings", constants.MeetingsTable)
	v.SetDefault("airtable.tables.papers", constants.PapersTable)
	v.SetDefault("airtable.tables.rfds", constants.RFDsTable)
	v.SetDefault("airtable.tables.subscribers", constants.SubscribersTable)
	v.SetDefault("airtable.tables.applicants", constants.ApplicantsTable)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", "airsync.db")
	v.SetDefault("blob.driver", string(blob.DriverFilesystem))
	v.SetDefault("blob.root", "backups")
	v.SetDefault("github.org", "oxidecomputer")
	v.SetDefault("sync.concurrency", constants.DefaultConcurrency)
	v.SetDefault("sync.auto_sync_interval", constants.DefaultAutoSyncInterval)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 9090)
}

func configFrom(v *viper.Viper) (*Config, error) {
	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Store: store.Config{
			Driver: v.GetString("store.driver"),
			DSN:    v.GetString("store.dsn"),
		},
		Blob: blob.Config{
			Driver: blob.Driver(v.GetString("blob.driver")),
			Root:   v.GetString("blob.root"),
			S3: blob.S3Config{
				Bucket:          v.GetString("blob.s3.bucket"),
				Region:          v.GetString("blob.s3.region"),
				Endpoint:        v.GetString("blob.s3.endpoint"),
				Prefix:          v.GetString("blob.s3.prefix"),
				PathStyle:       v.GetBool("blob.s3.path_style"),
				AccessKeyID:     v.GetString("blob.s3.access_key_id"),
				SecretAccessKey: v.GetString("blob.s3.secret_access_key"),
			},
		},
		Airtable: AirtableConfig{
			APIKey: v.GetString("airtable.api_key"),
			View:   v.GetString("airtable.view"),
			Bases: map[string]string{
				journalclub.Entity: v.GetString("airtable.bases.journal_club"),
				rfd.Entity:         v.GetString("airtable.bases.rfds"),
				mailinglist.Entity: v.GetString("airtable.bases.mailing_list"),
				applicants.Entity:  v.GetString("airtable.bases.applicants"),
			},
			Tables: map[string][]string{
				journalclub.Entity: {v.GetString("airtable.tables.meetings"), v.GetString("airtable.tables.papers")},
				rfd.Entity:         {v.GetString("airtable.tables.rfds")},
				mailinglist.Entity: {v.GetString("airtable.tables.subscribers")},
				applicants.Entity:  {v.GetString("airtable.tables.applicants")},
			},
		},

		SlackWebhookURL: v.GetString("slack.webhook_url"),
		SendGridAPIKey:  v.GetString("sendgrid.api_key"),
		EmailDomain:     v.GetString("sendgrid.domain"),
		GitHubToken:     v.GetString("github.token"),
		GitHubOrg:       v.GetString("github.org"),
		SubscribersCSV:  v.GetString("sources.subscribers_csv"),

		Concurrency:      v.GetInt("sync.concurrency"),
		AutoSyncInterval: v.GetDuration("sync.auto_sync_interval"),

		ServerHost: v.GetString("server.host"),
		ServerPort: v.GetInt("server.port"),

		// An empty level lets -v/-q decide (see determineLogLevel)
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := v.UnmarshalKey("sources.applicant_sheets", &config.ApplicantSheets); err != nil {
		return nil, err
	}
	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	// godotenv.Load never overrides set variables, so load .env.local first
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
