package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the settings for validating tokens issued by the
// out-of-process authentication service. The engine never issues tokens;
// it only extracts the acting account ID from them.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// EngineConfig contains engine-specific tuning. The academic
// configuration itself (term counts, thresholds) lives on each
// AcademicYear row, not here.
type EngineConfig struct {
	// TenancyMaxDepth caps the parent-chain walk of the tenancy resolver.
	// Exceeding it is treated as a cycle in the account hierarchy.
	TenancyMaxDepth int `mapstructure:"tenancy_max_depth" validate:"required,gt=0,lte=32"`
}
