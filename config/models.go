package config

// Config holds the configuration of the application
// Use LoadConfig to create a new instance
type Config struct {
	Server        ServerConfig    `mapstructure:"server"        yaml:"server"`
	Log           LogConfig       `mapstructure:"log"           yaml:"log"`
	Store         StoreConfig     `mapstructure:"store"         yaml:"store"`
	Train         TrainConfig     `mapstructure:"train"         yaml:"train"`
	Vectorize     VectorizeConfig `mapstructure:"vectorize"     yaml:"vectorize"`
	Normalization map[string]bool `mapstructure:"normalization" yaml:"normalization,omitempty"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// MaxRequestSize is the largest accepted request body in bytes, uploads included.
	MaxRequestSize int64 `mapstructure:"max_request_size" yaml:"max_request_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type StoreConfig struct {
	// Type is either "file" or "postgres".
	Type      string         `mapstructure:"type"       yaml:"type"`
	File      FileConfig     `mapstructure:"file"       yaml:"file"`
	Postgres  PostgresConfig `mapstructure:"postgres"   yaml:"postgres"`
	CacheSize int            `mapstructure:"cache_size" yaml:"cache_size"`
}

type FileConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

type TrainConfig struct {
	// TimeoutSeconds bounds a single training run. 0 disables the timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// Workers is the number of trainings that may run at once, synchronous and queued alike.
	// Further trainings wait for a free slot.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

type VectorizeConfig struct {
	MaxFeatures  int     `mapstructure:"max_features"  yaml:"max_features"`
	EmbeddingDim int     `mapstructure:"embedding_dim" yaml:"embedding_dim"`
	Window       int     `mapstructure:"window"        yaml:"window"`
	MinCount     int     `mapstructure:"min_count"     yaml:"min_count"`
	Noise        float64 `mapstructure:"noise"         yaml:"noise"`
}

const (
	StoreTypeFile     = "file"
	StoreTypePostgres = "postgres"
)

// Defaults returns the configuration used for any value left unset.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			MaxRequestSize: 32 << 20,
		},
		Log: LogConfig{Level: "info"},
		Store: StoreConfig{
			Type:      StoreTypeFile,
			File:      FileConfig{Root: "./models"},
			CacheSize: 64,
		},
		Train: TrainConfig{
			TimeoutSeconds: 300,
			Workers:        2,
		},
		Vectorize: VectorizeConfig{
			MaxFeatures:  5000,
			EmbeddingDim: 50,
			Window:       2,
			MinCount:     1,
			Noise:        0.01,
		},
	}
}
