package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Vector   VectorConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

// VectorConfig selects the vector store backend. Driver "milvus" talks to
// a Milvus/Zilliz deployment; "memory" keeps the index in-process, which
// is enough for local runs and tests.
type VectorConfig struct {
	Driver         string
	Endpoint       string
	APIKey         string
	CollectionName string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	EmbeddingDim   int
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
}

// PipelineConfig carries the chunking and retrieval policy. These values
// are passed into the components at construction; pipeline code never
// reads the environment.
type PipelineConfig struct {
	ChunkSize           int
	MinChunkSize        int
	TopK                int
	SimilarityThreshold float32
	EmbedWorkers        int
}

// StorageConfig locates uploaded document payloads. Document refs in
// ingest requests are resolved relative to DocumentsDir.
type StorageConfig struct {
	DocumentsDir string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/studybuddy")

	viper.SetEnvPrefix("STUDYBUDDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/studybuddy.db")

	viper.SetDefault("vector.driver", "memory")
	viper.SetDefault("vector.endpoint", "localhost:19530")
	viper.SetDefault("vector.apiKey", "")
	viper.SetDefault("vector.collectionName", "notebook_chunks")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlHours", 72)

	// Secrets have no meaningful default, but the keys must be registered
	// for AutomaticEnv to surface them through Unmarshal.
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.embeddingDim", 1536)
	viper.SetDefault("llm.temperature", 0.4)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("pipeline.chunkSize", 1000)
	viper.SetDefault("pipeline.minChunkSize", 10)
	viper.SetDefault("pipeline.topK", 5)
	viper.SetDefault("pipeline.similarityThreshold", 0.3)
	viper.SetDefault("pipeline.embedWorkers", 4)

	viper.SetDefault("storage.documentsDir", "./data/documents")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
