package config

import (
	"database/sql"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Redis       *Redis        `yaml:"redis"`
	Server      Server        `yaml:"server"`
	LLM         LLM           `yaml:"llm"`
	Pipeline    Pipeline      `yaml:"pipeline"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort      string `yaml:"http_port"`
	Workers       int    `yaml:"workers"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type LLM struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	MergeModel string `yaml:"merge_model"`
}

type Pipeline struct {
	ChunkSize       int           `yaml:"chunk_size"`
	MergeBudget     int           `yaml:"merge_budget"`
	TranscodeHeight int           `yaml:"transcode_height"`
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	WorkDir         string        `yaml:"work_dir"`
	PromptCacheTTL  time.Duration `yaml:"prompt_cache_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "develop")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 2)
	v.SetDefault("server.max_upload_size", 512<<20)
	v.SetDefault("rabbitmq_port", 5672)
	v.SetDefault("rabbitmq_kind", "direct")
	v.SetDefault("minio.bucket", "videos")
	v.SetDefault("redis.db", 0)
	v.SetDefault("llm.model", "gemini-1.5-pro")
	v.SetDefault("llm.merge_model", "gemini-2.0-flash")
	v.SetDefault("pipeline.chunk_size", 10<<20)
	v.SetDefault("pipeline.merge_budget", 80000)
	v.SetDefault("pipeline.transcode_height", 480)
	v.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	v.SetDefault("pipeline.work_dir", "")
	v.SetDefault("pipeline.prompt_cache_ttl", 10*time.Minute)
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", v.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: v.GetString("rabbitmq_host"),
		Port: v.GetInt("rabbitmq_port"),
		User: v.GetString("rabbitmq_user"),
		Pass: v.GetString("rabbitmq_pass"),
		Kind: v.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(v.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(v.GetString("minio.access_id"), v.GetString("minio.secret_access_key"), ""),
		Secure: v.GetBool("minio.secure"),
	})
	if err != nil {
		return nil, err
	}

	var redisCfg *Redis
	if addr := v.GetString("redis.addr"); addr != "" {
		redisCfg = &Redis{
			Addr:     addr,
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		}
	}

	return &Config{
		MinIOBucket: v.GetString("minio.bucket"),
		App: App{
			Environment: v.GetString("app.environment"),
			Host:        v.GetString("app.host"),
			Protocol:    v.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort:      v.GetString("server.port"),
			Workers:       v.GetInt("server.workers"),
			MaxUploadSize: v.GetInt64("server.max_upload_size"),
		},
		LLM: LLM{
			APIKey:     v.GetString("llm.api_key"),
			Model:      v.GetString("llm.model"),
			MergeModel: v.GetString("llm.merge_model"),
		},
		Pipeline: Pipeline{
			ChunkSize:       v.GetInt("pipeline.chunk_size"),
			MergeBudget:     v.GetInt("pipeline.merge_budget"),
			TranscodeHeight: v.GetInt("pipeline.transcode_height"),
			FFmpegPath:      v.GetString("pipeline.ffmpeg_path"),
			WorkDir:         v.GetString("pipeline.work_dir"),
			PromptCacheTTL:  v.GetDuration("pipeline.prompt_cache_ttl"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
		Redis:   redisCfg,
	}, nil
}
