package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Gallery Gallery `yaml:"gallery"`
	Server  Server  `yaml:"server"`
}

type Gallery struct {
	Name       string `yaml:"name"`
	AuthSecret string `yaml:"authSecret"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	BlobPath      string `yaml:"blobPath"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}
	if config.Server.BlobPath == "" {
		config.Server.BlobPath = "./blobs"
	}

	return config, nil
}
