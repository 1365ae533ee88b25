package config

import "github.com/spf13/viper"

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetDatabaseURL() string
	GetCacheDriver() string
	GetRedisURL() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return s.v.GetString(StorageDriverKey)
}

func (s Storage) GetDatabaseURL() string {
	return s.v.GetString(DatabaseURLKey)
}

func (s Storage) GetCacheDriver() string {
	return s.v.GetString(CacheDriverKey)
}

func (s Storage) GetRedisURL() string {
	return s.v.GetString(RedisURLKey)
}
