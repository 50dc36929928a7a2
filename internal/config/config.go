package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"aprspass"`
}

type MySqlConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"aprspass"`
}

type SmtpConfig struct {
	Host     string   `yaml:"host" env-default:"localhost"`
	Port     string   `yaml:"port" env-default:"25"`
	User     string   `yaml:"user" env-default:""`
	Password string   `yaml:"password" env-default:""`
	From     string   `yaml:"from" env-default:""`
	Notify   []string `yaml:"notify"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	ApiKey  string `yaml:"api_key" env-default:""`
}

type ClubConfig struct {
	Domains []string `yaml:"domains" env-default:"arrl.net,darc.de,jarl.com,sral.fi,amsat.org"`
}

type Config struct {
	Listen   Listen         `yaml:"listen"`
	Mongo    MongoConfig    `yaml:"mongo"`
	MySql    MySqlConfig    `yaml:"mysql"`
	Smtp     SmtpConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Club     ClubConfig     `yaml:"club"`
	Env      string         `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
