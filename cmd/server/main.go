package main

import (
	"flag"
	"log"
	"log/slog"
	"path/filepath"

	"aprspass/bot"
	"aprspass/impl/auth"
	"aprspass/impl/callpass"
	"aprspass/impl/club"
	"aprspass/impl/core"
	"aprspass/internal/config"
	"aprspass/internal/database"
	"aprspass/internal/http-server/api"
	"aprspass/internal/mailer"
	"aprspass/lib/logger"
	"aprspass/lib/sl"
)

const logFileName = "aprspass.log"

// storage is what every backend must provide: the request store for the
// core, admin lookup for auth and the Telegram admin list for the bot.
type storage interface {
	core.Store
	auth.Database
	bot.Database
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting aprspass", slog.String("config", *configPath), slog.String("env", conf.Env))

	var db storage
	switch {
	case conf.Mongo.Enabled:
		mongoDb := database.NewMongoClient(conf)
		if err := mongoDb.Setup(); err != nil {
			log.Fatal("mongodb setup: ", err)
		}
		db = mongoDb
		lg.Info("using mongodb store", slog.String("database", conf.Mongo.Database))
	case conf.MySql.Enabled:
		sqlDb, err := database.NewSQLClient(conf)
		if err != nil {
			log.Fatal("mysql setup: ", err)
		}
		defer sqlDb.Close()
		db = sqlDb
		lg.Info("using mysql store", slog.String("database", conf.MySql.Database))
	default:
		log.Fatal("no store enabled in configuration")
	}

	mail := mailer.New(conf.Smtp, lg)
	policy := club.New(conf.Club.Domains)

	handler := core.New(db, mail, callpass.Generator{}, policy, lg)
	handler.SetAuthService(auth.New(db))

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, db, handler, lg)
		if err != nil {
			lg.Error("telegram bot not started", sl.Err(err))
		} else {
			handler.SetAlerter(tgBot)
			go func() {
				if err := tgBot.Start(); err != nil {
					lg.Error("telegram bot", sl.Err(err))
				}
			}()
			defer tgBot.Stop()
			lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, slog.LevelWarn))
		}
	}

	if err := api.New(conf, lg, handler); err != nil {
		lg.Error("api server stopped", sl.Err(err))
	}
}
