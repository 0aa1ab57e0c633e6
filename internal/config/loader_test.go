package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/paddock/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FetchQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.FetchWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.RefreshIntervalSec, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("PADDOCK_ADDR", ":8080")
			t.Setenv("PADDOCK_PREDICTION_API_URL", "http://api.internal:8000")
			t.Setenv("PADDOCK_FETCH_WORKERS", "8")
			t.Setenv("PADDOCK_CHAT_TEMPERATURE", "0.2")
			t.Setenv("PADDOCK_AUTO_REFRESH", "false")
			t.Setenv("PADDOCK_CHAMPIONSHIP_YEARS", "2029,2030")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PredictionAPIURL, convey.ShouldEqual, "http://api.internal:8000")
				convey.So(cfg.FetchWorkers, convey.ShouldEqual, 8)
				convey.So(cfg.ChatTemperature, convey.ShouldEqual, 0.2)
				convey.So(cfg.AutoRefresh, convey.ShouldBeFalse)
				convey.So(cfg.ChampionshipYears, convey.ShouldResemble, []int{2029, 2030})
			})
		})

		convey.Convey("When list env vars carry spaces and empty items", func() {
			clearConfigEnvVars()
			t.Setenv("PADDOCK_CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example,")
			t.Setenv("PADDOCK_CHAMPIONSHIP_YEAR", "2028")
			t.Setenv("PADDOCK_CHAMPIONSHIP_YEARS", " 2027 ,2028")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then every item becomes its own entry", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://a.example", "http://b.example"})
				convey.So(cfg.ChampionshipYears, convey.ShouldResemble, []int{2027, 2028})
				convey.So(cfg.ChampionshipYear, convey.ShouldEqual, 2028)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars()
			path := writeConfigFile(t, `
addr: ":9090"
chat_model: "llama-3-8b"
refresh_interval_sec: 60
championship_year: 2027
championship_years: [2026, 2027]
cors_allowed_origins: ["http://localhost:3000"]
`)
			t.Setenv("PADDOCK_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ChatModel, convey.ShouldEqual, "llama-3-8b")
				convey.So(cfg.RefreshIntervalSec, convey.ShouldEqual, 60)
				convey.So(cfg.ChampionshipYear, convey.ShouldEqual, 2027)
				convey.So(cfg.ChampionshipYears, convey.ShouldResemble, []int{2026, 2027})
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			})

			convey.Convey("And fields absent from the file keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.FetchQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.ChatTemperature, convey.ShouldEqual, 0.7)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			clearConfigEnvVars()
			path := writeConfigFile(t, "addr: \":9090\"\nfetch_workers: 2\n")
			t.Setenv("PADDOCK_CONFIG", path)
			t.Setenv("PADDOCK_FETCH_WORKERS", "6")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.FetchWorkers, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			clearConfigEnvVars()
			path := writeConfigFile(t, `invalid: yaml: content: [`)
			t.Setenv("PADDOCK_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			clearConfigEnvVars()
			t.Setenv("PADDOCK_CONFIG", "/non/existent/paddock.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			clearConfigEnvVars()
			t.Setenv("PADDOCK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			clearConfigEnvVars()
			t.Setenv("PADDOCK_FETCH_WORKERS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paddock.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PADDOCK_CONFIG",
		"PADDOCK_ADDR",
		"PADDOCK_PREDICTION_API_URL",
		"PADDOCK_FETCH_WORKERS",
		"PADDOCK_CHAT_TEMPERATURE",
		"PADDOCK_AUTO_REFRESH",
		"PADDOCK_CHAMPIONSHIP_YEARS",
		"PADDOCK_CHAMPIONSHIP_YEAR",
		"PADDOCK_CORS_ALLOWED_ORIGINS",
		"PADDOCK_MAX_SESSIONS",
		"PADDOCK_SESSION_IDLE_SEC",
	} {
		_ = os.Unsetenv(key)
	}
}
