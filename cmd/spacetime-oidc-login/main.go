// Package main provides the entry point for spacetime-oidc-login.
// It performs one OAuth2 Authorization Code + PKCE login against the local OIDC provider
// and hands the resulting token to `spacetime login --token`. The tool takes no flags;
// it is configured through OIDC_CLIENT_ID and OIDC_TIMEOUT, optionally from .env.oidc.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/router-for-me/spacetime-oidc-login/internal/auth/oidc"
	"github.com/router-for-me/spacetime-oidc-login/internal/buildinfo"
	"github.com/router-for-me/spacetime-oidc-login/internal/cmd"
	"github.com/router-for-me/spacetime-oidc-login/internal/config"
	"github.com/router-for-me/spacetime-oidc-login/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	gin.SetMode(gin.ReleaseMode)
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	envFile := config.EnvFilePath(nil)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("Failed to load %s: %v", envFile, err)
	}

	cfg, err := config.LoadFromEnv(nil)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, oidc.ErrMissingClientID.Message)
		return oidc.ErrMissingClientID.Code
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Warnf("Failed to configure log output: %v", err)
	}
	defer logging.CloseLogOutputs()

	session := logging.StartSession()
	log.Debugf("spacetime-oidc-login %s (commit %s, built %s), session %s",
		buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate, session)

	return cmd.DoSpacetimeLogin(context.Background(), cfg, nil)
}
