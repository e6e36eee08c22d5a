package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/dicomweb"
	"dicom-gateway-api/gateway"
	"dicom-gateway-api/localstore"
	"dicom-gateway-api/tools"
	"dicom-gateway-api/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const serverVersion = "1.0.0"

func newLogger() *zap.Logger {
	env := viper.GetString("workspace.env")
	var logger *zap.Logger
	switch env {
	case "DEVELOPMENT":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	return logger
}

func initConfigs(env string) {
	viper.SetDefault("server.mode", "mcp")
	viper.SetDefault("webserver.port", "8085")
	viper.SetDefault("dicomweb.aet", "DCM4CHEE")
	viper.SetDefault("dicomweb.timeout_ms", constants.DefaultTimeoutMs)
	viper.SetDefault("dicomweb.retry_count", constants.DefaultRetry)
	viper.SetDefault("move.destination_aet", "LOCAL_ARCHIVE")
	viper.SetDefault("storage.dir", "./dicom_received")

	viper.AddConfigPath("conf")
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	viper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "__")
	viper.SetEnvKeyReplacer(replacer)
	viper.BindEnv("dicomweb.base_url", "DICOM_SERVER_BASE_URL")

	// Stdio deployments often run without a config file and carry
	// everything through the environment.
	if err := viper.ReadInConfig(); err != nil {
		utils.LogInfo("no config file for env [%s], using env vars and defaults", env)
	}
}

func main() {

	env := "development"
	if value, found := os.LookupEnv(constants.ENV); found {
		env = value
	}
	utils.LogInfo("gateway is running in [%s] mode", env)
	initConfigs(env)

	logger := newLogger()

	baseURL := viper.GetString("dicomweb.base_url")
	if baseURL == "" {
		utils.LogFatal(fmt.Errorf("dicomweb.base_url is not set (DICOM_SERVER_BASE_URL)"))
	}

	client := dicomweb.NewClient(dicomweb.Config{
		BaseURL:        baseURL,
		AET:            viper.GetString("dicomweb.aet"),
		DestinationAET: viper.GetString("move.destination_aet"),
		Timeout:        time.Duration(viper.GetInt("dicomweb.timeout_ms")) * time.Millisecond,
		RetryCount:     viper.GetInt("dicomweb.retry_count"),
	}, logger)

	store, err := localstore.NewStore(viper.GetString("storage.dir"), logger)
	if err != nil {
		utils.LogFatal(err)
	}

	switch mode := viper.GetString("server.mode"); mode {
	case "rest":
		route := gin.Default()
		route.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"POST", "PUT", "GET", "DELETE"},
			AllowHeaders:     []string{"Access-Control-Allow-Headers", "Origin", "Accept", "X-Requested-With", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))

		pacsAPI := gateway.NewPacsAPI(client, store, logger)
		pacsAPI.InitRoute(route)

		route.Run("0.0.0.0:" + viper.GetString("webserver.port"))

	default:
		s := server.NewMCPServer(
			"dicom-gateway",
			serverVersion,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions("Exposes query and retrieve operations of a DICOM PACS archive. "+
				"Query studies first, then drill into series and instances by UID; move entities "+
				"to the local node before reading their pixel data."),
		)
		tools.Register(s, client, store)

		utils.LogInfo("serving MCP tools on stdio")
		if err := server.ServeStdio(s); err != nil {
			utils.LogFatal(err)
		}
	}
}
