package app

import (
	"os"

	"go-elms/internal/department"
	"go-elms/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func envReservePolicy() string {
	return os.Getenv("LEAVE_RESERVE_POLICY")
}

// BuildApp wires infrastructure and registers every module's routes onto
// the router.
func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	// Department codes derived from approver emails map to department rows
	// through this table; see DEPT_CODE_MAP.
	codeMap, err := department.ParseCodeMap(os.Getenv("DEPT_CODE_MAP"))
	if err != nil {
		return err
	}

	return registerModules(router, sqlDB, gormDB, redisClient, codeMap)
}
