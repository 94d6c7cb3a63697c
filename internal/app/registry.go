package app

import (
	"database/sql"

	"go-elms/internal/application"
	"go-elms/internal/department"
	"go-elms/internal/identity"
	"go-elms/internal/leavetype"
	"go-elms/internal/ledger"
	"go-elms/internal/messaging/kafka"
	"go-elms/internal/middleware"
	"go-elms/internal/rbac"
	"go-elms/internal/renewal"
	"go-elms/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	codeMap department.CodeMap,
) error {
	// --- Repositories ---
	applicationRepo := application.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	userRepo := user.NewRepository(gormDB)

	// --- RBAC Core ---
	rbacService, err := rbac.NewService()
	if err != nil {
		return err
	}

	// --- Services ---
	resolver := identity.NewResolver(userRepo, codeMap)
	leaveTypeService := leavetype.NewService(leaveTypeRepo)
	ledgerService := ledger.NewService(db, ledgerRepo, leaveTypeRepo)
	applicationService := application.NewServiceWithOutbox(
		db,
		applicationRepo,
		ledgerRepo,
		resolver,
		outboxRepo,
		application.ReservePolicy(envReservePolicy()),
	)
	renewalService := renewal.NewService(ledgerRepo, ledgerService, leaveTypeRepo)
	userService := user.NewService(userRepo, ledgerService)

	// --- Handlers ---
	applicationHandler := application.NewHandler(applicationService)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	renewalHandler := renewal.NewHandler(renewalService)
	userHandler := user.NewHandler(userService)

	// --- Global middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	idempotency := middleware.Idempotency(rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		application.RegisterRoutes(api, applicationHandler, rbacService, idempotency)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService)
		ledger.RegisterRoutes(api, ledgerHandler, rbacService)
		renewal.RegisterRoutes(api, renewalHandler, rbacService)
		user.RegisterRoutes(api, userHandler, rbacService)
	}

	return nil
}
