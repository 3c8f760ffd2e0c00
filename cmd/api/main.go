package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/medstock-api/internal/application/auth"
	"github.com/jhoicas/medstock-api/internal/application/dto"
	"github.com/jhoicas/medstock-api/internal/application/inventory"
	inv "github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/jhoicas/medstock-api/internal/infrastructure/catalogxml"
	"github.com/jhoicas/medstock-api/internal/infrastructure/memory"
	"github.com/jhoicas/medstock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/medstock-api/internal/interfaces/http"
	"github.com/jhoicas/medstock-api/pkg/config"
	"github.com/jhoicas/medstock-api/pkg/i18n"
	"github.com/jhoicas/medstock-api/pkg/jwt"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var catalogPath string
	root := &cobra.Command{
		Use:          "medstock-api",
		Short:        "Libro de stock farmacéutico del hospital",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), catalogPath)
		},
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "XML de catálogo a cargar (solo APP_STORE=memory)")
	root.AddCommand(serveCmd(&catalogPath), migrateCmd(), recomputeCmd(), createUserCmd(), tokenCmd())
	return root
}

func serveCmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *catalogPath)
		},
	}
}

func migrateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			return postgres.Migrate(cfg.DB.ConnectionString(), verbose, log)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log detallado de golang-migrate")
	return cmd
}

func recomputeCmd() *cobra.Command {
	var medical int64
	cmd := &cobra.Command{
		Use:   "recompute-balances",
		Short: "Reconstruye la tabla de saldos de un medicamento desde el libro",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if medical <= 0 {
				return fmt.Errorf("--medical es obligatorio")
			}
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			ledger, _ := postgresUseCases(pool, cfg, log)
			rows, err := ledger.RecomputeBalances(ctx, medical)
			if err != nil {
				return err
			}
			log.Info().Int64("medical", medical).Int("rows", len(rows)).Msg("saldos reconstruidos")
			return nil
		},
	}
	cmd.Flags().Int64Var(&medical, "medical", 0, "código del medicamento")
	return cmd
}

func createUserCmd() *cobra.Command {
	var in dto.RegisterRequest
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Da de alta un usuario (p. ej. el primer admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			user, err := authUseCase(postgres.NewUserRepository(pool), cfg, log).RegisterUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", user.ID, user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&in.Name, "name", "", "nombre visible")
	cmd.Flags().StringVar(&in.Role, "role", jwt.RoleAdmin, "rol: admin, farmacia o sala")
	return cmd
}

func tokenCmd() *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT de servicio (pruebas e integraciones)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			switch role {
			case jwt.RoleAdmin, jwt.RolePharmacy, jwt.RoleWard:
			default:
				return fmt.Errorf("rol desconocido: %s", role)
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "service", "identificador del usuario")
	cmd.Flags().StringVar(&role, "role", jwt.RolePharmacy, "rol: admin, farmacia o sala")
	return cmd
}

func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	return cfg, log, nil
}

func policy(c config.StockConfig) inv.Policy {
	return inv.Policy{
		AutomaticLotCharge:       c.AutomaticLotCharge,
		AutomaticLotDischarge:    c.AutomaticLotDischarge,
		AutomaticLotWardTransfer: c.AutomaticLotWardTransfer,
		LotCostRequired:          c.LotCostRequired,
		AllowNegativeStock:       c.AllowNegative,
		LotCodeMaxLength:         c.LotCodeMaxLength,
		DefaultShelfLifeDays:     c.ShelfLifeDays,
	}
}

func useCases(
	tx inventory.TxRunner, read inventory.StockRepos, catalog repository.Catalog,
	cfg *config.Config, log *logger.Logger,
) (*inventory.MovementLedgerUseCase, *inventory.WardStockUseCase) {
	v := inv.NewValidator(policy(cfg.Stock), i18n.New(cfg.App.Locale))
	clock := inventory.SystemClock{}
	return inventory.NewMovementLedgerUseCase(tx, read, catalog, v, clock, log),
		inventory.NewWardStockUseCase(tx, read, catalog, v, clock, log)
}

func authUseCase(users repository.UserRepository, cfg *config.Config, log *logger.Logger) *auth.AuthUseCase {
	return auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
}

func postgresUseCases(pool *pgxpool.Pool, cfg *config.Config, log *logger.Logger) (*inventory.MovementLedgerUseCase, *inventory.WardStockUseCase) {
	return useCases(postgres.NewTxRunner(pool), postgres.StockRepos(pool), postgres.Catalog(pool), cfg, log)
}

func serve(ctx context.Context, catalogPath string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	var (
		ledger *inventory.MovementLedgerUseCase
		wards  *inventory.WardStockUseCase
		users  repository.UserRepository
	)
	switch cfg.App.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		if catalogPath != "" {
			f, err := os.Open(catalogPath)
			if err != nil {
				return fmt.Errorf("abrir catálogo: %w", err)
			}
			cat, err := catalogxml.Decode(f)
			f.Close()
			if err != nil {
				return err
			}
			cat.Apply(store.Catalog)
			log.Info().Int("medicals", len(cat.Medicals)).Int("wards", len(cat.Wards)).Msg("catálogo cargado")
		} else {
			log.Warn().Msg("store en memoria sin catálogo: todos los movimientos serán rechazados")
		}
		ledger, wards = useCases(store, store.Repos(), store.Catalog.Repositories(), cfg, log)
		users = memory.NewUserRepository()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		ledger, wards = postgresUseCases(pool, cfg, log)
		users = postgres.NewUserRepository(pool)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "MedStock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		Wards:     wards,
		Auth:      authUseCase(users, cfg, log),
		Log:       log,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return nil
}
