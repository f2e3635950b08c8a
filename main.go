package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/handlers"
	"bounty-escrow-system/middleware"
	"bounty-escrow-system/models"
	"bounty-escrow-system/pgp"
	"bounty-escrow-system/services"
	"bounty-escrow-system/storage"
	"bounty-escrow-system/store"
	"bounty-escrow-system/store/gormstore"
	"bounty-escrow-system/store/memory"
	"bounty-escrow-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // encrypted evidence payloads, not media
	})

	// Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Wallet-Address",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// --- Persistence backend (explicit, no implicit mock fallback) ---
	var (
		bounties store.BountyStore
		claims   store.ClaimStore
		orgs     store.OrganizationStore
		subLog   store.SubmissionLogStore
		mirrors  store.EscrowMirrorStore
	)
	switch backend := os.Getenv("DB_BACKEND"); backend {
	case "", "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			log.Fatal("DATABASE_URL environment variable not set")
		}
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		if err := db.AutoMigrate(
			&models.Organization{},
			&models.Bounty{},
			&models.Claim{},
			&models.SubmissionRecord{},
			&models.EscrowMirror{},
		); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		bounties = gormstore.NewBounties(db)
		claims = gormstore.NewClaims(db)
		orgs = gormstore.NewOrganizations(db)
		subLog = gormstore.NewSubmissionLog(db)
		mirrors = gormstore.NewEscrowMirrors(db)
	case "memory":
		log.Println("DB_BACKEND=memory — state is not durable, development only")
		bounties = memory.NewBounties()
		claims = memory.NewClaims()
		orgs = memory.NewOrganizations()
		subLog = memory.NewSubmissionLog()
		mirrors = memory.NewEscrowMirrors()
	default:
		log.Fatalf("unknown DB_BACKEND %q (postgres or memory)", backend)
	}

	// --- Content store backend ---
	var blobs storage.Store
	switch backend := os.Getenv("STORAGE_BACKEND"); backend {
	case "", "r2":
		r2, err := storage.NewR2StoreFromEnv()
		if err != nil {
			log.Fatal("failed to initialize R2 content store:", err)
		}
		blobs = r2
	case "memory":
		log.Println("STORAGE_BACKEND=memory — blobs are not durable, development only")
		blobs = storage.NewMemoryStore()
	default:
		log.Fatalf("unknown STORAGE_BACKEND %q (r2 or memory)", backend)
	}

	// --- Fund-custody collaborator ---
	var custody escrow.Ledger
	var custodyStatus workers.EscrowStatusSource
	switch backend := os.Getenv("ESCROW_BACKEND"); backend {
	case "", "remote":
		baseURL := os.Getenv("ESCROW_SERVICE_URL")
		if baseURL == "" {
			log.Fatal("ESCROW_SERVICE_URL environment variable not set")
		}
		token := os.Getenv("ESCROW_SERVICE_TOKEN")
		if token == "" {
			log.Fatal("ESCROW_SERVICE_TOKEN environment variable not set")
		}
		client := escrow.NewClient(baseURL, token)
		custody = client
		custodyStatus = client
	case "sim":
		log.Println("ESCROW_BACKEND=sim — custody simulated in process, development only")
		sim := escrow.NewSimulator()
		custody = sim
		custodyStatus = sim
	default:
		log.Fatalf("unknown ESCROW_BACKEND %q (remote or sim)", backend)
	}

	// --- Core services ---
	directory := services.NewOrganizationDirectory(orgs)
	ledger := services.NewBountyLedger(bounties, mirrors, custody)
	registry := services.NewClaimRegistry(claims, bounties)
	pipeline := services.NewSubmissionPipeline(registry, pgp.NewEngine(), blobs)
	engine := services.NewReviewEngine(registry, ledger)
	submissionLog := services.NewSubmissionLog(subLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncClient := workers.NewEscrowSyncClient(bounties, mirrors, custodyStatus)
	go workers.PollEscrows(ctx, syncClient, 30*time.Second)

	engine.StartReconciliationScheduler(1 * time.Minute)

	handlers.SetupOrganizationRoutes(app, directory)
	handlers.SetupSubmissionRoutes(app, submissionLog, blobs)
	handlers.SetupBountyRoutes(app, ledger, registry, pipeline, engine, directory)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("Server running on http://localhost:5300")
	log.Println("Escrow sync worker running (every 30s)")
	log.Println("Reconciliation sweep running (every 1m)")
	log.Println("GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
