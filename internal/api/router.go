package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/api/handlers"
	mw "github.com/plateful/gate/internal/api/middleware"
	"github.com/plateful/gate/internal/config"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/service"
	"github.com/plateful/gate/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router  *chi.Mux
	Sweeper *service.FlagSweeperService
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	tenantStore := store.NewTenantStore(db)
	userStore := store.NewUserStore(db)
	keyStore := store.NewAPIKeyStore(db)
	membershipStore := store.NewMembershipStore(db)
	flagStore := store.NewFlagStore(db)
	auditStore := store.NewAuditStore(db)
	pantryStore := store.NewPantryStore(db)
	recipeStore := store.NewRecipeStore(db)
	favoriteStore := store.NewFavoriteStore(db)

	// Services
	membershipSvc := service.NewMembershipService(membershipStore)
	policySvc := service.NewPolicyService(membershipSvc, logger)
	tenantSvc := service.NewTenantService(tenantStore, membershipStore, policySvc)
	userSvc := service.NewUserService(userStore, keyStore, policySvc)
	flagCache := service.NewFlagCache(config.FlagCacheSize(), config.FlagCacheTTL())
	flagSvc := service.NewFlagService(flagStore, auditStore, flagCache, logger)
	sweeperSvc := service.NewFlagSweeperService(flagSvc, logger)
	sweeperSvc.SetInterval(config.SweeperInterval())
	pantrySvc := service.NewPantryService(pantryStore, policySvc)
	recipeSvc := service.NewRecipeService(recipeStore, policySvc)
	favoriteSvc := service.NewFavoriteService(favoriteStore, recipeStore, policySvc)

	// Handlers
	userHandler := handlers.NewUserHandler(userSvc, membershipSvc)
	tenantHandler := handlers.NewTenantHandler(tenantSvc)
	flagHandler := handlers.NewFlagHandler(flagSvc)
	pantryHandler := handlers.NewPantryHandler(pantrySvc)
	recipeHandler := handlers.NewRecipeHandler(recipeSvc)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteSvc)

	r := chi.NewRouter()

	app := &App{
		Router:  r,
		Sweeper: sweeperSvc,
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Prometheus metrics (no auth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// User registration (bootstrap endpoint, no auth)
	r.Post("/v1/users", userHandler.Register)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(keyStore, userStore))

		r.Route("/me", func(r chi.Router) {
			r.Get("/tenants", userHandler.MyTenants)
			r.Post("/api-keys", userHandler.CreateAPIKey)
			r.Delete("/api-keys/{id}", userHandler.RevokeAPIKey)
		})

		r.Route("/profiles/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetProfile)
			r.Patch("/", userHandler.UpdateProfile)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", tenantHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tenantHandler.GetByID)
				r.Patch("/", tenantHandler.Update)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", tenantHandler.ListMembers)
					r.Post("/", tenantHandler.Invite)
					r.Patch("/{userID}", tenantHandler.UpdateMember)
				})

				r.Route("/pantry-items", func(r chi.Router) {
					r.Get("/", pantryHandler.List)
					r.Post("/", pantryHandler.Create)
					r.Get("/{itemID}", pantryHandler.GetByID)
					r.Put("/{itemID}", pantryHandler.Update)
					r.Delete("/{itemID}", pantryHandler.Delete)
				})

				r.Route("/recipes", func(r chi.Router) {
					r.Get("/", recipeHandler.List)
					r.Post("/", recipeHandler.Create)
					r.Get("/{recipeID}", recipeHandler.GetByID)
					r.Put("/{recipeID}", recipeHandler.Update)
					r.Delete("/{recipeID}", recipeHandler.Delete)
				})

				r.Route("/favorites", func(r chi.Router) {
					r.Get("/", favoriteHandler.List)
					r.Post("/", favoriteHandler.Create)
					r.Delete("/{favoriteID}", favoriteHandler.Delete)
				})
			})
		})

		r.Route("/flags", func(r chi.Router) {
			r.Get("/evaluate", flagHandler.EvaluateAll)
			r.Post("/", flagHandler.Create)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", flagHandler.Get)
				r.Patch("/", flagHandler.Update)
				r.Delete("/", flagHandler.Delete)
				r.Get("/evaluate", flagHandler.Evaluate)
				r.Get("/audit", flagHandler.AuditTrail)
			})
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.TenantStore     = (*store.TenantStore)(nil)
	_ domain.UserStore       = (*store.UserStore)(nil)
	_ domain.APIKeyStore     = (*store.APIKeyStore)(nil)
	_ domain.MembershipStore = (*store.MembershipStore)(nil)
	_ domain.FlagStore       = (*store.FlagStore)(nil)
	_ domain.AuditStore      = (*store.AuditStore)(nil)
	_ domain.PantryStore     = (*store.PantryStore)(nil)
	_ domain.RecipeStore     = (*store.RecipeStore)(nil)
	_ domain.FavoriteStore   = (*store.FavoriteStore)(nil)
	_ domain.Authorizer      = (*service.PolicyService)(nil)
)
