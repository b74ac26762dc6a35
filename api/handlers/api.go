package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/api"
	"github.com/casedock/casedock-api/api/scheduler"
	"github.com/casedock/casedock-api/cases"
	"github.com/casedock/casedock-api/chambers"
	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/notify"
	"github.com/casedock/casedock-api/storage"
)

// App stores the router and the long lived clients, so they can be reused
// and released at shutdown
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler

	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
	redis    *redis.Client
	services Services
}

// Services are the collaborators the routes are served by
type Services struct {
	Users    databases.UserDatabase
	Sessions *api.SessionManager
	Chambers *chambers.Service
	Cases    *cases.Service
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	return Routes(a.services, a.Config)
}

// Routes registers every endpoint on a fresh router
func Routes(s Services, conf config.Config) *mux.Router {
	m := api.MiddlewareDB{DB: s.Users, Sessions: s.Sessions}
	auth := Auth{DB: s.Users, Sessions: s.Sessions}
	c := Case{Service: s.Cases, MaxUploadBytes: conf.MaxUploadBytes, MaxFiles: conf.MaxFilesPerRequest}
	ch := Chamber{Service: s.Chambers}

	r := api.New(conf.RequestTimeout)
	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/signup", http.HandlerFunc(auth.SignupHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", http.HandlerFunc(auth.LogoutHandler)).Methods("POST")
	apiCreate.Handle("/auth/me", m.Middleware(http.HandlerFunc(auth.MeHandler))).Methods("GET")

	apiCreate.Handle("/cases", m.Middleware(http.HandlerFunc(c.ListCasesHandler))).Methods("GET")
	apiCreate.Handle("/cases", m.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/{caseId}", m.Middleware(http.HandlerFunc(c.CaseHandler))).Methods("GET")
	apiCreate.Handle("/cases/{caseId}", m.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PATCH")
	apiCreate.Handle("/cases/{caseId}", m.Middleware(http.HandlerFunc(c.DeleteCaseHandler))).Methods("DELETE")
	apiCreate.Handle("/cases/{caseId}/files/{fileIndex}", m.Middleware(http.HandlerFunc(c.CaseFileHandler))).Methods("GET")

	apiCreate.Handle("/chambers", m.Middleware(http.HandlerFunc(ch.ListChambersHandler))).Methods("GET")
	apiCreate.Handle("/chambers", m.Middleware(http.HandlerFunc(ch.CreateChamberHandler))).Methods("POST")
	// search must be registered before /chambers/{id}
	apiCreate.Handle("/chambers/search", m.Middleware(http.HandlerFunc(ch.SearchChambersHandler))).Methods("GET")
	apiCreate.Handle("/chambers/{id}", m.Middleware(http.HandlerFunc(ch.ChamberHandler))).Methods("GET")
	apiCreate.Handle("/chambers/{id}", m.Middleware(http.HandlerFunc(ch.UpdateChamberHandler))).Methods("PATCH")
	apiCreate.Handle("/chambers/{id}", m.Middleware(http.HandlerFunc(ch.DeleteChamberHandler))).Methods("DELETE")
	apiCreate.Handle("/chambers/{id}/join", m.Middleware(http.HandlerFunc(ch.JoinChamberHandler))).Methods("POST")
	apiCreate.Handle("/chambers/{id}/leave", m.Middleware(http.HandlerFunc(ch.LeaveChamberHandler))).Methods("POST")
	apiCreate.Handle("/chambers/{id}/requests", m.Middleware(http.HandlerFunc(ch.JoinRequestsHandler))).Methods("GET")
	apiCreate.Handle("/chambers/{id}/requests/{requestId}", m.Middleware(http.HandlerFunc(ch.ResolveJoinRequestHandler))).Methods("POST")
	apiCreate.Handle("/chambers/{id}/members", m.Middleware(http.HandlerFunc(ch.MembersHandler))).Methods("GET")
	apiCreate.Handle("/chambers/{id}/members/{memberId}", m.Middleware(http.HandlerFunc(ch.UpdateMemberPermissionsHandler))).Methods("PATCH")
	apiCreate.Handle("/chambers/{id}/members/{memberId}", m.Middleware(http.HandlerFunc(ch.RemoveMemberHandler))).Methods("DELETE")

	return r
}

// Initialize connects to the database and the configured collaborators and
// builds the router
func (a *App) Initialize() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.client = client

	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("casedock-api has connected to the database")

	if err := databases.EnsureIndexes(context.Background(), a.dbHelper); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	objects, err := storage.New(&a.Config)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	var revoker api.TokenRevoker = api.NewMemoryRevoker()
	var lock scheduler.Locker
	if a.Config.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr, Password: a.Config.RedisPassword})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		revoker = api.NewRedisRevoker(a.redis)
		lock = scheduler.NewRedisLock(a.redis)
	}

	var sender notify.Sender = notify.NopSender{}
	if a.Config.SendgridAPIKey != "" {
		sender = notify.NewSendgridSender(a.Config.SendgridAPIKey, a.Config.MailFromName, a.Config.MailFromEmail)
	}

	limits := storage.DefaultLimits()
	limits.MaxBytes = a.Config.MaxUploadBytes
	limits.MaxFiles = a.Config.MaxFilesPerRequest

	chamberService := chambers.NewService(a.dbHelper, notify.NewMailer(sender, a.Config.BaseURL))
	a.services = Services{
		Users:    databases.NewUserDatabase(a.dbHelper),
		Sessions: api.NewSessionManager(&a.Config, revoker),
		Chambers: chamberService,
		Cases:    cases.NewService(a.dbHelper, storage.NewAttachments(objects, limits)),
	}

	a.Scheduler = scheduler.NewScheduler(chamberService, lock, a.Config.ReconcileSchedule)

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close releases the clients opened by Initialize
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}
