// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/teamgather/internal/app/features/errors"
	healthfeature "github.com/dalemusser/teamgather/internal/app/features/health"
	loginfeature "github.com/dalemusser/teamgather/internal/app/features/login"
	membersfeature "github.com/dalemusser/teamgather/internal/app/features/members"
	projectsfeature "github.com/dalemusser/teamgather/internal/app/features/projects"
	userinfofeature "github.com/dalemusser/teamgather/internal/app/features/userinfo"
	"github.com/dalemusser/teamgather/internal/app/projectsvc"
	projectstore "github.com/dalemusser/teamgather/internal/app/store/projects"
	userstore "github.com/dalemusser/teamgather/internal/app/store/users"
	"github.com/dalemusser/teamgather/internal/app/system/auth"
	"github.com/dalemusser/teamgather/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed.
//
// Layout:
//
//	/health             public
//	/auth/*             public (signup, signin, signout)
//	/user/*, /project/* signed in
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	users := userstore.New(deps.MongoDatabase)
	projects := projectstore.New(deps.MongoDatabase)
	svc := projectsvc.New(users, projects, deps.Txn, deps.Cache, logger)

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	tokens := auth.NewTokens(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.AccessTokenTTL)
	cookies := auth.NewCookieCodec([]byte(appCfg.CookieSecret), appCfg.AuthCookieName, appCfg.CookieDomain, secure)
	authn := auth.NewAuthenticator(tokens, cookies, svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Loads the principal into context when a valid token is present.
	r.Use(authn.Authenticate)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)
	r.HandleFunc("/", errorsHandler.Index)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Cache.Backend(), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	limiter := ratelimit.NewSigninLimiter(appCfg.SigninRatePerMinute)
	loginHandler := loginfeature.NewHandler(users, svc, tokens, cookies, limiter, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		userHandler := userinfofeature.NewHandler(svc, logger)
		pr.Mount("/user", userinfofeature.Routes(userHandler))

		projectsHandler := projectsfeature.NewHandler(svc, logger)
		membersHandler := membersfeature.NewHandler(svc, logger)
		pr.Mount("/project", projectsfeature.Routes(projectsHandler, membersfeature.Mount(membersHandler)))
	})

	return r, nil
}
