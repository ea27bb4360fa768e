package server

import (
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/nihongowow/arcade/internal/handler/health"
	"github.com/nihongowow/arcade/internal/ratelimit"
)

// Per-IP limits on the public auth routes.
var (
	loginRule              = ratelimit.Rule{Limit: 5, Window: time.Minute}
	registerRule           = ratelimit.Rule{Limit: 3, Window: time.Minute}
	verifyMFARule          = ratelimit.Rule{Limit: 5, Window: time.Minute}
	resendMFARule          = ratelimit.Rule{Limit: 2, Window: time.Minute}
	confirmEmailRule       = ratelimit.Rule{Limit: 5, Window: time.Minute}
	resendVerificationRule = ratelimit.Rule{Limit: 2, Window: time.Minute}
)

func addRoutes(r chi.Router, d Deps) {
	logger, api, trail, limit := d.Logger, d.API, d.Audit, d.Limiter
	adminOnly := requireAdmin(api)
	verified := verifiedSession(newIdentities(api, identityTTL))

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("NihongoWOW Arcade API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, d.Checks...).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware)

		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit(limit, trail, "login", loginRule)).Post("/login", handleLogin(api, trail, logger))
			r.With(rateLimit(limit, trail, "register", registerRule)).Post("/register", handleRegister(api, trail, logger))
			r.With(rateLimit(limit, trail, "verify-mfa", verifyMFARule)).Post("/verify-mfa", handleVerifyMFA(api, trail, logger))
			r.With(rateLimit(limit, trail, "resend-mfa", resendMFARule)).Post("/resend-mfa", handleResendMFA(api, trail, logger))
			r.With(rateLimit(limit, trail, "confirm-email", confirmEmailRule)).Post("/confirm-email", handleConfirmEmail(api, trail, logger))
			r.With(rateLimit(limit, trail, "resend-verification", resendVerificationRule)).Post("/resend-verification", handleResendVerification(api, logger))
			r.With(requireAuth).Get("/me", handleMe(api, logger))
		})

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", handleListVocabulary(api, logger))
			r.Get("/tags", handleVocabularyTags(api, logger))
			r.Get("/random", handleRandomVocabulary(api, logger))
			r.Get("/reading", handleReading(d.Readings))
			r.Get("/{id}", handleGetVocabulary(api, logger))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", handleCreateVocabulary(api, d.Readings, trail, logger))
				r.Post("/import", handleImportVocabulary(api, d.Readings, trail, logger))
				r.Put("/{id}", handleUpdateVocabulary(api, d.Readings, trail, logger))
				r.Delete("/{id}", handleDeleteVocabulary(api, trail, logger))
			})
		})

		r.Get("/kana", handleKana(d.Kana, logger))
		r.Get("/kana/random", handleRandomKana(d.Kana, logger))

		r.Get("/settings", handleSettings(api, logger))
		r.Get("/settings/{key}", handleSetting(api, logger))
		r.With(adminOnly).Put("/settings/{key}", handleUpdateSetting(api, trail, logger))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/scores/today", handleTodayScores(api, logger))
			r.Get("/scores/best", handleBestScores(api, logger))
			r.Get("/scores/me", handleScoreHistory(api, logger))
			r.Get("/profile", handleProfile(api, logger))
			r.Get("/user/preferences", handlePreferences(api, logger))
			r.Put("/user/preferences", handleUpdatePreferences(api, logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, verified)
			r.Get("/history", handleRoundHistory(d.History, logger))
			r.Get("/history/{id}", handleRoundRecord(d.History, logger))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			admin{api: api, trail: trail, logger: logger}.routes(r)
		})

		// Rounds are open to anonymous players; their scores are not submitted.
		r.Route("/rounds", func(r chi.Router) {
			r.Use(verified)
			r.Post("/", handleCreateRound(d.Rounds, logger))
			r.Get("/{id}", handleGetRound(d.Rounds, logger))
			r.Delete("/{id}", handleDeleteRound(d.Rounds, logger))
			r.Post("/{id}/actions", handleRoundAction(d.Rounds, limit, trail, logger))
			r.Get("/{id}/events", handleRoundEvents(d.Rounds, logger))
			r.Get("/{id}/ws", handleRoundWS(d.Rounds, limit, trail, logger))
			r.With(rateLimit(limit, trail, "speech", speechRule)).Post("/{id}/speech", handleRoundSpeech(d.Rounds, logger))
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
