package router

import (
	"github.com/oksasatya/offer-marketplace/internal/application"
	"github.com/oksasatya/offer-marketplace/internal/container"
	pginfra "github.com/oksasatya/offer-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/offer-marketplace/internal/infrastructure/search"
	handlers "github.com/oksasatya/offer-marketplace/internal/interface/http"
	"github.com/oksasatya/offer-marketplace/internal/router/modules"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	mailtpl "github.com/oksasatya/offer-marketplace/pkg/mailer/templates"
)

type ModuleDeps struct {
	Users    *handlers.UserHandler
	Offers   *handlers.OfferHandler
	Realtime *handlers.RealtimeHandler
	AdCopy   *handlers.AdCopyHandler
	Steps    *handlers.ContractStepHandler
}

func buildMail() application.Mail {
	cfg := container.GetConfig()
	m := application.Mail{
		Enabled: cfg.MailSendEnabled,
		Brand: mailtpl.Brand{
			AppName:     cfg.AppName,
			CompanyName: cfg.CompanyName,
			AppURL:      cfg.AppURL,
			SupportURL:  cfg.SupportURL,
		},
	}
	// a nil *RabbitPublisher must not become a non-nil interface
	if pub := container.GetRabbitPub(); pub != nil {
		m.Publisher = pub
	}
	return m
}

func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	offerRepo := pginfra.NewOfferRepository(pool)
	stepRepo := pginfra.NewContractStepRepository(pool)
	mail := buildMail()

	var notifier application.Notifier
	if hub := container.GetHub(); hub != nil {
		notifier = hub
	}

	userSvc := application.NewUserService(userRepo, container.GetJWT(), rdb, logger, notifier, mail)

	offerSvc := &application.OfferService{
		Offers:   offerRepo,
		Users:    userRepo,
		Redis:    rdb,
		Logger:   logger,
		Notifier: notifier,
		Mail:     mail,
	}
	if es := container.GetES(); es != nil && cfg.ESOffersIndex != "" {
		offerSvc.Index = search.NewOfferIndex(es, cfg.ESOffersIndex)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		offerSvc.Images = helpers.NewGCSStore(gcs, cfg.GCSBucket)
	}

	adSvc := &application.AdCopyService{Timeout: cfg.GeminiTimeout, Logger: logger}
	if g := container.GetGemini(); g != nil {
		adSvc.Improver = g
	}
	if p := container.GetProm(); p != nil {
		adSvc.Metrics = p
	}

	return ModuleDeps{
		Users:    handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure),
		Offers:   handlers.NewOfferHandler(offerSvc, logger),
		Realtime: handlers.NewRealtimeHandler(container.GetHub(), logger),
		AdCopy:   handlers.NewAdCopyHandler(adSvc, logger),
		Steps:    handlers.NewContractStepHandler(&application.ContractStepService{Repo: stepRepo}, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()

	r.Add(modules.NewUserModule(deps.Users, jwt))
	r.Add(modules.NewOfferModule(deps.Offers, jwt))
	r.Add(modules.NewRealtimeModule(deps.Realtime, jwt))
	r.Add(modules.NewAdCopyModule(deps.AdCopy))
	r.Add(modules.NewContractModule(deps.Steps))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
