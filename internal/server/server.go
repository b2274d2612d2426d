package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	billingmodeldomain "github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	collectiondomain "github.com/railzwaylabs/wastebill/internal/collection/domain"
	"github.com/railzwaylabs/wastebill/internal/config"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	paymentdomain "github.com/railzwaylabs/wastebill/internal/payment/domain"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RegisterLifecycle),
)

type Params struct {
	fx.In

	Cfg           config.Config
	Log           *zap.Logger
	Registry      *prometheus.Registry `optional:"true"`
	ResidentSvc   residentdomain.Service
	BillingSvc    billingmodeldomain.Service
	CollectionSvc collectiondomain.Service
	InvoiceSvc    invoicedomain.Service
	PaymentSvc    paymentdomain.Service
	Reconciler    paymentdomain.Reconciler
	CheckoutSvc   paymentdomain.CheckoutService
}

type Server struct {
	cfg           config.Config
	log           *zap.Logger
	registry      *prometheus.Registry
	residentSvc   residentdomain.Service
	billingSvc    billingmodeldomain.Service
	collectionSvc collectiondomain.Service
	invoiceSvc    invoicedomain.Service
	paymentSvc    paymentdomain.Service
	reconciler    paymentdomain.Reconciler
	checkoutSvc   paymentdomain.CheckoutService
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:           p.Cfg,
		log:           p.Log.Named("server"),
		registry:      p.Registry,
		residentSvc:   p.ResidentSvc,
		billingSvc:    p.BillingSvc,
		collectionSvc: p.CollectionSvc,
		invoiceSvc:    p.InvoiceSvc,
		paymentSvc:    p.PaymentSvc,
		reconciler:    p.Reconciler,
		checkoutSvc:   p.CheckoutSvc,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.RequestLogger())
	s.registerRoutes(r)
	return r
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	r.POST("/payments/notify", s.HandlePaymentNotification)

	r.POST("/residents", s.CreateResident)
	r.GET("/residents/:id", s.GetResident)
	r.PUT("/residents/:id/locality", s.UpdateResidentLocality)
	r.POST("/residents/:id/invoices", s.GenerateInvoice)
	r.GET("/residents/:id/invoices", s.ListResidentInvoices)

	r.POST("/billing-models", s.CreateBillingModel)
	r.GET("/billing-models", s.ListBillingModels)
	r.GET("/billing-models/:id", s.GetBillingModel)
	r.POST("/billing-models/:id/activate", s.ActivateBillingModel)
	r.POST("/billing-models/:id/deactivate", s.DeactivateBillingModel)

	r.POST("/collections", s.RecordCollection)
	r.POST("/recycling", s.RecordRecycling)

	r.GET("/invoices", s.ListInvoices)
	r.GET("/invoices/overdue", s.ListOverdueInvoices)
	r.GET("/invoices/number/:number", s.GetInvoiceByNumber)
	r.GET("/invoices/:id", s.GetInvoice)
	r.GET("/invoices/:id/checkout", s.PrepareCheckout)
	r.GET("/invoices/:id/payment", s.GetInvoicePayment)
	r.POST("/invoices/:id/payments", s.RecordManualPayment)
}

// RequestLogger logs one line per request at a level derived from the status.
func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			s.log.Warn("request rejected", fields...)
		default:
			s.log.Debug("request served", fields...)
		}
	}
}

func RegisterLifecycle(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
