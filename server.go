package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/binaamarket/ledger_backend/config"
	"github.com/binaamarket/ledger_backend/ledger"
	"github.com/binaamarket/ledger_backend/models"
	"github.com/binaamarket/ledger_backend/storage"
	"github.com/binaamarket/ledger_backend/utils"
	"github.com/binaamarket/ledger_backend/workflow"
)

const defaultPort = "8080"

func main() {
	config.LoadEnv()
	logger := config.NewLogger()

	var store storage.Store
	switch config.EnvString("STORAGE_DRIVER", "memory") {
	case "mysql":
		db, err := config.OpenDatabase()
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		gs := storage.NewGorm(db)
		if err := gs.Migrate(); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		store = gs
	default:
		store = storage.NewMemory()
	}

	var cacheTTL time.Duration
	cache := config.NewRedisClient()
	if !config.EnvBool("ENABLE_REPORT_CACHE") {
		cache = nil
	} else {
		cacheTTL = config.EnvSeconds("REPORT_CACHE_TTL_SECONDS", 2*time.Minute)
	}

	svc := ledger.NewService(store, ledger.Options{
		Logger:         logger,
		ReportCache:    cache,
		ReportCacheTTL: cacheTTL,
	})
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if providerURL := config.EnvString("RATE_PROVIDER_URL", ""); providerURL != "" {
		pairs := parseRatePairs(config.EnvString("RATE_REFRESH_PAIRS", ""))
		if len(pairs) > 0 {
			refresher := workflow.NewRateRefresher(
				svc.Rates,
				&workflow.HTTPRateSource{BaseURL: providerURL},
				pairs,
				config.EnvSeconds("RATE_REFRESH_INTERVAL_SECONDS", time.Hour),
				logger,
			)
			go refresher.Run(ctx)
		}
	}

	router := newRouter(svc, logger)
	srv := &http.Server{
		Addr:    ":" + config.EnvString("PORT", defaultPort),
		Handler: router,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("ledger server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// parseRatePairs reads "USD:SAR,EUR:SAR" into tracked pairs.
func parseRatePairs(raw string) []workflow.RatePair {
	var pairs []workflow.RatePair
	for _, part := range strings.Split(raw, ",") {
		fromTo := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fromTo) != 2 || fromTo[0] == "" || fromTo[1] == "" {
			continue
		}
		pairs = append(pairs, workflow.RatePair{
			From: strings.ToUpper(fromTo[0]),
			To:   strings.ToUpper(fromTo[1]),
		})
	}
	return utils.UniqueSlice(pairs)
}

func newRouter(svc *ledger.Service, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(config.EnvString("CORS_ORIGINS", "*"), ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")

	api.POST("/currencies", func(c *gin.Context) {
		var input models.NewCurrency
		if !bindJSON(c, &input) {
			return
		}
		currency, err := svc.Registry.RegisterCurrency(input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, currency)
	})

	api.PUT("/currencies/base", func(c *gin.Context) {
		var input struct {
			Code string `json:"code" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}
		if err := svc.Registry.SetBaseCurrency(input.Code); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/currencies", func(c *gin.Context) {
		currencies, err := svc.Registry.ListCurrencies()
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, currencies)
	})

	api.POST("/rates", func(c *gin.Context) {
		var input struct {
			From       string            `json:"from" binding:"required"`
			To         string            `json:"to" binding:"required"`
			Rate       decimal.Decimal   `json:"rate" binding:"required"`
			Source     models.RateSource `json:"source"`
			Confidence float64           `json:"confidence"`
		}
		if !bindJSON(c, &input) {
			return
		}
		if err := svc.UpdateExchangeRate(input.From, input.To, input.Rate, input.Source, input.Confidence); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/rates", func(c *gin.Context) {
		var asOf *time.Time
		if raw := c.Query("as_of"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
				return
			}
			asOf = &t
		}
		rate, err := svc.GetExchangeRate(c.Query("from"), c.Query("to"), asOf)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"from": c.Query("from"), "to": c.Query("to"), "rate": rate})
	})

	api.POST("/accounts", func(c *gin.Context) {
		var input models.NewAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := svc.Chart.CreateAccount(input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	})

	api.GET("/accounts", func(c *gin.Context) {
		var filter models.AccountFilter
		if raw := c.Query("type"); raw != "" {
			t := models.AccountType(raw)
			filter.Type = &t
		}
		filter.ActiveOnly = c.Query("active") == "true"
		accounts, err := svc.Chart.ListAccounts(filter)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, accounts)
	})

	api.POST("/transactions", func(c *gin.Context) {
		var input models.NewTransaction
		if !bindJSON(c, &input) {
			return
		}
		txn, err := svc.Ledger.AddTransaction(input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	})

	api.PUT("/transactions/:id/status", func(c *gin.Context) {
		var input struct {
			Status models.TransactionStatus `json:"status" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}
		txn, err := svc.Ledger.TransitionStatus(c.Param("id"), input.Status)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	})

	api.POST("/tax/vat", func(c *gin.Context) {
		var input struct {
			Amount    decimal.Decimal `json:"amount" binding:"required"`
			Rate      decimal.Decimal `json:"rate" binding:"required"`
			Inclusive bool            `json:"inclusive"`
		}
		if !bindJSON(c, &input) {
			return
		}
		breakdown, err := svc.CalculateVAT(input.Amount, input.Rate, input.Inclusive)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, breakdown)
	})

	api.POST("/bank-accounts", func(c *gin.Context) {
		var input models.NewBankAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := svc.Recon.RegisterBankAccount(input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	})

	api.POST("/bank-accounts/:id/reconcile", func(c *gin.Context) {
		var input struct {
			Lines []models.StatementLine `json:"lines" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}
		record, err := svc.ReconcileBankAccount(c.Param("id"), input.Lines)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})

	api.PUT("/reconciliations/:id/finalize", func(c *gin.Context) {
		var input struct {
			Status models.ReconciliationStatus `json:"status" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}
		record, err := svc.Recon.FinalizeReconciliation(c.Param("id"), input.Status)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})

	api.GET("/reports/income-statement", func(c *gin.Context) {
		start, end, ok := parseRange(c)
		if !ok {
			return
		}
		stmt, err := svc.GenerateIncomeStatement(start, end, c.Query("currency"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if c.Query("format") == "xlsx" {
			f, err := ledger.ExportIncomeStatementXLSX(stmt)
			if err != nil {
				abortWithError(c, err)
				return
			}
			writeXLSX(c, logger, f, "income-statement.xlsx")
			return
		}
		c.JSON(http.StatusOK, stmt)
	})

	api.GET("/reports/balance-sheet", func(c *gin.Context) {
		asOf := time.Now().UTC()
		if raw := c.Query("as_of"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
				return
			}
			asOf = t
		}
		sheet, err := svc.GenerateBalanceSheet(asOf, c.Query("currency"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if c.Query("format") == "xlsx" {
			f, err := ledger.ExportBalanceSheetXLSX(sheet)
			if err != nil {
				abortWithError(c, err)
				return
			}
			writeXLSX(c, logger, f, "balance-sheet.xlsx")
			return
		}
		c.JSON(http.StatusOK, sheet)
	})

	api.GET("/reports/vat-return", func(c *gin.Context) {
		start, end, ok := parseRange(c)
		if !ok {
			return
		}
		ret, err := svc.GenerateVATReturn(start, end, c.Query("currency"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, ret)
	})

	return router
}

func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	// End of day so the range is inclusive.
	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func writeXLSX(c *gin.Context, logger *logrus.Logger, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Writer); err != nil {
		config.LogError(logger, "server", "writeXLSX", "write xlsx response", nil, err)
	}
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrDuplicateCurrency),
		errors.Is(err, ledger.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrCurrencyNotFound),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrExchangeRateNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidHierarchy):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
