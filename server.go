package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/umkmpro/umkm_backend/config"
	"github.com/umkmpro/umkm_backend/models"
	"github.com/umkmpro/umkm_backend/store"
	"github.com/umkmpro/umkm_backend/workflow"
)

const defaultPort = "8080"

// ledgerStore flips from nil to ready once storage is connected and the
// snapshot is loaded. App endpoints return 503 until then, so the HTTP
// port can bind immediately (Cloud Run requires a fast bind on $PORT).
var ledgerStore atomic.Pointer[store.Store]

func getStore() *store.Store {
	return ledgerStore.Load()
}

func writeError(c *gin.Context, err error) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		conflictErr   *models.ConflictError
		stockErr      *models.InsufficientStockError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     stockErr.Error(),
			"product":   stockErr.ProductName,
			"variant":   stockErr.VariantLabel,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func snapshotHandler(c *gin.Context) {
	c.JSON(http.StatusOK, getStore().Snapshot())
}

func createBatchHandler(c *gin.Context) {
	var input models.NewBatch
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var created *models.Batch
	err := getStore().Apply(c.Request.Context(), "CreateBatch", func(s *models.LedgerSnapshot) error {
		var opErr error
		created, opErr = workflow.CreateBatch(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func editBatchHandler(c *gin.Context) {
	var input models.UpdateBatch
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var updated *models.Batch
	err := getStore().Apply(c.Request.Context(), "EditBatch", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.EditBatch(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func deleteBatchHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteBatch", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteBatch(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func startProductionHandler(c *gin.Context) {
	var input models.NewProduction
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var created *models.ProductionRecord
	err := getStore().Apply(c.Request.Context(), "StartProduction", func(s *models.LedgerSnapshot) error {
		var opErr error
		created, opErr = workflow.StartProduction(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func updateProductionHandler(c *gin.Context) {
	var input models.UpdateProduction
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var updated *models.ProductionRecord
	err := getStore().Apply(c.Request.Context(), "UpdateProduction", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.UpdateProduction(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func completeProductionHandler(c *gin.Context) {
	var input models.CompleteProduction
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var completed *models.ProductionRecord
	err := getStore().Apply(c.Request.Context(), "CompleteProduction", func(s *models.LedgerSnapshot) error {
		var opErr error
		completed, opErr = workflow.CompleteProduction(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, completed)
}

func deleteProductionHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteProduction", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteProduction(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func recordSaleHandler(c *gin.Context) {
	var input models.NewSale
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var created *models.SaleRecord
	err := getStore().Apply(c.Request.Context(), "RecordSale", func(s *models.LedgerSnapshot) error {
		var opErr error
		created, opErr = workflow.RecordSale(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func editSaleHandler(c *gin.Context) {
	var input models.UpdateSale
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var updated *models.SaleRecord
	err := getStore().Apply(c.Request.Context(), "EditSale", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.EditSale(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func deleteSaleHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteSale", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteSale(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func createOrderHandler(c *gin.Context) {
	var input models.NewDepositOrder
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var created *models.DepositOrder
	err := getStore().Apply(c.Request.Context(), "CreateDepositOrder", func(s *models.LedgerSnapshot) error {
		var opErr error
		created, opErr = workflow.CreateDepositOrder(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func updateOrderHandler(c *gin.Context) {
	var input models.UpdateDepositOrder
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var updated *models.DepositOrder
	err := getStore().Apply(c.Request.Context(), "UpdateDepositOrder", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.UpdateDepositOrder(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type completeOrderRequest struct {
	CompletedAt   int64                `json:"completedAt"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

func completeOrderHandler(c *gin.Context) {
	var req completeOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.CompletedAt == 0 {
		req.CompletedAt = time.Now().UnixMilli()
	}
	id := c.Param("id")
	var completed *models.DepositOrder
	err := getStore().Apply(c.Request.Context(), "CompleteDepositOrder", func(s *models.LedgerSnapshot) error {
		var opErr error
		completed, opErr = workflow.CompleteDepositOrder(s, id, req.CompletedAt, req.PaymentMethod)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, completed)
}

func cancelOrderHandler(c *gin.Context) {
	id := c.Param("id")
	var cancelled *models.DepositOrder
	err := getStore().Apply(c.Request.Context(), "CancelDepositOrder", func(s *models.LedgerSnapshot) error {
		var opErr error
		cancelled, opErr = workflow.CancelDepositOrder(s, id)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

func deleteOrderHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteDepositOrder", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteDepositOrder(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func createLoanHandler(c *gin.Context) {
	var input models.NewLoan
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var created *models.Loan
	err := getStore().Apply(c.Request.Context(), "CreateLoan", func(s *models.LedgerSnapshot) error {
		var opErr error
		created, opErr = workflow.CreateLoan(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func updateLoanHandler(c *gin.Context) {
	var input models.UpdateLoan
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var updated *models.Loan
	err := getStore().Apply(c.Request.Context(), "UpdateLoan", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.UpdateLoan(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func repayLoanHandler(c *gin.Context) {
	var input models.LoanRepayment
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	id := c.Param("id")
	var updated *models.Loan
	err := getStore().Apply(c.Request.Context(), "RepayLoan", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.RepayLoan(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func deleteLoanHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteLoan", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteLoan(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func addTransactionHandler(c *gin.Context) {
	var input models.NewTransaction
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var created *models.Transaction
	err := getStore().Apply(c.Request.Context(), "AddTransaction", func(s *models.LedgerSnapshot) error {
		var opErr error
		created, opErr = workflow.AddTransaction(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func editTransactionHandler(c *gin.Context) {
	var input models.UpdateTransaction
	if !bindJSON(c, &input) {
		return
	}
	id := c.Param("id")
	var updated *models.Transaction
	err := getStore().Apply(c.Request.Context(), "EditTransaction", func(s *models.LedgerSnapshot) error {
		var opErr error
		updated, opErr = workflow.EditTransaction(s, id, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func deleteTransactionHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteTransaction", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteTransaction(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func transferFundsHandler(c *gin.Context) {
	var input models.NewTransfer
	if !bindJSON(c, &input) {
		return
	}
	if input.CreatedAt == 0 {
		input.CreatedAt = time.Now().UnixMilli()
	}
	var legs []*models.Transaction
	err := getStore().Apply(c.Request.Context(), "TransferFunds", func(s *models.LedgerSnapshot) error {
		var opErr error
		legs, opErr = workflow.TransferFunds(s, &input)
		return opErr
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, legs)
}

func deleteTransferHandler(c *gin.Context) {
	id := c.Param("id")
	err := getStore().Apply(c.Request.Context(), "DeleteTransfer", func(s *models.LedgerSnapshot) error {
		return workflow.DeleteTransfer(s, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// initStorage connects the configured storage driver, loads the snapshot
// and flips the readiness pointer. Blocks until storage is ready.
func initStorage(logger *logrus.Logger) {
	businessId := store.DefaultBusinessID()

	var repo store.Repository
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	switch driver {
	case "file":
		dir := os.Getenv("DATA_DIR")
		if dir == "" {
			dir = "./data"
		}
		repo = store.NewFileRepository(dir, businessId)
	default:
		config.ConnectDatabaseWithRetry()
		db := config.GetDB()
		if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
			if err := models.MigrateTable(db); err != nil {
				logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
		repo = store.NewGormRepository(db, businessId)
	}

	var publisher store.SyncPublisher
	if p := store.NewPubSubPublisher(); p != nil {
		publisher = p
	}

	st := store.NewStore(businessId, repo, publisher)
	for attempt := 1; ; attempt++ {
		if err := st.Load(context.Background()); err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "storage",
			"attempt": attempt,
		}).Warn("failed to load snapshot; retrying in " + sleep.String())
		time.Sleep(sleep)
	}
	ledgerStore.Store(st)
	log.Printf("ledger ready (business_id=%s driver=%s)", businessId, driver)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	// Correlation IDs: generate once per request and attach as a header.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on storage readiness.
		if getStore() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated); non-production allows all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/snapshot", snapshotHandler)

	api.POST("/batches", createBatchHandler)
	api.PUT("/batches/:id", editBatchHandler)
	api.DELETE("/batches/:id", deleteBatchHandler)

	api.POST("/productions", startProductionHandler)
	api.PUT("/productions/:id", updateProductionHandler)
	api.POST("/productions/:id/complete", completeProductionHandler)
	api.DELETE("/productions/:id", deleteProductionHandler)

	api.POST("/sales", recordSaleHandler)
	api.PUT("/sales/:id", editSaleHandler)
	api.DELETE("/sales/:id", deleteSaleHandler)

	api.POST("/orders", createOrderHandler)
	api.PUT("/orders/:id", updateOrderHandler)
	api.POST("/orders/:id/complete", completeOrderHandler)
	api.POST("/orders/:id/cancel", cancelOrderHandler)
	api.DELETE("/orders/:id", deleteOrderHandler)

	api.POST("/loans", createLoanHandler)
	api.PUT("/loans/:id", updateLoanHandler)
	api.POST("/loans/:id/repay", repayLoanHandler)
	api.DELETE("/loans/:id", deleteLoanHandler)

	api.POST("/transactions", addTransactionHandler)
	api.PUT("/transactions/:id", editTransactionHandler)
	api.DELETE("/transactions/:id", deleteTransactionHandler)

	api.POST("/transfers", transferFundsHandler)
	api.DELETE("/transfers/:id", deleteTransferHandler)

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (the startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	go func() {
		config.ConnectRedisWithRetry()
		initStorage(logger)
	}()

	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
	if db := config.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}
