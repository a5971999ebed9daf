package app

import (
	"fmt"

	auditRepository "github.com/allisson/credits/internal/audit/repository"
	auditUsecase "github.com/allisson/credits/internal/audit/usecase"
	"github.com/allisson/credits/internal/lock"
	outboxDomain "github.com/allisson/credits/internal/outbox/domain"
	outboxHTTP "github.com/allisson/credits/internal/outbox/http"
	outboxRepository "github.com/allisson/credits/internal/outbox/repository"
	outboxUsecase "github.com/allisson/credits/internal/outbox/usecase"
	"github.com/allisson/credits/internal/wallet"
)

// OutboxRepository returns the outbox event repository based on database driver.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxStore returns the outbox store shared by the verification use case and the dispatcher.
func (c *Container) OutboxStore() (*outboxUsecase.Store, error) {
	var err error
	c.outboxStoreInit.Do(func() {
		c.outboxStore, err = c.initOutboxStore()
		if err != nil {
			c.initErrors["outboxStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxStore"]; exists {
		return nil, storedErr
	}
	return c.outboxStore, nil
}

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	var err error
	c.auditLogRepoInit.Do(func() {
		c.auditLogRepo, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// AuditLogUseCase returns the audit sink used by the dispatcher.
func (c *Container) AuditLogUseCase() (outboxUsecase.AuditLogClient, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// WalletClient returns the wallet client selected by configuration.
func (c *Container) WalletClient() (outboxUsecase.WalletClient, error) {
	var err error
	c.walletClientInit.Do(func() {
		c.walletClient, err = c.initWalletClient()
		if err != nil {
			c.initErrors["walletClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletClient"]; exists {
		return nil, storedErr
	}
	return c.walletClient, nil
}

// Dispatcher returns the outbox dispatcher.
func (c *Container) Dispatcher() (*outboxUsecase.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = c.initDispatcher()
		if err != nil {
			c.initErrors["dispatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// OutboxHandler returns the HTTP handler listing failed outbox events.
func (c *Container) OutboxHandler() (*outboxHTTP.OutboxHandler, error) {
	var err error
	c.outboxHandlerInit.Do(func() {
		c.outboxHandler, err = c.initOutboxHandler()
		if err != nil {
			c.initErrors["outboxHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxHandler"]; exists {
		return nil, storedErr
	}
	return c.outboxHandler, nil
}

func (c *Container) initOutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initOutboxStore() (*outboxUsecase.Store, error) {
	repo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox store: %w", err)
	}

	policy := outboxDomain.NewBackoffPolicy(c.config.OutboxInitialBackoff, c.config.OutboxMaxBackoff)
	return outboxUsecase.NewStore(repo, c.config.OutboxMaxAttempts, policy), nil
}

func (c *Container) initAuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return auditRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return auditRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAuditLogUseCase() (outboxUsecase.AuditLogClient, error) {
	repo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}
	return auditUsecase.NewAuditLogUseCase(repo, c.Logger()), nil
}

func (c *Container) initWalletClient() (outboxUsecase.WalletClient, error) {
	switch c.config.WalletClient {
	case "log":
		return wallet.NewLogClient(c.Logger()), nil
	case "http":
		return wallet.NewHTTPClient(
			c.config.WalletBaseURL,
			c.config.WalletAPIKey,
			c.config.OutboxEventTimeout,
			nil,
			c.Logger(),
		), nil
	default:
		return nil, fmt.Errorf("unsupported wallet client: %s", c.config.WalletClient)
	}
}

func (c *Container) initDispatcher() (*outboxUsecase.Dispatcher, error) {
	store, err := c.OutboxStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox store for dispatcher: %w", err)
	}

	walletClient, err := c.WalletClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet client for dispatcher: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for dispatcher: %w", err)
	}

	outboxMetrics, err := c.OutboxMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox metrics for dispatcher: %w", err)
	}

	// locker stays nil unless the lease is enabled.
	var locker outboxUsecase.Locker
	if c.config.DispatcherLockEnabled {
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for dispatcher: %w", err)
		}
		locker = lock.NewRedisLock(client, c.config.DispatcherLockKey, c.config.DispatcherLockTTL)
	}

	return outboxUsecase.NewDispatcher(
		outboxUsecase.Config{
			PollInterval: c.config.OutboxPollInterval,
			BatchSize:    c.config.OutboxBatchSize,
			EventTimeout: c.config.OutboxEventTimeout,
			DispatchRate: c.config.OutboxDispatchRate,
		},
		store,
		walletClient,
		auditLog,
		locker,
		outboxMetrics,
		c.Logger(),
	), nil
}

func (c *Container) initOutboxHandler() (*outboxHTTP.OutboxHandler, error) {
	store, err := c.OutboxStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox store for outbox handler: %w", err)
	}
	return outboxHTTP.NewOutboxHandler(store, c.Logger()), nil
}
