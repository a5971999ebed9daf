package app

import (
	"fmt"

	issuanceRepository "github.com/allisson/credits/internal/issuance/repository"
	verificationHTTP "github.com/allisson/credits/internal/verification/http"
	verificationRepository "github.com/allisson/credits/internal/verification/repository"
	verificationUsecase "github.com/allisson/credits/internal/verification/usecase"
)

// VerificationRequestRepository returns the verification request repository based on database driver.
func (c *Container) VerificationRequestRepository() (verificationUsecase.VerificationRequestRepository, error) {
	var err error
	c.verificationRepoInit.Do(func() {
		c.verificationRepo, err = c.initVerificationRequestRepository()
		if err != nil {
			c.initErrors["verificationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationRepo"]; exists {
		return nil, storedErr
	}
	return c.verificationRepo, nil
}

// CreditIssuanceRepository returns the credit issuance repository based on database driver.
func (c *Container) CreditIssuanceRepository() (verificationUsecase.CreditIssuanceRepository, error) {
	var err error
	c.issuanceRepoInit.Do(func() {
		c.issuanceRepo, err = c.initCreditIssuanceRepository()
		if err != nil {
			c.initErrors["issuanceRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuanceRepo"]; exists {
		return nil, storedErr
	}
	return c.issuanceRepo, nil
}

// VerificationUseCase returns the verification use case wrapped with business metrics.
func (c *Container) VerificationUseCase() (verificationUsecase.VerificationUseCase, error) {
	var err error
	c.verificationUseCaseInit.Do(func() {
		c.verificationUseCase, err = c.initVerificationUseCase()
		if err != nil {
			c.initErrors["verificationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.verificationUseCase, nil
}

// VerificationHandler returns the HTTP handler for verification requests.
func (c *Container) VerificationHandler() (*verificationHTTP.VerificationHandler, error) {
	var err error
	c.verificationHandlerInit.Do(func() {
		c.verificationHandler, err = c.initVerificationHandler()
		if err != nil {
			c.initErrors["verificationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationHandler"]; exists {
		return nil, storedErr
	}
	return c.verificationHandler, nil
}

func (c *Container) initVerificationRequestRepository() (verificationUsecase.VerificationRequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for verification repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return verificationRepository.NewMySQLVerificationRequestRepository(db), nil
	case "postgres":
		return verificationRepository.NewPostgreSQLVerificationRequestRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initCreditIssuanceRepository() (verificationUsecase.CreditIssuanceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for issuance repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return issuanceRepository.NewMySQLCreditIssuanceRepository(db), nil
	case "postgres":
		return issuanceRepository.NewPostgreSQLCreditIssuanceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initVerificationUseCase() (verificationUsecase.VerificationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for verification use case: %w", err)
	}

	verificationRepo, err := c.VerificationRequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification repository for verification use case: %w", err)
	}

	issuanceRepo, err := c.CreditIssuanceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance repository for verification use case: %w", err)
	}

	store, err := c.OutboxStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox store for verification use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for verification use case: %w", err)
	}

	useCase := verificationUsecase.NewVerificationUseCase(
		txManager,
		verificationRepo,
		issuanceRepo,
		store,
		c.Logger(),
	)

	return verificationUsecase.NewVerificationUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initVerificationHandler() (*verificationHTTP.VerificationHandler, error) {
	useCase, err := c.VerificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification use case for verification handler: %w", err)
	}
	return verificationHTTP.NewVerificationHandler(useCase, c.Logger()), nil
}
