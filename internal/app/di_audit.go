package app

import (
	"fmt"

	auditRepository "github.com/allisson/compliance/internal/audit/repository"
	auditService "github.com/allisson/compliance/internal/audit/service"
	auditUseCase "github.com/allisson/compliance/internal/audit/usecase"
)

// Classifier returns the request classification engine.
func (c *Container) Classifier() auditService.Classifier {
	c.classifierInit.Do(func() {
		c.classifier = auditService.NewClassifier()
	})
	return c.classifier
}

// EntryRepository returns the audit entry repository instance.
func (c *Container) EntryRepository() (auditUseCase.EntryRepository, error) {
	var err error
	c.entryRepoInit.Do(func() {
		c.entryRepo, err = c.initEntryRepository()
		if err != nil {
			c.initErrors["entryRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["entryRepo"]; exists {
		return nil, storedErr
	}
	return c.entryRepo, nil
}

// EntryWriter returns the asynchronous audit entry writer. The writer's
// persistence loop is started on first access.
func (c *Container) EntryWriter() (auditUseCase.EntryWriter, error) {
	var err error
	c.entryWriterInit.Do(func() {
		c.entryWriter, err = c.initEntryWriter()
		if err != nil {
			c.initErrors["entryWriter"] = err
			return
		}
		c.entryWriter.Start()
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["entryWriter"]; exists {
		return nil, storedErr
	}
	return c.entryWriter, nil
}

// AuditTrailUseCase returns the audit trail use case instance.
func (c *Container) AuditTrailUseCase() (auditUseCase.AuditTrailUseCase, error) {
	var err error
	c.auditTrailUseCaseInit.Do(func() {
		c.auditTrailUseCase, err = c.initAuditTrailUseCase()
		if err != nil {
			c.initErrors["auditTrailUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditTrailUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditTrailUseCase, nil
}

// initEntryRepository creates the audit entry repository for the configured driver.
func (c *Container) initEntryRepository() (auditUseCase.EntryRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for entry repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLEntryRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLEntryRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initEntryWriter creates the asynchronous audit entry writer.
func (c *Container) initEntryWriter() (auditUseCase.EntryWriter, error) {
	entryRepo, err := c.EntryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry repository for entry writer: %w", err)
	}

	auditMetrics, err := c.AuditMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit metrics for entry writer: %w", err)
	}

	return auditUseCase.NewEntryWriter(
		auditUseCase.WriterConfig{
			QueueSize:      c.config.AuditQueueSize,
			MaxRetries:     c.config.AuditMaxRetries,
			RetryInterval:  c.config.AuditRetryInterval,
			PersistTimeout: c.config.AuditPersistTimeout,
		},
		entryRepo,
		c.Logger(),
		auditMetrics,
	), nil
}

// initAuditTrailUseCase creates the audit trail use case with all its dependencies.
func (c *Container) initAuditTrailUseCase() (auditUseCase.AuditTrailUseCase, error) {
	entryRepo, err := c.EntryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry repository for audit trail use case: %w", err)
	}

	entryWriter, err := c.EntryWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry writer for audit trail use case: %w", err)
	}

	stateEncryptor, err := c.StateEncryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to get state encryptor for audit trail use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for audit trail use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for audit trail use case: %w", err)
	}

	useCase := auditUseCase.NewAuditTrailUseCase(
		c.Classifier(),
		entryRepo,
		entryWriter,
		stateEncryptor,
		txManager,
		c.Logger(),
	)

	return auditUseCase.NewAuditTrailUseCaseWithMetrics(useCase, businessMetrics), nil
}
