package app

import (
	"context"
	"fmt"

	accessRepository "github.com/allisson/compliance/internal/access/repository"
	accessUseCase "github.com/allisson/compliance/internal/access/usecase"
)

// CatalogRepository returns the permission catalog repository instance.
func (c *Container) CatalogRepository() (accessUseCase.CatalogRepository, error) {
	var err error
	c.catalogRepoInit.Do(func() {
		c.catalogRepo, err = c.initCatalogRepository()
		if err != nil {
			c.initErrors["catalogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["catalogRepo"]; exists {
		return nil, storedErr
	}
	return c.catalogRepo, nil
}

// CatalogUseCase returns the permission catalog use case. The persisted
// catalog snapshot is loaded into memory on first access.
func (c *Container) CatalogUseCase() (accessUseCase.CatalogUseCase, error) {
	var err error
	c.catalogUseCaseInit.Do(func() {
		c.catalogUseCase, err = c.initCatalogUseCase()
		if err != nil {
			c.initErrors["catalogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["catalogUseCase"]; exists {
		return nil, storedErr
	}
	return c.catalogUseCase, nil
}

// initCatalogRepository creates the catalog repository for the configured driver.
func (c *Container) initCatalogRepository() (accessUseCase.CatalogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for catalog repository: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for catalog repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return accessRepository.NewPostgreSQLCatalogRepository(db, txManager), nil
	case "mysql":
		return accessRepository.NewMySQLCatalogRepository(db, txManager), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCatalogUseCase creates the catalog use case and loads the persisted snapshot.
func (c *Container) initCatalogUseCase() (accessUseCase.CatalogUseCase, error) {
	catalogRepo, err := c.CatalogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog repository for catalog use case: %w", err)
	}

	useCase := accessUseCase.NewCatalogUseCase(catalogRepo)
	if err := useCase.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load permission catalog: %w", err)
	}

	return useCase, nil
}
