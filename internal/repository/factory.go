package repository

import (
	"github.com/RiveraMg/MiaBot/internal/domain/client"
	"github.com/RiveraMg/MiaBot/internal/domain/invoice"
	"github.com/RiveraMg/MiaBot/internal/domain/payment"
	"github.com/RiveraMg/MiaBot/internal/domain/product"
	"github.com/RiveraMg/MiaBot/internal/domain/settings"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	postgresRepo "github.com/RiveraMg/MiaBot/internal/repository/postgres"
)

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewProductRepository(db *postgres.DB, logger *logger.Logger) product.Repository {
	return postgresRepo.NewProductRepository(db, logger)
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

func NewSettingsRepository(db *postgres.DB, logger *logger.Logger) settings.Repository {
	return postgresRepo.NewSettingsRepository(db, logger)
}
