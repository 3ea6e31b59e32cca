package ditib

import (
	"errors"
	"fmt"

	"dernek-backend/internal/auth"
	"dernek-backend/internal/bankimport"

	"github.com/gofiber/fiber/v2"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// POST /api/ditib-uploads (multipart: file, bank_account_id[, verein_id])
func DitibUploadHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		vereinID, err := auth.ResolveVereinID(c, c.FormValue("verein_id"))
		if err != nil {
			return err
		}

		var bankAccountID uint
		if _, err := fmt.Sscan(c.FormValue("bank_account_id"), &bankAccountID); err != nil || bankAccountID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "bank_account_id zorunlu")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya eksik (file alanı)")
		}
		if fileHeader.Size > maxUploadSize {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya boyutu 10MB'ı aşamaz")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya açılamadı")
		}
		defer file.Close()

		rows, err := bankimport.ParseStatement(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya ayrıştırılamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Dosyada işlenecek satır bulunamadı")
		}

		report, err := svc.ProcessDitibUpload(actor, vereinID, bankAccountID, rows)
		if err != nil {
			if errors.Is(err, bankimport.ErrVereinNotFound) || errors.Is(err, bankimport.ErrBankAccountNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Yükleme tamamlanamadı")
		}

		return c.JSON(report)
	}
}

// GET /api/ditib-payments[?verein_id=1]
func ListDitibPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vereinID, err := auth.ResolveVereinID(c, c.Query("verein_id"))
		if err != nil {
			return err
		}

		payments, err := svc.ListPayments(vereinID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "DITIB ödemeleri listelenemedi")
		}

		return c.JSON(payments)
	}
}
