package bankimport

import (
	"errors"
	"fmt"

	"dernek-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// POST /api/bank-uploads (multipart: file, bank_account_id[, verein_id])
func BankUploadHandler(svc *UploadService) fiber.Handler {
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

		rows, err := ParseStatement(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya ayrıştırılamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Dosyada işlenecek satır bulunamadı")
		}

		report, err := svc.ProcessBankUpload(c.Context(), actor, vereinID, bankAccountID, rows)
		if err != nil {
			return mapServiceError(err)
		}

		return c.JSON(report)
	}
}

// GET /api/bank-transactions/unmatched[?verein_id=1]
func UnmatchedTransactionsHandler(svc *UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vereinID, err := auth.ResolveVereinID(c, c.Query("verein_id"))
		if err != nil {
			return err
		}

		txs, err := svc.UnmatchedTransactions(vereinID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Eşleşmeyen işlemler listelenemedi")
		}

		return c.JSON(txs)
	}
}

type ManualMatchRequest struct {
	MemberID uint      `json:"member_id"`
	ClaimIDs []uint    `json:"claim_ids"`
	Amounts  []float64 `json:"amounts"`
}

// POST /api/bank-transactions/:id/match
func ManualMatchHandler(svc *UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var txID uint
		if _, err := fmt.Sscan(c.Params("id"), &txID); err != nil || txID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz işlem ID")
		}

		var body ManualMatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.MemberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "member_id zorunlu")
		}

		result, err := svc.ManualMatch(c.Context(), actor, ManualMatchInput{
			BankTransactionID: txID,
			MemberID:          body.MemberID,
			ClaimIDs:          body.ClaimIDs,
			Amounts:           body.Amounts,
		})
		if err != nil {
			return mapServiceError(err)
		}

		return c.JSON(result)
	}
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrVereinNotFound),
		errors.Is(err, ErrBankAccountNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrMemberNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyMatched):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
	}
}
