package financial

import (
	"errors"
	"fmt"
	"time"

	"dernek-backend/internal/auth"
	"dernek-backend/internal/database"
	"dernek-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/members/:id/financial-summary
func MemberFinancialSummaryHandler(svc *SummaryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var memberID uint
		if _, err := fmt.Sscan(c.Params("id"), &memberID); err != nil || memberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üye ID")
		}

		summary, err := svc.MemberSummary(c.Context(), memberID)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Finansal özet hesaplanamadı")
		}

		return c.JSON(summary)
	}
}

type ChannelRevenue struct {
	Channel string  `json:"channel"`
	Total   float64 `json:"total"`
}

type MonthlyVereinSummaryResponse struct {
	VereinID      uint             `json:"verein_id"`
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	Revenue       []ChannelRevenue `json:"revenue"`
	TotalRevenue  float64          `json:"total_revenue"`
	DitibExpenses float64          `json:"ditib_expenses"`
	NetResult     float64          `json:"net_result"`
}

// -----------------------------------
// GET /api/financial-summary/monthly
// ?year=2025&month=4[&verein_id=1]
// -----------------------------------
func MonthlyVereinSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vereinID, err := auth.ResolveVereinID(c, c.Query("verein_id"))
		if err != nil {
			return err
		}

		yearStr := c.Query("year")
		monthStr := c.Query("month")
		if yearStr == "" || monthStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
		}

		var year, month int
		if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}
		if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
		}

		firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		nextMonth := firstDay.AddDate(0, 1, 0)

		// 1) Üye ödemeleri kanal bazında
		type revRow struct {
			Channel string  `gorm:"column:channel"`
			Total   float64 `gorm:"column:total"`
		}
		var revRows []revRow

		if err := database.DB.
			Model(&models.Payment{}).
			Select("channel, SUM(amount) as total").
			Where("verein_id = ? AND payment_date >= ? AND payment_date < ?", vereinID, firstDay, nextMonth).
			Group("channel").
			Scan(&revRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gelirler hesaplanamadı")
		}

		resp := MonthlyVereinSummaryResponse{
			VereinID: vereinID,
			Year:     year,
			Month:    month,
			Revenue:  make([]ChannelRevenue, 0, len(revRows)),
		}
		for _, r := range revRows {
			resp.Revenue = append(resp.Revenue, ChannelRevenue{Channel: r.Channel, Total: r.Total})
			resp.TotalRevenue += r.Total
		}

		// 2) DITIB giderleri
		var ditibTotal float64
		if err := database.DB.
			Model(&models.DitibPayment{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("verein_id = ? AND payment_date >= ? AND payment_date < ?", vereinID, firstDay, nextMonth).
			Scan(&ditibTotal).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "DITIB giderleri hesaplanamadı")
		}

		resp.DitibExpenses = ditibTotal
		resp.NetResult = resp.TotalRevenue - ditibTotal

		return c.JSON(resp)
	}
}
