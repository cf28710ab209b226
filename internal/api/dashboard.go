package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront-backend/internal/models"
)

const dashboardMonths = 12

type monthlyEarning struct {
	Month    string  `json:"month"`
	Earnings float64 `json:"earnings"`
	Orders   int     `json:"orders"`
}

type dashboardSummary struct {
	TotalEarnings float64          `json:"totalEarnings"`
	TotalOrders   int              `json:"totalOrders"`
	PaidOrders    int              `json:"paidOrders"`
	Customers     int              `json:"customers"`
	Products      int64            `json:"products"`
	Monthly       []monthlyEarning `json:"monthly"`
}

// summarizeDashboard totals paid orders overall and per calendar month for
// the twelve months ending with now's month, oldest first.
func summarizeDashboard(orders []models.Order, products int64, now time.Time) dashboardSummary {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(dashboardMonths - 1), 0)

	monthly := make([]monthlyEarning, dashboardMonths)
	sums := make([]decimal.Decimal, dashboardMonths)
	for i := range monthly {
		monthly[i].Month = start.AddDate(0, i, 0).Format("2006-01")
	}

	total := decimal.Zero
	paid := 0
	customers := map[primitive.ObjectID]struct{}{}
	for _, o := range orders {
		customers[o.UserID] = struct{}{}
		if o.PaymentStatus != models.PaymentPaid {
			continue
		}
		paid++
		amount := decimal.NewFromFloat(o.TotalAmount)
		total = total.Add(amount)

		d := o.OrderDate.UTC()
		idx := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
		if idx >= 0 && idx < dashboardMonths {
			sums[idx] = sums[idx].Add(amount)
			monthly[idx].Orders++
		}
	}
	for i := range monthly {
		monthly[i].Earnings = sums[i].Round(2).InexactFloat64()
	}

	return dashboardSummary{
		TotalEarnings: total.Round(2).InexactFloat64(),
		TotalOrders:   len(orders),
		PaidOrders:    paid,
		Customers:     len(customers),
		Products:      products,
		Monthly:       monthly,
	}
}

func (h *Handler) dashboard(c *gin.Context) {
	var (
		orders   []models.Order
		products int64
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		orders, err = h.Orders.ListAll(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = h.Products.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, summarizeDashboard(orders, products, time.Now()))
}
