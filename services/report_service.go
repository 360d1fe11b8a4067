package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"caketime/entity"
	"caketime/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReportService recomputes every figure from the order tables on each call.
type ReportService struct {
	reports      *repository.ReportRepository
	orders       *repository.OrderRepository
	products     *repository.ProductRepository
	users        *repository.UserRepository
	customOrders *repository.CustomOrderRepository
	now          func() time.Time
}

func NewReportService(
	reports *repository.ReportRepository,
	orders *repository.OrderRepository,
	products *repository.ProductRepository,
	users *repository.UserRepository,
	customOrders *repository.CustomOrderRepository,
) *ReportService {
	return &ReportService{
		reports:      reports,
		orders:       orders,
		products:     products,
		users:        users,
		customOrders: customOrders,
		now:          time.Now,
	}
}

var ErrInvalidPeriod = errors.New("period must be daily, weekly or monthly")

type Totals struct {
	Orders              int64           `json:"orders"`
	Revenue             decimal.Decimal `json:"revenue"`
	Products            int64           `json:"products"`
	Customers           int64           `json:"customers"`
	PendingOrders       int64           `json:"pendingOrders"`
	PendingCustomOrders int64           `json:"pendingCustomOrders"`
}

type PeriodFigures struct {
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Stats struct {
	Totals            Totals                     `json:"totals"`
	Today             PeriodFigures              `json:"today"`
	ThisMonth         PeriodFigures              `json:"thisMonth"`
	LastMonth         PeriodFigures              `json:"lastMonth"`
	OrderGrowth       float64                    `json:"orderGrowth"`
	RevenueGrowth     float64                    `json:"revenueGrowth"`
	RecentOrders      []entity.Order             `json:"recentOrders"`
	TopProducts       []repository.TopProduct    `json:"topProducts"`
	CategoryBreakdown []repository.CategorySales `json:"categoryBreakdown"`
}

// growthNoPrior is reported when the prior period had nothing to compare to.
const growthNoPrior = 100.0

// computeGrowth is the percentage change, one decimal.
func computeGrowth(current, prior decimal.Decimal) float64 {
	if prior.IsZero() {
		return growthNoPrior
	}
	g, _ := current.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return g
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func (s *ReportService) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	today := startOfDay(now)
	thisMonth := startOfMonth(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var out Stats
	var facts []repository.OrderFact

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.Totals.Orders, err = s.reports.CountOrders(gctx, ""); return })
	g.Go(func() (err error) { out.Totals.Revenue, err = s.reports.PaidRevenue(gctx); return })
	g.Go(func() (err error) { out.Totals.Products, err = s.products.Count(gctx); return })
	g.Go(func() (err error) { out.Totals.Customers, err = s.users.CountByRole(gctx, entity.RoleCustomer); return })
	g.Go(func() (err error) {
		out.Totals.PendingOrders, err = s.reports.CountOrders(gctx, entity.OrderPending)
		return
	})
	g.Go(func() (err error) {
		out.Totals.PendingCustomOrders, err = s.customOrders.CountByStatus(gctx, entity.CustomPending)
		return
	})
	g.Go(func() (err error) { facts, err = s.reports.OrderFacts(gctx, lastMonth, time.Time{}); return })
	g.Go(func() (err error) { out.RecentOrders, err = s.reports.RecentOrders(gctx, 5); return })
	g.Go(func() (err error) { out.TopProducts, err = s.reports.TopProducts(gctx, 5); return })
	g.Go(func() (err error) { out.CategoryBreakdown, err = s.reports.CategoryBreakdown(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Today.Revenue, out.ThisMonth.Revenue, out.LastMonth.Revenue = decimal.Zero, decimal.Zero, decimal.Zero
	for _, f := range facts {
		if f.Status == entity.OrderCancelled {
			continue
		}
		var bucket *PeriodFigures
		switch {
		case !f.CreatedAt.Before(thisMonth):
			bucket = &out.ThisMonth
		default:
			bucket = &out.LastMonth
		}
		bucket.Orders++
		bucket.Revenue = bucket.Revenue.Add(f.Revenue())
		if !f.CreatedAt.Before(today) {
			out.Today.Orders++
			out.Today.Revenue = out.Today.Revenue.Add(f.Revenue())
		}
	}
	out.OrderGrowth = computeGrowth(decimal.NewFromInt(out.ThisMonth.Orders), decimal.NewFromInt(out.LastMonth.Orders))
	out.RevenueGrowth = computeGrowth(out.ThisMonth.Revenue, out.LastMonth.Revenue)
	if out.RecentOrders == nil {
		out.RecentOrders = []entity.Order{}
	}
	return &out, nil
}

// ---------------- Sales report ----------------

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type SalesBucket struct {
	Period    string          `json:"period"`
	Start     time.Time       `json:"start"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	ItemsSold int64           `json:"itemsSold"`
}

type SalesReport struct {
	Period  Period          `json:"period"`
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Buckets []SalesBucket   `json:"buckets"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
	Items   int64           `json:"itemsSold"`
}

// SalesReport buckets non-cancelled orders in [from, to). Zero bounds
// default to the last 30 days.
func (s *ReportService) SalesReport(ctx context.Context, period Period, from, to time.Time) (*SalesReport, error) {
	if period == "" {
		period = PeriodDaily
	}
	if period != PeriodDaily && period != PeriodWeekly && period != PeriodMonthly {
		return nil, ErrInvalidPeriod
	}
	if to.IsZero() {
		to = startOfDay(s.now()).AddDate(0, 0, 1)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	facts, err := s.reports.OrderFacts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rep := &SalesReport{Period: period, From: from, To: to, Revenue: decimal.Zero}
	index := map[time.Time]int{}
	for start := bucketStart(period, from); start.Before(to); start = nextBucket(period, start) {
		index[start] = len(rep.Buckets)
		rep.Buckets = append(rep.Buckets, SalesBucket{
			Period:  bucketLabel(period, start),
			Start:   start,
			Revenue: decimal.Zero,
		})
	}
	for _, f := range facts {
		if f.Status == entity.OrderCancelled {
			continue
		}
		i, ok := index[bucketStart(period, f.CreatedAt.In(from.Location()))]
		if !ok {
			continue
		}
		b := &rep.Buckets[i]
		b.Orders++
		b.Revenue = b.Revenue.Add(f.Revenue())
		b.ItemsSold += f.ItemsSold

		rep.Orders++
		rep.Revenue = rep.Revenue.Add(f.Revenue())
		rep.Items += f.ItemsSold
	}
	return rep, nil
}

func bucketStart(p Period, t time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		d := startOfDay(t)
		offset := (int(d.Weekday()) + 6) % 7 // weeks start on Monday
		return d.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return startOfMonth(t)
	default:
		return startOfDay(t)
	}
}

func nextBucket(p Period, t time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketLabel(p Period, t time.Time) string {
	if p == PeriodMonthly {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// ---------------- Customer report ----------------

type CustomerSummary struct {
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Orders     int64           `json:"orders"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	LastOrder  time.Time       `json:"lastOrder"`
}

type CustomerReport struct {
	TopCustomers          []CustomerSummary `json:"topCustomers"`
	TotalCustomers        int64             `json:"totalCustomers"`
	NewCustomersThisMonth int64             `json:"newCustomersThisMonth"`
	RepeatCustomers       int64             `json:"repeatCustomers"`
}

// CustomerReport groups orders by the e-mail on the order, so guests count.
func (s *ReportService) CustomerReport(ctx context.Context, limit int) (*CustomerReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	facts, err := s.reports.OrderFacts(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	newCustomers, err := s.users.CountCustomersSince(ctx, startOfMonth(s.now()))
	if err != nil {
		return nil, err
	}

	byEmail := map[string]*CustomerSummary{}
	for _, f := range facts {
		if f.Status == entity.OrderCancelled {
			continue
		}
		c, ok := byEmail[f.CustomerEmail]
		if !ok {
			c = &CustomerSummary{Email: f.CustomerEmail, TotalSpent: decimal.Zero}
			byEmail[f.CustomerEmail] = c
		}
		c.Orders++
		c.TotalSpent = c.TotalSpent.Add(f.Revenue())
		// facts are oldest first, so the latest name wins
		c.Name = f.CustomerName
		c.LastOrder = f.CreatedAt
	}

	rep := &CustomerReport{
		TopCustomers:          make([]CustomerSummary, 0, len(byEmail)),
		TotalCustomers:        int64(len(byEmail)),
		NewCustomersThisMonth: newCustomers,
	}
	for _, c := range byEmail {
		if c.Orders > 1 {
			rep.RepeatCustomers++
		}
		rep.TopCustomers = append(rep.TopCustomers, *c)
	}
	sort.Slice(rep.TopCustomers, func(i, j int) bool {
		a, b := rep.TopCustomers[i], rep.TopCustomers[j]
		if !a.TotalSpent.Equal(b.TotalSpent) {
			return a.TotalSpent.GreaterThan(b.TotalSpent)
		}
		if a.Orders != b.Orders {
			return a.Orders > b.Orders
		}
		return a.Email < b.Email
	})
	if len(rep.TopCustomers) > limit {
		rep.TopCustomers = rep.TopCustomers[:limit]
	}
	return rep, nil
}

// ExportOrders returns every order matching the filter, oldest first.
func (s *ReportService) ExportOrders(ctx context.Context, f repository.OrderFilter) ([]entity.Order, error) {
	return s.orders.ListAll(ctx, f)
}
