package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"caketime/entity"
	"caketime/pkg/mailer"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mail templates, selected by event name.
const (
	MailOrderConfirmation   = "orderConfirmation"
	MailNewOrderAdmin       = "newOrderAdmin"
	MailOrderStatusUpdate   = "orderStatusUpdate"
	MailPaymentReceived     = "paymentReceived"
	MailCustomOrderReceived = "customOrderReceived"
	MailNewCustomOrderAdmin = "newCustomOrderAdmin"
	MailCustomOrderUpdate   = "customOrderUpdate"
)

var mailSubjects = map[string]string{
	MailOrderConfirmation:   "Your TheCakeTime order {{.Number}} is placed",
	MailNewOrderAdmin:       "New order {{.Number}}",
	MailOrderStatusUpdate:   "Order {{.Number}} is now {{.Status}}",
	MailPaymentReceived:     "Payment received for order {{.Number}}",
	MailCustomOrderReceived: "We received your custom cake request",
	MailNewCustomOrderAdmin: "New custom cake request #{{.Number}}",
	MailCustomOrderUpdate:   "Your custom cake request is {{.Status}}",
}

//go:embed templates/*.html
var templateFS embed.FS

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// MailData is what every template renders from.
type MailData struct {
	Number      string
	Status      string
	Order       *entity.Order
	CustomOrder *entity.CustomOrder
	ShopURL     string
}

// NotificationService renders mails and hands them to the transport in the
// background. Delivery failures are logged and never reach the caller.
type NotificationService struct {
	mailer      Mailer
	adminEmail  string
	frontendURL string
	timeout     time.Duration
	tmpl        *template.Template
	subjects    map[string]*texttemplate.Template
	logger      *zap.Logger
	wg          sync.WaitGroup
}

func NewNotificationService(m Mailer, adminEmail, frontendURL string, logger *zap.Logger) (*NotificationService, error) {
	tmpl, err := template.New("mail").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"label": statusLabel,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	subjects := make(map[string]*texttemplate.Template, len(mailSubjects))
	for event, src := range mailSubjects {
		if tmpl.Lookup(event) == nil {
			return nil, fmt.Errorf("no body template for %s", event)
		}
		subjects[event], err = texttemplate.New(event).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse subject %s: %w", event, err)
		}
	}
	return &NotificationService{
		mailer:      m,
		adminEmail:  adminEmail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		timeout:     30 * time.Second,
		tmpl:        tmpl,
		subjects:    subjects,
		logger:      logger,
	}, nil
}

// Render is a pure function of the event name and data.
func (s *NotificationService) Render(event string, data MailData) (subject, body string, err error) {
	st, ok := s.subjects[event]
	if !ok {
		return "", "", fmt.Errorf("unknown mail event %q", event)
	}
	data.ShopURL = s.frontendURL

	var sb strings.Builder
	if err := st.Execute(&sb, data); err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, event, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", event, err)
	}
	return sb.String(), buf.String(), nil
}

// Dispatch sends in a goroutine and returns immediately.
func (s *NotificationService) Dispatch(event, to string, data MailData) {
	if to == "" {
		return
	}
	subject, body, err := s.Render(event, data)
	if err != nil {
		s.logger.Error("render mail", zap.String("event", event), zap.Error(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.mailer.Send(ctx, mailer.Message{To: to, Subject: subject, HTML: body})
		if err != nil {
			s.logger.Warn("mail not sent", zap.String("event", event), zap.String("to", to), zap.Error(err))
			return
		}
		s.logger.Debug("mail sent", zap.String("event", event), zap.String("to", to))
	}()
}

// Wait blocks until in-flight mails finish or ctx ends.
func (s *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------- Order mails ----------------

func (s *NotificationService) OrderPlaced(o *entity.Order) {
	data := orderMail(o)
	s.Dispatch(MailOrderConfirmation, o.Customer.Email, data)
	s.Dispatch(MailNewOrderAdmin, s.adminEmail, data)
}

func (s *NotificationService) OrderStatusChanged(o *entity.Order) {
	s.Dispatch(MailOrderStatusUpdate, o.Customer.Email, orderMail(o))
}

func (s *NotificationService) PaymentReceived(o *entity.Order) {
	s.Dispatch(MailPaymentReceived, o.Customer.Email, orderMail(o))
}

func (s *NotificationService) CustomOrderReceived(co *entity.CustomOrder) {
	data := customOrderMail(co)
	s.Dispatch(MailCustomOrderReceived, co.Customer.Email, data)
	s.Dispatch(MailNewCustomOrderAdmin, s.adminEmail, data)
}

func (s *NotificationService) CustomOrderUpdated(co *entity.CustomOrder) {
	s.Dispatch(MailCustomOrderUpdate, co.Customer.Email, customOrderMail(co))
}

func orderMail(o *entity.Order) MailData {
	return MailData{Number: o.OrderNumber, Status: statusLabel(string(o.Status)), Order: o}
}

func customOrderMail(co *entity.CustomOrder) MailData {
	return MailData{Number: fmt.Sprint(co.ID), Status: statusLabel(string(co.Status)), CustomOrder: co}
}

// statusLabel: out_for_delivery -> Out for delivery
func statusLabel(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
